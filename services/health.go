package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"time"

	"gamechat-rag/config"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDegraded  HealthStatus = "degraded"
)

const healthCheckTimeout = 5 * time.Second

// ErrComponentNotFound is returned for a component with no registered checker
var ErrComponentNotFound = stderrors.New("health component not found")

// ComponentHealth represents the health of a single component
type ComponentHealth struct {
	Name      string                 `json:"name"`
	Status    HealthStatus           `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Duration  time.Duration          `json:"duration"`
}

// SystemHealth represents the overall system health
type SystemHealth struct {
	Status     HealthStatus               `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Uptime     time.Duration              `json:"uptime"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentHealth `json:"components"`
	System     map[string]interface{}     `json:"system,omitempty"`
}

// HealthChecker interface for health checking
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) ComponentHealth
}

// HealthService manages health checks for the system
type HealthService interface {
	RegisterChecker(checker HealthChecker)
	CheckHealth(ctx context.Context) SystemHealth
	CheckComponent(ctx context.Context, name string) (ComponentHealth, error)
	GetSystemInfo() map[string]interface{}
}

// DefaultHealthService implements HealthService
type DefaultHealthService struct {
	checkers  map[string]HealthChecker
	startTime time.Time
	version   string
	logger    Logger
}

// NewHealthService creates a new health service
func NewHealthService(version string, logger Logger) *DefaultHealthService {
	if logger == nil {
		logger = NewNopLogger()
	}

	return &DefaultHealthService{
		checkers:  make(map[string]HealthChecker),
		startTime: time.Now(),
		version:   version,
		logger:    logger,
	}
}

// RegisterChecker registers a health checker
func (h *DefaultHealthService) RegisterChecker(checker HealthChecker) {
	h.checkers[checker.Name()] = checker
	h.logger.Debug("Health checker registered", String("component", checker.Name()))
}

// CheckHealth performs health checks on all registered components
func (h *DefaultHealthService) CheckHealth(ctx context.Context) SystemHealth {
	start := time.Now()
	components := make(map[string]ComponentHealth)
	overallStatus := HealthStatusHealthy

	for name, checker := range h.checkers {
		componentHealth := h.checkComponentWithTimeout(ctx, checker, healthCheckTimeout)
		components[name] = componentHealth

		switch componentHealth.Status {
		case HealthStatusUnhealthy:
			overallStatus = HealthStatusUnhealthy
		case HealthStatusDegraded:
			if overallStatus == HealthStatusHealthy {
				overallStatus = HealthStatusDegraded
			}
		}
	}

	h.logger.Debug("Health check completed",
		String("status", string(overallStatus)),
		Duration("duration", time.Since(start)),
		Int("components_checked", len(components)))

	return SystemHealth{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Uptime:     time.Since(h.startTime),
		Version:    h.version,
		Components: components,
		System:     h.GetSystemInfo(),
	}
}

// CheckComponent checks the health of a specific component
func (h *DefaultHealthService) CheckComponent(ctx context.Context, name string) (ComponentHealth, error) {
	checker, exists := h.checkers[name]
	if !exists {
		return ComponentHealth{}, fmt.Errorf("%w: %s", ErrComponentNotFound, name)
	}

	return h.checkComponentWithTimeout(ctx, checker, healthCheckTimeout), nil
}

// GetSystemInfo returns general system information
func (h *DefaultHealthService) GetSystemInfo() map[string]interface{} {
	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}
	sort.Strings(names)

	return map[string]interface{}{
		"version":    h.version,
		"uptime":     time.Since(h.startTime).String(),
		"start_time": h.startTime.Format(time.RFC3339),
		"components": names,
	}
}

// checkComponentWithTimeout checks a component with a timeout
func (h *DefaultHealthService) checkComponentWithTimeout(ctx context.Context, checker HealthChecker, timeout time.Duration) ComponentHealth {
	start := time.Now()

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resultChan := make(chan ComponentHealth, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultChan <- ComponentHealth{
					Name:      checker.Name(),
					Status:    HealthStatusUnhealthy,
					Message:   fmt.Sprintf("Health check panicked: %v", r),
					Timestamp: time.Now(),
					Duration:  time.Since(start),
				}
			}
		}()

		result := checker.Check(timeoutCtx)
		result.Duration = time.Since(start)
		resultChan <- result
	}()

	select {
	case result := <-resultChan:
		return result
	case <-timeoutCtx.Done():
		return ComponentHealth{
			Name:      checker.Name(),
			Status:    HealthStatusUnhealthy,
			Message:   "Health check timed out",
			Timestamp: time.Now(),
			Duration:  timeout,
		}
	}
}

// CatalogHealthChecker reports the loaded card catalog. An empty catalog is
// degraded: answers still work but carry no card summaries.
type CatalogHealthChecker struct {
	catalog CardCatalog
	source  string
}

// NewCatalogHealthChecker creates a catalog health checker
func NewCatalogHealthChecker(catalog CardCatalog, source string) *CatalogHealthChecker {
	return &CatalogHealthChecker{catalog: catalog, source: source}
}

// Name returns the checker name
func (c *CatalogHealthChecker) Name() string {
	return "card_catalog"
}

// Check performs the catalog health check
func (c *CatalogHealthChecker) Check(ctx context.Context) ComponentHealth {
	health := ComponentHealth{
		Name:      c.Name(),
		Timestamp: time.Now(),
		Status:    HealthStatusHealthy,
		Message:   "Card catalog loaded",
	}

	count := 0
	if c.catalog != nil {
		count = c.catalog.Len()
	}
	health.Details = map[string]interface{}{
		"cards":  count,
		"source": c.source,
	}

	if count == 0 {
		health.Status = HealthStatusDegraded
		health.Message = "Card catalog is empty"
	}
	return health
}

// CredentialsHealthChecker reports whether the external services are configured
type CredentialsHealthChecker struct {
	cfg *config.Config
}

// NewCredentialsHealthChecker creates a credentials health checker
func NewCredentialsHealthChecker(cfg *config.Config) *CredentialsHealthChecker {
	return &CredentialsHealthChecker{cfg: cfg}
}

// Name returns the checker name
func (c *CredentialsHealthChecker) Name() string {
	return "credentials"
}

// Check performs the credentials health check
func (c *CredentialsHealthChecker) Check(ctx context.Context) ComponentHealth {
	openAI := c.cfg.HasOpenAICredentials()
	vector := c.cfg.HasVectorCredentials()

	health := ComponentHealth{
		Name:      c.Name(),
		Timestamp: time.Now(),
		Status:    HealthStatusHealthy,
		Message:   "All credentials configured",
		Details: map[string]interface{}{
			"openai":    openAI,
			"upstash":   vector,
			"fake_mode": c.cfg.RAG.UseFake,
		},
	}

	switch {
	case c.cfg.RAG.UseFake:
		health.Message = "Fake mode enabled, external services are not called"
	case !openAI || !vector:
		health.Status = HealthStatusDegraded
		health.Message = "Missing credentials, chat requests will fail"
	}
	return health
}

// Pinger is anything that can verify its connection
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabaseHealthChecker checks database connectivity
type DatabaseHealthChecker struct {
	name   string
	pinger Pinger
}

// NewDatabaseHealthChecker creates a database health checker
func NewDatabaseHealthChecker(name string, pinger Pinger) *DatabaseHealthChecker {
	return &DatabaseHealthChecker{
		name:   name,
		pinger: pinger,
	}
}

// Name returns the checker name
func (d *DatabaseHealthChecker) Name() string {
	return d.name
}

// Check performs the database health check
func (d *DatabaseHealthChecker) Check(ctx context.Context) ComponentHealth {
	start := time.Now()

	err := d.pinger.Ping(ctx)

	health := ComponentHealth{
		Name:      d.name,
		Timestamp: time.Now(),
		Duration:  time.Since(start),
	}

	if err != nil {
		health.Status = HealthStatusUnhealthy
		health.Message = err.Error()
	} else {
		health.Status = HealthStatusHealthy
		health.Message = "Database connection successful"
	}

	return health
}
