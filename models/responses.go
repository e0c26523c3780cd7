package models

// ChatResponse is the structured pipeline result
type ChatResponse struct {
	Answer string           `json:"answer"`
	Meta   ChatResponseMeta `json:"meta"`
}

// ChatResponseMeta carries retrieval diagnostics alongside the answer
type ChatResponseMeta struct {
	UsedContextCount   int           `json:"used_context_count"`
	MatchedTitles      []string      `json:"matched_titles"`
	UsedNamespace      *string       `json:"used_namespace"`
	FallbackNamespace  *string       `json:"fallback_namespace"`
	RawMatchCount      *int          `json:"raw_match_count"`
	UpstreamStatusCode *int          `json:"upstash_status_code"`
	UpstreamWarning    *string       `json:"upstash_error"`
	Cards              []CardSummary `json:"cards"`
}

// CardSummary is the response projection of a catalog card matched by retrieval
type CardSummary struct {
	CardID      string   `json:"card_id"`
	Name        string   `json:"name"`
	Class       string   `json:"class"`
	Rarity      string   `json:"rarity"`
	Cost        int      `json:"cost"`
	Attack      int      `json:"attack"`
	HP          int      `json:"hp"`
	Effect      string   `json:"effect"`
	Effects     []string `json:"effects"`
	Keywords    []string `json:"keywords"`
	ImageBefore string   `json:"image_before"`
	ImageAfter  string   `json:"image_after"`
}

// ErrorDetail is the client-visible payload of a staged error
type ErrorDetail struct {
	Stage         string `json:"stage"`
	Message       string `json:"message"`
	UpstreamError string `json:"upstream_error,omitempty"`
}

// APIError represents standardized error response
type APIError struct {
	Detail ErrorDetail `json:"detail"`
}

// StringPtr returns a pointer to s, or nil when s is empty
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}
