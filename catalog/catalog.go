// Package catalog holds the in-memory card catalog. A Catalog is built once at
// startup and is read-only afterwards, so lookups are safe from any goroutine.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v2"

	"gamechat-rag/models"
)

// Catalog maps card identifiers to card records
type Catalog struct {
	cards map[string]models.CardRecord
}

// Empty returns a catalog with no cards
func Empty() *Catalog {
	return &Catalog{cards: map[string]models.CardRecord{}}
}

// New builds a catalog from already normalized records. Later duplicates win.
func New(records []models.CardRecord) *Catalog {
	c := &Catalog{cards: make(map[string]models.CardRecord, len(records))}
	for _, record := range records {
		c.cards[record.ID] = record
	}
	return c
}

// FromItems normalizes raw dataset objects into a catalog. Items without an
// identifier are skipped; the number skipped is returned.
func FromItems(items []map[string]interface{}) (*Catalog, int) {
	records := make([]models.CardRecord, 0, len(items))
	skipped := 0
	for _, item := range items {
		record, ok := NormalizeRecord(item)
		if !ok {
			skipped++
			continue
		}
		records = append(records, record)
	}
	return New(records), skipped
}

// LoadFile reads a JSON or YAML card dataset. On any failure it
// returns an empty catalog together with the error so callers can log it and
// keep serving.
func LoadFile(path string) (*Catalog, error) {
	items, err := ReadItems(path)
	if err != nil {
		return Empty(), err
	}

	c, _ := FromItems(items)
	return c, nil
}

// ReadItems reads the raw card objects of a JSON or YAML dataset file
func ReadItems(path string) ([]map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read card data %s: %w", path, err)
	}

	items, err := decodeItems(path, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse card data %s: %w", path, err)
	}
	return items, nil
}

// decodeItems accepts a top-level list of card objects or an object whose
// "items" key holds that list. YAML maps are rewritten with string keys so the
// items stay JSON-encodable. Non-object list entries are dropped.
func decodeItems(path string, data []byte) ([]map[string]interface{}, error) {
	var doc interface{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	}

	doc = stringKeyed(doc)
	if wrapper, ok := doc.(map[string]interface{}); ok {
		doc, ok = wrapper["items"]
		if !ok {
			return nil, fmt.Errorf("dataset object has no items list")
		}
	}

	list, ok := doc.([]interface{})
	if !ok {
		return nil, fmt.Errorf("dataset must be a list of card objects or an object with an items list")
	}

	items := make([]map[string]interface{}, 0, len(list))
	for _, element := range list {
		if item, ok := element.(map[string]interface{}); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

func stringKeyed(value interface{}) interface{} {
	switch v := value.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(v))
		for key, inner := range v {
			m[cast.ToString(key)] = stringKeyed(inner)
		}
		return m
	case map[string]interface{}:
		for key, inner := range v {
			v[key] = stringKeyed(inner)
		}
		return v
	case []interface{}:
		for i, inner := range v {
			v[i] = stringKeyed(inner)
		}
		return v
	default:
		return value
	}
}

// Get returns the card for id. Unknown ids report false.
func (c *Catalog) Get(id string) (models.CardRecord, bool) {
	record, ok := c.cards[id]
	return record, ok
}

// Len returns the number of cards
func (c *Catalog) Len() int {
	return len(c.cards)
}
