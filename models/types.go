package models

// EffectSlot is one numbered effect text of a card (effect_1, effect_2, ...)
type EffectSlot struct {
	Slot int    `json:"slot"`
	Text string `json:"text"`
}

// CardRecord is a catalog entry. Effects are sorted by slot number.
type CardRecord struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Class       string       `json:"class"`
	Rarity      string       `json:"rarity"`
	Cost        int          `json:"cost"`
	Attack      int          `json:"attack"`
	HP          int          `json:"hp"`
	Effects     []EffectSlot `json:"effects"`
	Keywords    []string     `json:"keywords"`
	ImageBefore string       `json:"image_before"`
	ImageAfter  string       `json:"image_after"`
}

// Effect returns the text of the given slot, or "" when the card has none
func (c *CardRecord) Effect(slot int) string {
	for _, effect := range c.Effects {
		if effect.Slot == slot {
			return effect.Text
		}
	}
	return ""
}

// EffectTexts returns the effect texts in slot order
func (c *CardRecord) EffectTexts() []string {
	texts := make([]string, 0, len(c.Effects))
	for _, effect := range c.Effects {
		texts = append(texts, effect.Text)
	}
	return texts
}

// RetrievedDocument is one usable match normalized from the vector index
type RetrievedDocument struct {
	Text   string `json:"text"`
	Title  string `json:"title,omitempty"`
	CardID string `json:"card_id,omitempty"`
}

// NamespaceResult records the outcome of one namespace within a fan-out search
type NamespaceResult struct {
	Namespace      string `json:"namespace"`
	UsableDocCount int    `json:"usable_doc_count"`
	RawMatchCount  int    `json:"raw_match_count"`
}

// SearchDiagnostics captures operational metadata for one search or an aggregate.
// UpstreamStatusCode is zero when no response was received.
type SearchDiagnostics struct {
	Namespace           string            `json:"namespace"`
	PayloadTopK         int               `json:"payload_top_k"`
	UpstreamStatusCode  int               `json:"upstash_status_code,omitempty"`
	RawMatchCount       int               `json:"raw_match_count"`
	UsableDocCount      int               `json:"usable_doc_count"`
	Warning             string            `json:"warning,omitempty"`
	SearchedNamespaces  []string          `json:"searched_effect_namespaces,omitempty"`
	NamespaceResults    []NamespaceResult `json:"effect_namespace_results,omitempty"`
	UpstreamStatusCodes []int             `json:"upstash_status_codes,omitempty"`
	FallbackNamespace   string            `json:"fallback_namespace,omitempty"`
}
