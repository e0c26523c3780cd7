package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectiveParser_ExtractNamespace(t *testing.T) {
	parser := NewDirectiveParser("効果")

	tests := []struct {
		name              string
		input             string
		expectedQuery     string
		expectedNamespace string
	}{
		{"ascii token", "What does effect_2 do?", "What does  do?", "effect_2"},
		{"upper case token", "EFFECT_12 drake", "drake", "effect_12"},
		{"keyword alias", "このカードの効果_1は？", "このカードのは？", "effect_1"},
		{"only first occurrence removed", "effect_1 and effect_1", "and effect_1", "effect_1"},
		{"token alone keeps original text", "  effect_3  ", "  effect_3  ", "effect_3"},
		{"no token", "how strong is the drake", "how strong is the drake", ""},
		{"no digits", "effect_ list", "effect_ list", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, namespace := parser.ExtractNamespace(tt.input)
			assert.Equal(t, tt.expectedQuery, query)
			assert.Equal(t, tt.expectedNamespace, namespace)
		})
	}
}

func TestDirectiveParser_ExtractNamespace_RemovesTokenOnce(t *testing.T) {
	parser := NewDirectiveParser("効果")

	for _, input := range []string{"effect_7 x", "x Effect_7 y effect_7", "effect_7effect_7"} {
		query, namespace := parser.ExtractNamespace(input)

		assert.Equal(t, "effect_7", namespace)
		assert.NotEmpty(t, query)
		before := strings.Count(strings.ToLower(input), "effect_7")
		after := strings.Count(strings.ToLower(query), "effect_7")
		assert.Equal(t, before-1, after, input)
	}
}

func TestDirectiveParser_StripMultiNamespace(t *testing.T) {
	parser := NewDirectiveParser("効果")

	tests := []struct {
		name          string
		input         string
		expectedQuery string
		expectedFired bool
	}{
		{"keyword with ascii colon", "効果: 全体の効果を教えて", "全体の効果を教えて", true},
		{"keyword with full-width colon", "効果：ドロー系", "ドロー系", true},
		{"keyword without separator", "  効果 ドロー系", "ドロー系", true},
		{"keyword only", "効果", "効果", true},
		{"keyword and separator only", "効果 ： ", "効果", true},
		{"namespace prefix any case", "Namespace 効果: ward", "ward", true},
		{"keyword not at start", "全体の効果", "全体の効果", false},
		{"namespace prefix without keyword", "namespace other", "namespace other", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, fired := parser.StripMultiNamespace(tt.input)
			assert.Equal(t, tt.expectedQuery, query)
			assert.Equal(t, tt.expectedFired, fired)
		})
	}
}

func TestDirectiveParser_StripMultiNamespace_CaseSensitiveKeyword(t *testing.T) {
	parser := NewDirectiveParser("Effects")

	_, fired := parser.StripMultiNamespace("effects: all")
	assert.False(t, fired)

	query, fired := parser.StripMultiNamespace("NAMESPACE effects: all")
	assert.True(t, fired)
	assert.Equal(t, "all", query)
}

func TestDirectiveParser_Parse(t *testing.T) {
	parser := NewDirectiveParser("効果")

	t.Run("namespace then directive", func(t *testing.T) {
		d := parser.Parse("効果: effect_2 ドロー")
		assert.Equal(t, "effect_2", d.Namespace)
		assert.True(t, d.MultiNamespace)
		assert.Equal(t, "ドロー", d.Query)
	})

	t.Run("keyword alias token alone", func(t *testing.T) {
		for _, input := range []string{"効果_1", "  効果_1 "} {
			d := parser.Parse(input)
			assert.Equal(t, "effect_1", d.Namespace, input)
			assert.False(t, d.MultiNamespace, input)
			assert.Equal(t, input, d.Query, input)
		}
	})

	t.Run("keyword alias inside question", func(t *testing.T) {
		d := parser.Parse("効果_1のカードは？")
		assert.Equal(t, "effect_1", d.Namespace)
		assert.False(t, d.MultiNamespace)
		assert.Equal(t, "のカードは？", d.Query)
	})

	t.Run("plain question", func(t *testing.T) {
		d := parser.Parse("序盤のおすすめは？")
		assert.Empty(t, d.Namespace)
		assert.False(t, d.MultiNamespace)
		assert.Equal(t, "序盤のおすすめは？", d.Query)
	})
}
