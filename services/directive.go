package services

import (
	"regexp"
	"strings"
	"unicode"
)

const namespaceDirectivePrefix = "namespace "

// Directive holds the routing hints found in a raw query
type Directive struct {
	Query          string
	Namespace      string
	MultiNamespace bool
}

// DirectiveParser extracts namespace routing hints from free text
type DirectiveParser struct {
	keyword string
	pattern *regexp.Regexp
}

// NewDirectiveParser creates a parser for the given multi-namespace keyword.
// Namespace tokens are effect_<n>, or <keyword>_<n>, matched case-insensitively.
func NewDirectiveParser(keyword string) *DirectiveParser {
	alternatives := "effect"
	if keyword != "" {
		alternatives += "|" + regexp.QuoteMeta(keyword)
	}
	return &DirectiveParser{
		keyword: keyword,
		pattern: regexp.MustCompile(`(?i)(?:` + alternatives + `)_(\d+)`),
	}
}

// Parse runs namespace extraction, then multi-namespace detection on the result.
// A query made of the namespace token alone is not inspected for the keyword,
// so "効果_1" stays whole.
func (p *DirectiveParser) Parse(text string) Directive {
	cleaned, namespace, tokenOnly := p.extractNamespace(text)
	if tokenOnly {
		return Directive{Query: cleaned, Namespace: namespace}
	}
	cleaned, multi := p.StripMultiNamespace(cleaned)
	return Directive{Query: cleaned, Namespace: namespace, MultiNamespace: multi}
}

// ExtractNamespace removes the first namespace token from text and returns it
// normalized as effect_<n>. If nothing would remain, the original text is kept.
func (p *DirectiveParser) ExtractNamespace(text string) (string, string) {
	cleaned, namespace, _ := p.extractNamespace(text)
	return cleaned, namespace
}

func (p *DirectiveParser) extractNamespace(text string) (string, string, bool) {
	loc := p.pattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return text, "", false
	}

	namespace := "effect_" + text[loc[2]:loc[3]]
	cleaned := strings.TrimSpace(text[:loc[0]] + text[loc[1]:])
	if cleaned == "" {
		return text, namespace, true
	}
	return cleaned, namespace, false
}

// StripMultiNamespace detects the keyword prefix ("<keyword>" case-sensitive or
// "namespace <keyword>" case-insensitive) and strips it with any colon separator.
func (p *DirectiveParser) StripMultiNamespace(text string) (string, bool) {
	if p.keyword == "" {
		return text, false
	}

	normalized := strings.TrimSpace(text)

	if strings.HasPrefix(normalized, p.keyword) {
		return p.remainderOrKeyword(normalized[len(p.keyword):]), true
	}

	prefix := namespaceDirectivePrefix + p.keyword
	if len(normalized) >= len(prefix) && strings.EqualFold(normalized[:len(prefix)], prefix) {
		return p.remainderOrKeyword(normalized[len(prefix):]), true
	}

	return text, false
}

func (p *DirectiveParser) remainderOrKeyword(remainder string) string {
	remainder = strings.TrimLeftFunc(remainder, unicode.IsSpace)
	if strings.HasPrefix(remainder, ":") {
		remainder = strings.TrimLeftFunc(remainder[len(":"):], unicode.IsSpace)
	} else if strings.HasPrefix(remainder, "：") {
		remainder = strings.TrimLeftFunc(remainder[len("："):], unicode.IsSpace)
	}
	if remainder == "" {
		return p.keyword
	}
	return remainder
}
