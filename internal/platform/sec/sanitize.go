// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

// # Input Sanitization

var (
	// strictPolicy permits zero elements and drops script/style bodies.
	strictPolicy = bluemonday.StrictPolicy()

	// richTextPolicy permits a fixed set of formatting elements for long-form content.
	richTextPolicy = newRichTextPolicy()
)

func newRichTextPolicy() *bluemonday.Policy {
	policy := bluemonday.NewPolicy()
	policy.AllowElements(
		"p", "br", "strong", "em", "u",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "blockquote", "code", "pre",
	)
	policy.AllowAttrs("class").Globally()
	policy.AllowStyles("text-align", "font-weight", "text-decoration", "color", "background-color").Globally()
	return policy
}

// Sanitize strips all markup from an untrusted string and returns plain text.
//
// Entities are decoded after stripping and the result is NFC-normalised. The
// pass repeats until the output stops changing, so an encoded payload such as
// "&lt;script&gt;" cannot survive as markup and Sanitize(Sanitize(x)) equals
// Sanitize(x).
//
// A pass that changes the text removes markup or one level of entity
// encoding, so the loop is bounded by the input length.
func Sanitize(value string) string {
	current := value
	for range len(value) + 2 {
		next := sanitizePass(current)
		if next == current {
			return next
		}
		current = next
	}
	return current
}

func sanitizePass(value string) string {
	return norm.NFC.String(html.UnescapeString(strictPolicy.Sanitize(value)))
}

// SanitizeOptional is [Sanitize] for nullable fields. A nil input yields nil.
func SanitizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	clean := Sanitize(*value)
	return &clean
}

// SanitizeRichText keeps the formatting allow-list and removes everything else.
// The output is HTML, suitable for bios, lesson bodies, and blog content.
func SanitizeRichText(value string) string {
	return richTextPolicy.Sanitize(value)
}

// SanitizeValue walks a decoded JSON-like value and sanitizes every string in it.
//
// The accepted shapes are string, []string, []any, map[string]any, and
// scalars (numbers, booleans, nil), which are returned unchanged.
func SanitizeValue(value any) any {
	switch typed := value.(type) {
	case string:
		return Sanitize(typed)
	case []string:
		out := make([]string, len(typed))
		for i, item := range typed {
			out[i] = Sanitize(item)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = SanitizeValue(item)
		}
		return out
	case map[string]any:
		return SanitizeMap(typed)
	default:
		return typed
	}
}

// SanitizeMap returns a copy of data with every string value sanitized.
// Keys are sanitized as well since they may be echoed back to clients.
func SanitizeMap(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for key, item := range data {
		out[Sanitize(key)] = SanitizeValue(item)
	}
	return out
}
