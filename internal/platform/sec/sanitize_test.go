// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lms/internal/platform/sec"
)

/*
TestSanitize_StripsMarkup checks that no tag survives the strict policy.
*/
func TestSanitize_StripsMarkup(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain_text", "jane@example.com", "jane@example.com"},
		{"bold", "<b>bold</b> text", "bold text"},
		{"ampersand_kept_as_text", "Tom & Jerry", "Tom & Jerry"},
		{"attribute_payload", `<img src=x onerror="alert(1)">hi`, "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sec.Sanitize(tt.input))
		})
	}
}

/*
TestSanitize_Script verifies the canonical XSS payload leaves no markup.
*/
func TestSanitize_Script(t *testing.T) {
	once := sec.Sanitize("<script>alert(1)</script>")

	assert.NotContains(t, once, "<")
	assert.NotContains(t, once, "script")
	assert.Equal(t, once, sec.Sanitize(once))
}

/*
TestSanitize_Idempotent covers inputs whose first pass still looks like markup.
*/
func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"&lt;script&gt;alert(1)&lt;/script&gt;",
		"&amp;lt;b&amp;gt;nested",
		"a < b and c > d",
		"<p>para</p><p>two</p>",
		"Café",
		"",
	}

	for _, input := range inputs {
		once := sec.Sanitize(input)
		assert.Equal(t, once, sec.Sanitize(once), "input %q", input)
		assert.NotContains(t, once, "<script")
	}
}

/*
TestSanitize_DeeplyEncoded unwraps entity nesting of any depth in one call.
*/
func TestSanitize_DeeplyEncoded(t *testing.T) {
	for _, depth := range []int{9, 25, 60} {
		amp := "&" + strings.Repeat("amp;", depth)
		input := amp + "lt;b" + amp + "gt;hi"

		once := sec.Sanitize(input)
		assert.Equal(t, "hi", once, "depth %d", depth)
		assert.Equal(t, once, sec.Sanitize(once), "depth %d", depth)
	}
}

/*
TestSanitizeOptional_Nil ensures null input yields null output.
*/
func TestSanitizeOptional_Nil(t *testing.T) {
	assert.Nil(t, sec.SanitizeOptional(nil))

	value := "<i>x</i>"
	out := sec.SanitizeOptional(&value)
	require.NotNil(t, out)
	assert.Equal(t, "x", *out)
}

/*
TestSanitizeRichText_AllowList keeps formatting tags and drops active content.
*/
func TestSanitizeRichText_AllowList(t *testing.T) {
	out := sec.SanitizeRichText(`<p class="lead"><strong>Hi</strong></p><script>x()</script><a href="javascript:x">link</a>`)

	assert.Contains(t, out, "<strong>Hi</strong>")
	assert.Contains(t, out, `class="lead"`)
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "javascript")
}

/*
TestSanitizeValue_Recursive walks nested maps and slices.
*/
func TestSanitizeValue_Recursive(t *testing.T) {
	input := map[string]any{
		"name":  "<b>Ann</b>",
		"count": 3,
		"tags":  []any{"<i>go</i>", true},
		"meta":  map[string]any{"bio": "<u>x</u>"},
		"list":  []string{"<em>a</em>"},
	}

	out, ok := sec.SanitizeValue(input).(map[string]any)
	require.True(t, ok)

	assert.Equal(t, "Ann", out["name"])
	assert.Equal(t, 3, out["count"])
	assert.Equal(t, []any{"go", true}, out["tags"])
	assert.Equal(t, map[string]any{"bio": "x"}, out["meta"])
	assert.Equal(t, []string{"a"}, out["list"])

	// The input is not mutated.
	assert.Equal(t, "<b>Ann</b>", input["name"])
}
