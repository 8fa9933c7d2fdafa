// Package htmlsanitize provides HTML sanitization for editor-supplied page content.
// It uses bluemonday to strip potentially dangerous HTML while preserving safe formatting.
package htmlsanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// policy is the shared bluemonday policy for sanitizing rich text.
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared sanitization policy, creating it on first use.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		// Start with UGC (User Generated Content) policy as base
		policy = bluemonday.UGCPolicy()

		// Allow common text formatting used in marketing copy
		policy.AllowElements("u", "s", "sub", "sup", "mark")

		// Allow data attributes used by the page editor
		policy.AllowDataAttributes()

		// Allow links to open in a new tab
		policy.AllowAttrs("target").Matching(bluemonday.SpaceSeparatedTokens).OnElements("a")
		policy.RequireNoFollowOnLinks(false)
		policy.AddTargetBlankToFullyQualifiedLinks(true)
	})
	return policy
}

// Sanitize cleans HTML input, removing potentially dangerous elements and attributes.
// It preserves safe formatting like bold, italic, lists and links.
func Sanitize(html string) string {
	if html == "" {
		return ""
	}
	return getPolicy().Sanitize(html)
}

// IsMarkupKey reports whether a payload field holds HTML by name: "html",
// or a name ending in "Html", "HTML" or "_html" (for example "bodyHtml").
func IsMarkupKey(key string) bool {
	return key == "html" ||
		strings.HasSuffix(key, "Html") ||
		strings.HasSuffix(key, "HTML") ||
		strings.HasSuffix(key, "_html")
}

// SanitizeTree walks a JSON-compatible value and sanitizes the strings held
// by markup fields (see IsMarkupKey), including strings in arrays under such
// a field. Every other string is returned byte for byte, so copy like
// "Tom & Jerry <3" survives a round trip. Maps and slices are copied; the
// input is not modified.
func SanitizeTree(v any) any {
	return sanitizeValue(v, false)
}

func sanitizeValue(v any, markup bool) any {
	switch t := v.(type) {
	case string:
		if !markup {
			return t
		}
		return Sanitize(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = sanitizeValue(val, IsMarkupKey(k))
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = sanitizeValue(val, markup)
		}
		return out
	default:
		return v
	}
}
