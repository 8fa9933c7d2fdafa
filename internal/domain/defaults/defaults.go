// Package defaults holds the compiled-in default content for every editable page.
//
// The table doubles as the registry of valid page identifiers: a page id is
// valid exactly when it has a default payload here.
package defaults

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"

	"github.com/dalemusser/stratacontent/internal/domain/models"
)

//go:embed content/*.json
var contentFS embed.FS

// table maps page id to its raw JSON default payload.
var table = load()

func load() map[string][]byte {
	t := make(map[string][]byte, len(models.AllPageIDs()))
	for _, id := range models.AllPageIDs() {
		b, err := contentFS.ReadFile(path.Join("content", id+".json"))
		if err != nil {
			continue // reported by Verify
		}
		t[id] = b
	}
	return t
}

// IsValidPageID reports whether pageID names a page with default content.
func IsValidPageID(pageID string) bool {
	_, ok := table[pageID]
	return ok
}

// PageIDs returns the valid page identifiers in sorted order.
func PageIDs() []string {
	ids := make([]string, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Content returns a freshly decoded copy of the default payload for pageID.
// Callers own the returned value and may modify it.
func Content(pageID string) (any, bool) {
	b, ok := table[pageID]
	if !ok {
		return nil, false
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, false
	}
	return v, true
}

// Verify checks that every known page id has a default payload that decodes
// to a JSON object. It is run once at startup.
func Verify() error {
	for _, id := range models.AllPageIDs() {
		b, ok := table[id]
		if !ok {
			return fmt.Errorf("defaults: no default content for page %q", id)
		}
		var obj map[string]any
		if err := json.Unmarshal(b, &obj); err != nil {
			return fmt.Errorf("defaults: page %q: %w", id, err)
		}
	}
	return nil
}
