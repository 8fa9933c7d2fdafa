package models

import (
	"time"
)

// PageContentCollection and PageContentDocumentID address the single settings
// document that holds editable copy for every marketing page.
const (
	PageContentCollection = "settings"
	PageContentDocumentID = "pageContent"
)

// Page identifiers for editable marketing pages.
const (
	PageIDHome             = "home"
	PageIDForClients       = "forClients"
	PageIDForProfessionals = "forProfessionals"
	PageIDAbout            = "about"
	PageIDFAQs             = "faqs"
)

// AllPageIDs returns all page identifiers that may carry editable content.
func AllPageIDs() []string {
	return []string{
		PageIDHome,
		PageIDForClients,
		PageIDForProfessionals,
		PageIDAbout,
		PageIDFAQs,
	}
}

// PageContentSettings is the singleton document holding editable page copy.
//
// Pages maps a page identifier to its payload. Payloads are JSON-compatible
// trees (maps, slices, strings, numbers, bools, nil) whose shape depends on
// the page; the store reads and writes them whole.
type PageContentSettings struct {
	ID    string         `bson:"_id" json:"-"`
	Pages map[string]any `bson:"pages" json:"pages"`

	// Audit fields
	LastUpdatedBy string    `bson:"lastUpdatedBy,omitempty" json:"lastUpdatedBy,omitempty"` // editor email
	LastUpdatedAt time.Time `bson:"lastUpdatedAt,omitempty" json:"lastUpdatedAt,omitempty"`
	Version       int64     `bson:"version" json:"version"` // +1 per successful write
}

// NewPageContentSettings returns the empty document used before the first write.
func NewPageContentSettings() *PageContentSettings {
	return &PageContentSettings{
		ID:    PageContentDocumentID,
		Pages: map[string]any{},
	}
}

// Page returns the stored payload for pageID and whether one exists.
func (s *PageContentSettings) Page(pageID string) (any, bool) {
	if s == nil || s.Pages == nil {
		return nil, false
	}
	v, ok := s.Pages[pageID]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Clone returns a copy with its own pages map. Payload values are shared;
// they are replaced wholesale on write, never edited in place.
func (s *PageContentSettings) Clone() *PageContentSettings {
	if s == nil {
		return nil
	}
	c := *s
	c.Pages = make(map[string]any, len(s.Pages))
	for k, v := range s.Pages {
		c.Pages[k] = v
	}
	return &c
}
