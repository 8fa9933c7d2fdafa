package pagecontent

import (
	"context"
	"sort"
	"sync"

	"github.com/dalemusser/stratacontent/internal/domain/models"
)

// MemoryRepository keeps the settings document in process memory.
// Load and Save hand out copies so callers never share the stored pages map.
type MemoryRepository struct {
	mu  sync.RWMutex
	doc *models.PageContentSettings
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Load returns a copy of the stored document, or nil if none was saved.
func (m *MemoryRepository) Load(ctx context.Context) (*models.PageContentSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.doc.Clone(), nil
}

// Save replaces the stored document.
func (m *MemoryRepository) Save(ctx context.Context, settings *models.PageContentSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = settings.Clone()
	return nil
}

// MemoryRevisionLog keeps content revisions in process memory.
type MemoryRevisionLog struct {
	mu   sync.Mutex
	revs []models.ContentRevision
}

// NewMemoryRevisionLog returns an empty revision log.
func NewMemoryRevisionLog() *MemoryRevisionLog {
	return &MemoryRevisionLog{}
}

// Record appends rev.
func (l *MemoryRevisionLog) Record(ctx context.Context, rev models.ContentRevision) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.revs = append(l.revs, rev)
	return nil
}

// List returns up to limit revisions for pageID, newest first.
func (l *MemoryRevisionLog) List(ctx context.Context, pageID string, limit int) ([]models.ContentRevision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []models.ContentRevision
	for _, rev := range l.revs {
		if rev.PageID == pageID {
			out = append(out, rev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Version > out[j].Version
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
