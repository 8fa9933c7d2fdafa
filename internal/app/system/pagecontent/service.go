// Package pagecontent implements the page content settings service: reading
// editable page copy with default fallback, and versioned, editor-gated writes
// into the single settings document.
//
// Reads never fail for a known page id. When the store is missing, empty, or
// erroring, the compiled-in default for the page is returned instead.
//
// Writes replace one page's payload wholesale, stamp the editor and time, and
// bump the document version by one. Writers are not coordinated: two
// concurrent writes may both start from the same version and the last one to
// save wins.
package pagecontent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/stratacontent/internal/app/system/metrics"
	"github.com/dalemusser/stratacontent/internal/domain/defaults"
	"github.com/dalemusser/stratacontent/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repository persists the single page content settings document.
type Repository interface {
	// Load returns the document, or nil and no error if it does not exist yet.
	Load(ctx context.Context) (*models.PageContentSettings, error)
	// Save replaces the whole document in one write.
	Save(ctx context.Context, settings *models.PageContentSettings) error
}

// Cache holds a copy of the settings document in front of the Repository.
type Cache interface {
	Get(ctx context.Context) (*models.PageContentSettings, bool, error)
	// Set must keep an already cached document with a higher version.
	Set(ctx context.Context, settings *models.PageContentSettings) error
}

// RevisionLog records page payloads after each successful write.
type RevisionLog interface {
	Record(ctx context.Context, rev models.ContentRevision) error
	// List returns up to limit revisions for pageID, newest first.
	List(ctx context.Context, pageID string, limit int) ([]models.ContentRevision, error)
}

// Sanitizer rewrites a payload before it is persisted.
type Sanitizer func(content any) any

// DefaultHistoryLimit caps History results when Options.HistoryLimit is unset.
const DefaultHistoryLimit = 50

// Options configures a Service. Only Policy is needed for writes to succeed;
// a nil Repository means the store is not configured.
type Options struct {
	Repository   Repository
	Cache        Cache
	Revisions    RevisionLog
	Policy       EditorPolicy
	Sanitize     Sanitizer
	HistoryLimit int
	Now          func() time.Time
}

// Service serves and updates editable page content.
type Service struct {
	repo         Repository
	cache        Cache
	revisions    RevisionLog
	policy       EditorPolicy
	sanitize     Sanitizer
	historyLimit int
	now          func() time.Time
	logger       *zap.Logger
}

// New creates a Service.
func New(opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	limit := opts.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &Service{
		repo:         opts.Repository,
		cache:        opts.Cache,
		revisions:    opts.Revisions,
		policy:       opts.Policy,
		sanitize:     opts.Sanitize,
		historyLimit: limit,
		now:          now,
		logger:       logger,
	}
}

// ReadResult is the content served for one page.
type ReadResult struct {
	PageID  string
	Content any

	// IsDefault is true when Content is the compiled-in default.
	IsDefault bool
	// Degraded is true when the default was served because the store was
	// not configured or the read failed.
	Degraded bool

	// Audit fields, set only when Content came from the store.
	LastUpdatedBy string
	LastUpdatedAt time.Time
	Version       int64
}

// WriteResult reports the document state after a successful write.
type WriteResult struct {
	LastUpdatedBy string
	LastUpdatedAt time.Time
	Version       int64
}

// Get returns the best available content for pageID. The only error is
// ErrInvalidPageID; store problems yield a Degraded default instead.
func (s *Service) Get(ctx context.Context, pageID string) (ReadResult, error) {
	if !defaults.IsValidPageID(pageID) {
		return ReadResult{}, ErrInvalidPageID
	}

	if s.repo == nil {
		s.logger.Debug("content store not configured, serving default",
			zap.String("page_id", pageID))
		return s.fallback(pageID, true), nil
	}

	doc, err := s.load(ctx)
	if err != nil {
		s.logger.Warn("content read failed, serving default",
			zap.String("page_id", pageID),
			zap.Error(err))
		return s.fallback(pageID, true), nil
	}

	content, ok := doc.Page(pageID)
	if !ok {
		return s.fallback(pageID, false), nil
	}

	metrics.ContentReads.WithLabelValues(pageID, metrics.SourceStored).Inc()
	metrics.ContentVersion.Set(float64(doc.Version))
	return ReadResult{
		PageID:        pageID,
		Content:       content,
		LastUpdatedBy: doc.LastUpdatedBy,
		LastUpdatedAt: doc.LastUpdatedAt,
		Version:       doc.Version,
	}, nil
}

// fallback builds a default-content result for a page id known to be valid.
func (s *Service) fallback(pageID string, degraded bool) ReadResult {
	source := metrics.SourceDefault
	if degraded {
		source = metrics.SourceFallback
	}
	metrics.ContentReads.WithLabelValues(pageID, source).Inc()

	content, _ := defaults.Content(pageID)
	return ReadResult{
		PageID:    pageID,
		Content:   content,
		IsDefault: true,
		Degraded:  degraded,
	}
}

// load reads the document through the cache when one is configured.
// A nil document with nil error means nothing has been written yet.
func (s *Service) load(ctx context.Context) (*models.PageContentSettings, error) {
	if s.cache != nil {
		doc, ok, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			metrics.CacheLookups.WithLabelValues("error").Inc()
			s.logger.Warn("content cache read failed", zap.Error(err))
		case ok:
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return doc, nil
		default:
			metrics.CacheLookups.WithLabelValues("miss").Inc()
		}
	}

	doc, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	if doc != nil {
		s.fillCache(ctx, doc)
	}
	return doc, nil
}

func (s *Service) fillCache(ctx context.Context, doc *models.PageContentSettings) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, doc); err != nil {
		s.logger.Warn("content cache write failed",
			zap.Int64("version", doc.Version),
			zap.Error(err))
	}
}

// WarmCache copies the stored document into the cache. It does nothing when
// either the store or the cache is not configured, or nothing is stored yet.
func (s *Service) WarmCache(ctx context.Context) error {
	if s.repo == nil || s.cache == nil {
		return nil
	}
	doc, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load page content: %w", err)
	}
	if doc == nil {
		return nil
	}
	if err := s.cache.Set(ctx, doc); err != nil {
		return fmt.Errorf("warm content cache: %w", err)
	}
	metrics.ContentVersion.Set(float64(doc.Version))
	return nil
}

// Update stores content as the payload for pageID on behalf of editor.
//
// Checks run in order: page id, content presence, editor authorization, store
// availability. The current document is then read (or started empty), the
// page's payload replaced, the audit fields stamped, and the whole document
// saved in one write.
func (s *Service) Update(ctx context.Context, pageID string, content any, editor *Principal) (WriteResult, error) {
	if !defaults.IsValidPageID(pageID) {
		return WriteResult{}, ErrInvalidPageID
	}
	if isEmptyContent(content) {
		metrics.ContentWrites.WithLabelValues(pageID, metrics.ResultInvalid).Inc()
		return WriteResult{}, ErrInvalidContent
	}
	if !s.authorized(editor) {
		metrics.ContentWrites.WithLabelValues(pageID, metrics.ResultUnauthorized).Inc()
		email := ""
		if editor != nil {
			email = editor.Email
		}
		s.logger.Warn("content write rejected: not an authorized editor",
			zap.String("page_id", pageID),
			zap.String("editor", email))
		return WriteResult{}, ErrUnauthorized
	}
	if s.repo == nil {
		metrics.ContentWrites.WithLabelValues(pageID, metrics.ResultError).Inc()
		return WriteResult{}, ErrStoreUnavailable
	}

	current, err := s.repo.Load(ctx)
	if err != nil {
		metrics.ContentWrites.WithLabelValues(pageID, metrics.ResultError).Inc()
		return WriteResult{}, fmt.Errorf("load page content: %w", err)
	}
	if current == nil {
		current = models.NewPageContentSettings()
	}

	if s.sanitize != nil {
		content = s.sanitize(content)
	}

	next := current.Clone()
	next.ID = models.PageContentDocumentID
	next.Pages[pageID] = content
	next.LastUpdatedBy = editor.Email
	next.LastUpdatedAt = s.now().UTC().Truncate(time.Millisecond) // BSON dates hold milliseconds
	next.Version = current.Version + 1

	if err := s.repo.Save(ctx, next); err != nil {
		metrics.ContentWrites.WithLabelValues(pageID, metrics.ResultError).Inc()
		s.logger.Error("failed to save page content",
			zap.String("page_id", pageID),
			zap.String("editor", editor.Email),
			zap.Error(err))
		return WriteResult{}, fmt.Errorf("save page content: %w", err)
	}

	metrics.ContentWrites.WithLabelValues(pageID, metrics.ResultSuccess).Inc()
	metrics.ContentVersion.Set(float64(next.Version))
	s.logger.Info("page content updated",
		zap.String("page_id", pageID),
		zap.String("editor", next.LastUpdatedBy),
		zap.Int64("version", next.Version))

	s.fillCache(ctx, next)
	s.recordRevision(ctx, pageID, next)

	return WriteResult{
		LastUpdatedBy: next.LastUpdatedBy,
		LastUpdatedAt: next.LastUpdatedAt,
		Version:       next.Version,
	}, nil
}

func (s *Service) recordRevision(ctx context.Context, pageID string, doc *models.PageContentSettings) {
	if s.revisions == nil {
		return
	}
	rev := models.ContentRevision{
		ID:       uuid.NewString(),
		PageID:   pageID,
		Version:  doc.Version,
		Content:  doc.Pages[pageID],
		EditedBy: doc.LastUpdatedBy,
		EditedAt: doc.LastUpdatedAt,
	}
	if err := s.revisions.Record(ctx, rev); err != nil {
		s.logger.Warn("failed to record content revision",
			zap.String("page_id", pageID),
			zap.Int64("version", doc.Version),
			zap.Error(err))
	}
}

// History returns up to limit past revisions of pageID, newest first.
// Only authorized editors may read history. A limit outside
// (0, HistoryLimit] is clamped to HistoryLimit.
func (s *Service) History(ctx context.Context, pageID string, editor *Principal, limit int) ([]models.ContentRevision, error) {
	if !defaults.IsValidPageID(pageID) {
		return nil, ErrInvalidPageID
	}
	if !s.authorized(editor) {
		return nil, ErrUnauthorized
	}
	if s.revisions == nil {
		return nil, ErrStoreUnavailable
	}
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}
	revs, err := s.revisions.List(ctx, pageID, limit)
	if err != nil {
		return nil, fmt.Errorf("list content revisions: %w", err)
	}
	return revs, nil
}

func (s *Service) authorized(editor *Principal) bool {
	if editor == nil || s.policy == nil {
		return false
	}
	return s.policy.IsAuthorizedEditor(*editor)
}

// isEmptyContent reports whether a write payload is missing. Empty objects
// and arrays count as content; null and blank strings do not.
func isEmptyContent(content any) bool {
	switch v := content.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	}
	return false
}
