// internal/app/store/pagecontent/pagecontentstore.go
package pagecontentstore

import (
	"context"
	"errors"
	"reflect"

	"github.com/dalemusser/stratacontent/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the page content settings document.
// There is exactly one such document: settings/pageContent.
type Store struct {
	c *mongo.Collection
}

// New creates a new page content store.
//
// Page payloads are opaque JSON trees, so the collection decodes embedded
// documents as bson.M (map[string]interface{}) rather than the driver's
// default bson.D. That keeps payloads JSON-encodable as objects.
func New(db *mongo.Database) *Store {
	reg := bson.NewRegistry()
	reg.RegisterTypeMapEntry(bsontype.EmbeddedDocument, reflect.TypeOf(bson.M{}))

	opts := options.Collection().SetRegistry(reg)
	return &Store{c: db.Collection(models.PageContentCollection, opts)}
}

// Load returns the settings document, or nil if it has not been written yet.
func (s *Store) Load(ctx context.Context) (*models.PageContentSettings, error) {
	var doc models.PageContentSettings
	err := s.c.FindOne(ctx, bson.M{"_id": models.PageContentDocumentID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if doc.Pages == nil {
		doc.Pages = map[string]any{}
	}
	return &doc, nil
}

// Save replaces the whole settings document, creating it on first write.
// A single-document replace is atomic in MongoDB.
func (s *Store) Save(ctx context.Context, settings *models.PageContentSettings) error {
	doc := *settings
	doc.ID = models.PageContentDocumentID
	if doc.Pages == nil {
		doc.Pages = map[string]any{}
	}

	opts := options.Replace().SetUpsert(true)
	_, err := s.c.ReplaceOne(ctx, bson.M{"_id": models.PageContentDocumentID}, doc, opts)
	return err
}

