// internal/app/store/revisions/revisionstore.go
package revisionstore

import (
	"context"
	"reflect"

	"github.com/dalemusser/stratacontent/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection for page content revisions.
const CollectionName = "page_content_revisions"

// Store manages page content revision records.
type Store struct {
	c *mongo.Collection
}

// New creates a new revision Store.
func New(db *mongo.Database) *Store {
	// Decode payload sub-documents as bson.M so they encode back to JSON objects.
	reg := bson.NewRegistry()
	reg.RegisterTypeMapEntry(bsontype.EmbeddedDocument, reflect.TypeOf(bson.M{}))

	return &Store{c: db.Collection(CollectionName, options.Collection().SetRegistry(reg))}
}

// Record inserts a revision.
func (s *Store) Record(ctx context.Context, rev models.ContentRevision) error {
	_, err := s.c.InsertOne(ctx, rev)
	return err
}

// List returns up to limit revisions for pageID, newest first.
func (s *Store) List(ctx context.Context, pageID string, limit int) ([]models.ContentRevision, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "version", Value: -1}, {Key: "edited_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := s.c.Find(ctx, bson.M{"page_id": pageID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	revs := []models.ContentRevision{}
	if err := cur.All(ctx, &revs); err != nil {
		return nil, err
	}
	return revs, nil
}
