// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// Created in ConnectDB and passed to EnsureSchema, Startup, BuildHandler and
// Shutdown. Both backends are optional; a nil field means not configured.
type DBDeps struct {
	// MongoDB client and database (settings + revision history)
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Redis client for the content cache
	Redis *redis.Client
}
