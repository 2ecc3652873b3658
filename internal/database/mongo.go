package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"fishtank-aas/internal/aas"
)

// MongoDB stores the shell as one whole document. There is no partial update:
// the document is read whole and replaced whole.
type MongoDB struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *slog.Logger
}

// MongoConfig holds MongoDB connection settings
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// NewMongoDB connects to MongoDB and verifies the connection
func NewMongoDB(ctx context.Context, cfg MongoConfig, logger *slog.Logger) (*MongoDB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info("Connected to MongoDB",
		slog.String("database", cfg.Database),
		slog.String("collection", cfg.Collection))

	db := NewMongoDBFromCollection(client.Database(cfg.Database).Collection(cfg.Collection), logger)
	db.client = client
	return db, nil
}

// NewMongoDBFromCollection wraps an existing collection handle
func NewMongoDBFromCollection(coll *mongo.Collection, logger *slog.Logger) *MongoDB {
	return &MongoDB{coll: coll, logger: logger}
}

// FindShell returns the stored shell. A store without a shell yields an error
// wrapping aas.ErrNotFound.
func (db *MongoDB) FindShell(ctx context.Context) (*aas.Shell, error) {
	var shell aas.Shell
	err := db.coll.FindOne(ctx, bson.D{}).Decode(&shell)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("shell: %w", aas.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read shell: %w", err)
	}
	return &shell, nil
}

// SaveShell replaces the document whose id matches shell.ID, inserting it when
// none exists. It reports whether a new document was created. The collection
// holds a single shell: documents with any other id are removed so FindShell
// always returns the one saved last.
func (db *MongoDB) SaveShell(ctx context.Context, shell *aas.Shell) (bool, error) {
	res, err := db.coll.ReplaceOne(ctx,
		bson.D{{Key: "id", Value: shell.ID}},
		shell,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("failed to save shell %q: %w", shell.ID, err)
	}

	stale, err := db.coll.DeleteMany(ctx, bson.D{{Key: "id", Value: bson.D{{Key: "$ne", Value: shell.ID}}}})
	if err != nil {
		return false, fmt.Errorf("failed to remove superseded shells: %w", err)
	}
	if stale.DeletedCount > 0 {
		db.logger.Info("Removed superseded shells",
			slog.String("id", shell.ID),
			slog.Int64("removed", stale.DeletedCount))
	}
	return res.UpsertedCount > 0, nil
}

// Close disconnects from MongoDB
func (db *MongoDB) Close(ctx context.Context) error {
	if db.client == nil {
		return nil
	}
	if err := db.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	db.logger.Info("MongoDB connection closed")
	return nil
}
