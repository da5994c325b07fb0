package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"freelanceflow/internal/models"
)

// InsertOne inserts a document that embeds models.Base, assigning a fresh ID
// when none is set. ID collisions (duplicate _id) are retried with a new ID.
func InsertOne(ctx context.Context, collection *mongo.Collection, doc models.IBase) (models.IBase, error) {
	operation := func() error {
		doc.GenIDIfEmpty()
		_, err := collection.InsertOne(ctx, doc)
		if err != nil && IsMongoDuplicateKeyError(err) {
			// Force a fresh ID for the next attempt
			doc.GenID()
		}
		return err
	}

	if err := Try(operation); err != nil {
		return nil, fmt.Errorf("failed to insert document into %s: %w", collection.Name(), err)
	}
	return doc, nil
}
