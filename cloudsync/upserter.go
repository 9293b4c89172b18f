package cloudsync

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// bulkWriter is the slice of *mongo.Collection the upserter needs.
type bulkWriter interface {
	BulkWrite(ctx context.Context, models []mongo.WriteModel, opts ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error)
}

// CloudStore resolves remote collections by name.
type CloudStore interface {
	Collection(name string) bulkWriter
}

type mongoStore struct {
	db *mongo.Database
}

// NewCloudStore wraps a Mongo database handle.
func NewCloudStore(db *mongo.Database) CloudStore {
	return mongoStore{db: db}
}

func (m mongoStore) Collection(name string) bulkWriter {
	return m.db.Collection(name)
}

// upsertDocuments pushes mapped documents in one unordered bulk write. Each
// document is addressed by (local_id, company_id); replays overwrite fields,
// they never append. One row's failure does not block its siblings. Returns
// the created-or-modified count; only a total batch failure returns an error.
func upsertDocuments(ctx context.Context, coll bulkWriter, docs []Document, companyID string) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	syncedAt := primitive.NewDateTimeFromTime(time.Now())
	writes := make([]mongo.WriteModel, 0, len(docs))
	for _, doc := range docs {
		fields := bson.M{}
		for k, v := range doc.Fields {
			fields[k] = v
		}
		fields["local_id"] = int64(doc.LocalId)
		fields["company_id"] = companyID
		fields["synced_at"] = syncedAt

		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"local_id": int64(doc.LocalId), "company_id": companyID}).
			SetUpdate(bson.M{"$set": fields}).
			SetUpsert(true))
	}

	res, err := coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		// An unordered bulk can partially succeed; keep the achieved count
		// when at least one write went through. A bulk where every write
		// failed is a failure, so drained entries keep their retry budget.
		var bwe mongo.BulkWriteException
		if errors.As(err, &bwe) && res != nil && len(bwe.WriteErrors) < len(writes) {
			return int(res.UpsertedCount + res.ModifiedCount), nil
		}
		return 0, err
	}
	return int(res.UpsertedCount + res.ModifiedCount), nil
}
