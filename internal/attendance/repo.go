package attendance

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists records in the "attendance" collection.
type Repository struct {
	col *mongo.Collection
}

// NewRepository creates a repo on the given database.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{col: db.Collection("attendance")}
}

type recordDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Date      string             `bson:"date"`
	Title     string             `bson:"title"`
	Students  []Entry            `bson:"students"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d recordDoc) toRecord() Record {
	return Record{
		ID:        d.ID.Hex(),
		Date:      d.Date,
		Title:     d.Title,
		Students:  d.Students,
		CreatedAt: d.CreatedAt,
	}
}

// Insert appends one record and returns it with the assigned id.
func (r *Repository) Insert(ctx context.Context, rec Record) (Record, error) {
	res, err := r.col.InsertOne(ctx, recordDoc{
		Date:      rec.Date,
		Title:     rec.Title,
		Students:  rec.Students,
		CreatedAt: rec.CreatedAt,
	})
	if err != nil {
		return Record{}, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		rec.ID = oid.Hex()
	}
	return rec, nil
}

// List returns all records ordered by creation time, newest first.
func (r *Repository) List(ctx context.Context) ([]Record, error) {
	cur, err := r.col.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Record
	for cur.Next(ctx) {
		var doc recordDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toRecord())
	}
	return out, cur.Err()
}

// Delete removes a record by hex id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
