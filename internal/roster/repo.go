package roster

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists students in the "students" collection.
type Repository struct {
	col *mongo.Collection
}

// NewRepository creates a repo on the given database.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{col: db.Collection("students")}
}

// studentDoc is the persisted shape. Older documents carry a single `group`
// tag where newer ones carry `groups`; both decode here and are folded into
// one canonical Student before leaving the repository.
type studentDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	NameLower string             `bson:"nameLower,omitempty"`
	Groups    []string           `bson:"groups,omitempty"`
	Group     string             `bson:"group,omitempty"`
}

func (d studentDoc) toStudent() Student {
	s := Student{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		NameLower: d.NameLower,
		Groups:    d.Groups,
	}
	if len(s.Groups) == 0 && d.Group != "" {
		s.Groups = []string{d.Group}
	}
	s.Normalize()
	return s
}

// Insert writes a new student and returns it with the assigned id.
func (r *Repository) Insert(ctx context.Context, s Student) (Student, error) {
	res, err := r.col.InsertOne(ctx, studentDoc{
		Name:      s.Name,
		NameLower: s.NameLower,
		Groups:    s.Groups,
	})
	if err != nil {
		return Student{}, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		s.ID = oid.Hex()
	}
	s.Normalize()
	return s, nil
}

// Delete removes a student by hex id.
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

// List returns all students ordered by case-folded name.
func (r *Repository) List(ctx context.Context) ([]Student, error) {
	cur, err := r.col.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "nameLower", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Student
	for cur.Next(ctx) {
		var doc studentDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toStudent())
	}
	return out, cur.Err()
}

// FindByNameLower returns the first student with the given case-folded name,
// or nil when none exists.
func (r *Repository) FindByNameLower(ctx context.Context, nameLower string) (*Student, error) {
	var doc studentDoc
	err := r.col.FindOne(ctx, bson.M{"nameLower": nameLower}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s := doc.toStudent()
	return &s, nil
}
