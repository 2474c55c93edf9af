package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annazecevic/album-service/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ErrInvalidID is returned for identifiers that cannot be an ObjectID.
var ErrInvalidID = errors.New("invalid album id")

// AlbumRepository is the persistence contract for albums. Lookups of a
// missing record return mongo.ErrNoDocuments, and a second record with an
// existing title fails with a duplicate key error, whatever the backend.
type AlbumRepository interface {
	FindAll(ctx context.Context) ([]*domain.Album, error)
	FindByID(ctx context.Context, id string) (*domain.Album, error)
	Insert(ctx context.Context, a *domain.Album) error
	Save(ctx context.Context, a *domain.Album) error
	DeleteByID(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

type albumDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	domain.Album `bson:",inline"`
}

func (d *albumDocument) toDomain() *domain.Album {
	a := d.Album
	a.ID = d.ID.Hex()
	return &a
}

type mongoAlbumRepository struct {
	col     *mongo.Collection
	timeout time.Duration
}

func NewMongoAlbumRepository(ctx context.Context, db *mongo.Database, collection string, timeout time.Duration) (AlbumRepository, error) {
	col := db.Collection(collection)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "title", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("create title index on %s: %w", collection, err)
	}

	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &mongoAlbumRepository{col: col, timeout: timeout}, nil
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return oid, nil
}

func (r *mongoAlbumRepository) FindAll(ctx context.Context) ([]*domain.Album, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*r.timeout)
	defer cancel()
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*domain.Album{}
	for cur.Next(ctx) {
		var doc albumDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoAlbumRepository) FindByID(ctx context.Context, id string) (*domain.Album, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var doc albumDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *mongoAlbumRepository) Insert(ctx context.Context, a *domain.Album) error {
	if err := a.Validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	doc := albumDocument{ID: primitive.NewObjectID(), Album: *a}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return err
	}
	a.ID = doc.ID.Hex()
	return nil
}

func (r *mongoAlbumRepository) Save(ctx context.Context, a *domain.Album) error {
	oid, err := parseID(a.ID)
	if err != nil {
		return err
	}
	if err := a.Validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	update := bson.M{
		"$set": bson.M{
			"title": a.Title,
			"band":  a.Band,
			"genre": a.Genre,
			"year":  a.Year,
		},
	}
	result, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *mongoAlbumRepository) DeleteByID(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	result, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *mongoAlbumRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.col.Database().Client().Ping(ctx, readpref.Primary())
}
