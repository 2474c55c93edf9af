package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/annazecevic/album-service/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const duplicateKeyCode = 11000

// memoryAlbumRepository keeps albums in process memory. It reports the same
// driver errors as the MongoDB repository so callers cannot tell them apart.
// Records are keyed by the canonical lowercase hex of their ObjectID.
type memoryAlbumRepository struct {
	mu     sync.RWMutex
	albums map[string]domain.Album
	order  []string
}

func NewMemoryAlbumRepository() AlbumRepository {
	return &memoryAlbumRepository{albums: make(map[string]domain.Album)}
}

func (r *memoryAlbumRepository) FindAll(ctx context.Context) ([]*domain.Album, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Album, 0, len(r.order))
	for _, id := range r.order {
		a := r.albums[id]
		out = append(out, &a)
	}
	return out, nil
}

func (r *memoryAlbumRepository) FindByID(ctx context.Context, id string) (*domain.Album, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.albums[oid.Hex()]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &a, nil
}

func (r *memoryAlbumRepository) Insert(ctx context.Context, a *domain.Album) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkTitle(a.Title, ""); err != nil {
		return err
	}
	id := primitive.NewObjectID().Hex()
	stored := *a
	stored.ID = id
	r.albums[id] = stored
	r.order = append(r.order, id)
	a.ID = id
	return nil
}

func (r *memoryAlbumRepository) Save(ctx context.Context, a *domain.Album) error {
	oid, err := parseID(a.ID)
	if err != nil {
		return err
	}
	if err := a.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	key := oid.Hex()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.albums[key]; !ok {
		return mongo.ErrNoDocuments
	}
	if err := r.checkTitle(a.Title, key); err != nil {
		return err
	}
	stored := *a
	stored.ID = key
	r.albums[key] = stored
	return nil
}

func (r *memoryAlbumRepository) DeleteByID(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	key := oid.Hex()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.albums[key]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(r.albums, key)
	for i, v := range r.order {
		if v == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memoryAlbumRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// checkTitle must be called with the write lock held.
func (r *memoryAlbumRepository) checkTitle(title, selfID string) error {
	for id, a := range r.albums {
		if id != selfID && a.Title == title {
			return mongo.WriteException{
				WriteErrors: mongo.WriteErrors{{
					Code:    duplicateKeyCode,
					Message: fmt.Sprintf("E11000 duplicate key error index: title_1 dup key: { title: %q }", title),
				}},
			}
		}
	}
	return nil
}
