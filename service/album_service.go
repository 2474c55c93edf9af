package service

import (
	"context"

	"github.com/annazecevic/album-service/domain"
	"github.com/annazecevic/album-service/logger"
	"github.com/annazecevic/album-service/repository"
)

type AlbumService interface {
	ListAlbums(ctx context.Context) ([]*domain.Album, error)
	GetAlbum(ctx context.Context, id string) (*domain.Album, error)
	CreateAlbum(ctx context.Context, f domain.AlbumFields) (*domain.Album, error)
	UpdateAlbum(ctx context.Context, id string, f domain.AlbumFields) error
	DeleteAlbum(ctx context.Context, id string) error
	Healthy(ctx context.Context) error
}

type albumService struct {
	repo repository.AlbumRepository
}

func NewAlbumService(repo repository.AlbumRepository) AlbumService {
	return &albumService{repo: repo}
}

func (s *albumService) ListAlbums(ctx context.Context) ([]*domain.Album, error) {
	albums, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, s.fail("list", "", err)
	}
	if albums == nil {
		albums = []*domain.Album{}
	}
	return albums, nil
}

func (s *albumService) GetAlbum(ctx context.Context, id string) (*domain.Album, error) {
	album, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail("get", id, err)
	}
	return album, nil
}

func (s *albumService) CreateAlbum(ctx context.Context, f domain.AlbumFields) (*domain.Album, error) {
	album := domain.NewAlbum(f)
	if err := s.repo.Insert(ctx, album); err != nil {
		return nil, s.fail("create", "", err)
	}
	return album, nil
}

// UpdateAlbum overwrites every field of an existing album. The read and the
// write are not atomic; concurrent updates to one album end with the last
// write.
func (s *albumService) UpdateAlbum(ctx context.Context, id string, f domain.AlbumFields) error {
	album, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.fail("update", id, err)
	}
	album.Apply(f)
	if err := s.repo.Save(ctx, album); err != nil {
		return s.fail("update", id, err)
	}
	return nil
}

func (s *albumService) DeleteAlbum(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return s.fail("delete", id, err)
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return s.fail("delete", id, err)
	}
	return nil
}

func (s *albumService) Healthy(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return s.fail("ping", "", err)
	}
	return nil
}

func (s *albumService) fail(op, id string, err error) error {
	se := classify(err)
	switch se.Kind {
	case KindUnavailable:
		logger.Error(logger.EventDBError, "Album store operation failed", logger.Fields(
			"operation", op,
			"album_id", id,
			"error", err.Error(),
		))
	case KindInvalid:
		logger.Warn(logger.EventValidationFailure, "Album rejected by store", logger.Fields(
			"operation", op,
			"album_id", id,
			"error", se.Detail,
		))
	}
	return se
}
