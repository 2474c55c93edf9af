package service

import (
	"context"
	"errors"
	"testing"

	"github.com/annazecevic/album-service/domain"
	"github.com/annazecevic/album-service/repository"
	"go.mongodb.org/mongo-driver/mongo"
)

type mockRepo struct {
	FindAllResp  []*domain.Album
	FindAllErr   error
	FindByIDResp *domain.Album
	FindByIDErr  error
	InsertErr    error
	SaveErr      error
	DeleteErr    error
	PingErr      error

	Saved     *domain.Album
	DeletedID string
}

func (m *mockRepo) FindAll(ctx context.Context) ([]*domain.Album, error) {
	return m.FindAllResp, m.FindAllErr
}

func (m *mockRepo) FindByID(ctx context.Context, id string) (*domain.Album, error) {
	if m.FindByIDErr != nil {
		return nil, m.FindByIDErr
	}
	if m.FindByIDResp != nil {
		a := *m.FindByIDResp
		return &a, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (m *mockRepo) Insert(ctx context.Context, a *domain.Album) error {
	if m.InsertErr != nil {
		return m.InsertErr
	}
	a.ID = "65f000000000000000000001"
	return nil
}

func (m *mockRepo) Save(ctx context.Context, a *domain.Album) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Saved = a
	return nil
}

func (m *mockRepo) DeleteByID(ctx context.Context, id string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.DeletedID = id
	return nil
}

func (m *mockRepo) Ping(ctx context.Context) error { return m.PingErr }

var fields1978 = domain.AlbumFields{Title: "title1", Band: "band1", Genre: "genre1", Year: 1978}

func duplicateKeyErr() error {
	return mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}}}
}

func TestListAlbumsEmptyIsNotNil(t *testing.T) {
	svc := NewAlbumService(&mockRepo{})

	got, err := svc.ListAlbums(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestListAlbumsStoreFailure(t *testing.T) {
	svc := NewAlbumService(&mockRepo{FindAllErr: errors.New("connection refused")})

	_, err := svc.ListAlbums(context.Background())
	if KindOf(err) != KindUnavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestGetAlbumNotFound(t *testing.T) {
	svc := NewAlbumService(&mockRepo{})

	_, err := svc.GetAlbum(context.Background(), "65f000000000000000000009")
	if KindOf(err) != KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestGetAlbumMalformedIDIsNotFound(t *testing.T) {
	svc := NewAlbumService(&mockRepo{FindByIDErr: repository.ErrInvalidID})

	_, err := svc.GetAlbum(context.Background(), "123abc")
	if KindOf(err) != KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestCreateAlbumAssignsID(t *testing.T) {
	svc := NewAlbumService(&mockRepo{})

	got, err := svc.CreateAlbum(context.Background(), fields1978)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID == "" {
		t.Fatalf("expected an id to be assigned")
	}
	if got.Fields() != fields1978 {
		t.Fatalf("expected fields %+v, got %+v", fields1978, got.Fields())
	}
}

func TestCreateAlbumDuplicateTitleIsConflict(t *testing.T) {
	svc := NewAlbumService(&mockRepo{InsertErr: duplicateKeyErr()})

	_, err := svc.CreateAlbum(context.Background(), fields1978)
	if KindOf(err) != KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateAlbumValidationIsInvalid(t *testing.T) {
	svc := NewAlbumService(&mockRepo{InsertErr: &domain.ValidationError{Field: "band", Reason: "is required"}})

	_, err := svc.CreateAlbum(context.Background(), domain.AlbumFields{Title: "t"})
	var se *Error
	if !errors.As(err, &se) || se.Kind != KindInvalid {
		t.Fatalf("expected invalid, got %v", err)
	}
	if se.Detail != "band is required" {
		t.Fatalf("unexpected detail %q", se.Detail)
	}
}

func TestUpdateAlbumOverwritesAllFields(t *testing.T) {
	existing := &domain.Album{ID: "65f000000000000000000001", Title: "old", Band: "old", Genre: "old", Year: 1}
	repo := &mockRepo{FindByIDResp: existing}
	svc := NewAlbumService(repo)

	want := domain.AlbumFields{Title: "title1", Band: "band1", Genre: "genre1", Year: 2018}
	if err := svc.UpdateAlbum(context.Background(), existing.ID, want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.Saved == nil {
		t.Fatalf("expected album to be saved")
	}
	if repo.Saved.ID != existing.ID || repo.Saved.Fields() != want {
		t.Fatalf("expected %+v saved under %s, got %+v", want, existing.ID, repo.Saved)
	}
}

func TestUpdateAlbumMissingDoesNotSave(t *testing.T) {
	repo := &mockRepo{}
	svc := NewAlbumService(repo)

	err := svc.UpdateAlbum(context.Background(), "65f000000000000000000009", fields1978)
	if KindOf(err) != KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
	if repo.Saved != nil {
		t.Fatalf("expected no save for a missing album")
	}
}

func TestUpdateAlbumTitleCollisionIsConflict(t *testing.T) {
	repo := &mockRepo{FindByIDResp: &domain.Album{ID: "65f000000000000000000001"}, SaveErr: duplicateKeyErr()}
	svc := NewAlbumService(repo)

	err := svc.UpdateAlbum(context.Background(), "65f000000000000000000001", fields1978)
	if KindOf(err) != KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestDeleteAlbumMissingDoesNotDelete(t *testing.T) {
	repo := &mockRepo{}
	svc := NewAlbumService(repo)

	err := svc.DeleteAlbum(context.Background(), "65f000000000000000000009")
	if KindOf(err) != KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
	if repo.DeletedID != "" {
		t.Fatalf("expected no delete for a missing album")
	}
}

func TestDeleteAlbumRemovesByID(t *testing.T) {
	repo := &mockRepo{FindByIDResp: &domain.Album{ID: "65f000000000000000000001"}}
	svc := NewAlbumService(repo)

	if err := svc.DeleteAlbum(context.Background(), "65f000000000000000000001"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.DeletedID != "65f000000000000000000001" {
		t.Fatalf("expected delete of the looked-up id, got %q", repo.DeletedID)
	}
}

func TestDeleteAlbumRaceReportsNotFound(t *testing.T) {
	repo := &mockRepo{FindByIDResp: &domain.Album{ID: "65f000000000000000000001"}, DeleteErr: mongo.ErrNoDocuments}
	svc := NewAlbumService(repo)

	err := svc.DeleteAlbum(context.Background(), "65f000000000000000000001")
	if KindOf(err) != KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestHealthyReportsPingFailure(t *testing.T) {
	svc := NewAlbumService(&mockRepo{PingErr: context.DeadlineExceeded})

	if KindOf(svc.Healthy(context.Background())) != KindUnavailable {
		t.Fatalf("expected unavailable")
	}
}

func TestKindOfForeignError(t *testing.T) {
	if KindOf(errors.New("boom")) != KindUnavailable {
		t.Fatalf("expected foreign errors to be unavailable")
	}
}
