package dto

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/annazecevic/album-service/domain"
)

// AlbumRequest is the body of POST /albums and PUT /albums/:id. Fields are
// pointers so that a missing key can be told apart from a zero value. Year
// takes a number or a numeric string, as long as it is integral.
type AlbumRequest struct {
	Title *string      `json:"title"`
	Band  *string      `json:"band"`
	Genre *string      `json:"genre"`
	Year  *json.Number `json:"year"`
}

func (r *AlbumRequest) Fields() (domain.AlbumFields, error) {
	var f domain.AlbumFields
	switch {
	case r.Title == nil:
		return f, missing("title")
	case r.Band == nil:
		return f, missing("band")
	case r.Genre == nil:
		return f, missing("genre")
	case r.Year == nil:
		return f, missing("year")
	}
	year, err := parseYear(*r.Year)
	if err != nil {
		return f, err
	}
	f.Title = *r.Title
	f.Band = *r.Band
	f.Genre = *r.Genre
	f.Year = year
	return f, nil
}

func parseYear(n json.Number) (int, error) {
	if v, err := strconv.Atoi(n.String()); err == nil {
		return v, nil
	}
	v, err := n.Float64()
	if err != nil || v != math.Trunc(v) || v > math.MaxInt32 || v < math.MinInt32 {
		return 0, &domain.ValidationError{Field: "year", Reason: "must be an integer"}
	}
	return int(v), nil
}

func missing(field string) error {
	return &domain.ValidationError{Field: field, Reason: "is required"}
}

type AlbumListResponse struct {
	Albums []*domain.Album `json:"albums"`
}

type AlbumResponse struct {
	Album *domain.Album `json:"album"`
}

type AlbumCreatedResponse struct {
	Message string        `json:"message"`
	Album   *domain.Album `json:"album"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorBody is the closed error shape carried under the "err" key.
type ErrorBody struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

type ErrorResponse struct {
	Err ErrorBody `json:"err"`
}
