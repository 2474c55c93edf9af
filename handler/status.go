package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/annazecevic/album-service/dto"
	"github.com/annazecevic/album-service/service"
	"github.com/gin-gonic/gin"
)

// StatusMode selects how failures are reported to clients.
type StatusMode string

const (
	// StatusStrict maps each failure kind onto its own HTTP status.
	StatusStrict StatusMode = "strict"
	// StatusLegacy answers 200 for every outcome except a successful create,
	// with the body shapes of the original music API.
	StatusLegacy StatusMode = "legacy"
)

func ParseStatusMode(s string) (StatusMode, error) {
	switch StatusMode(s) {
	case StatusStrict, StatusLegacy:
		return StatusMode(s), nil
	case "":
		return StatusStrict, nil
	}
	return "", fmt.Errorf("unknown status mode %q", s)
}

type operation int

const (
	opList operation = iota
	opGet
	opCreate
	opUpdate
	opRemove
)

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusServiceUnavailable
	}
}

func errorBody(err error) dto.ErrorResponse {
	var se *service.Error
	if !errors.As(err, &se) {
		se = &service.Error{Kind: service.KindUnavailable, Detail: "album store unavailable"}
	}
	return dto.ErrorResponse{Err: dto.ErrorBody{Kind: string(se.Kind), Detail: se.Detail}}
}

func (h *AlbumHandler) fail(c *gin.Context, op operation, err error) {
	kind := service.KindOf(err)
	if h.mode != StatusLegacy {
		c.JSON(statusFor(kind), errorBody(err))
		return
	}

	if kind == service.KindNotFound {
		switch op {
		case opGet:
			c.JSON(http.StatusOK, gin.H{"message": "Album not Found"})
			return
		case opUpdate:
			c.JSON(http.StatusOK, gin.H{"err": "Album not found"})
			return
		case opRemove:
			c.JSON(http.StatusOK, gin.H{"message": "Album not found"})
			return
		}
	}
	c.JSON(http.StatusOK, errorBody(err))
}
