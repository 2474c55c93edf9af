package dto

import (
	"encoding/json"
	"testing"

	"github.com/annazecevic/album-service/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRequest(t *testing.T, body string) (domain.AlbumFields, error) {
	t.Helper()
	var req AlbumRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return req.Fields()
}

func TestYearAcceptsNumericForms(t *testing.T) {
	for _, year := range []string{`1978`, `1978.0`, `"1978"`, `1.978e3`} {
		f, err := decodeRequest(t, `{"title":"t","band":"b","genre":"g","year":`+year+`}`)
		require.NoError(t, err, year)
		assert.Equal(t, 1978, f.Year, year)
	}
}

func TestYearRejectsFractions(t *testing.T) {
	_, err := decodeRequest(t, `{"title":"t","band":"b","genre":"g","year":1978.5}`)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "year", ve.Field)
}

func TestMissingFieldsReported(t *testing.T) {
	_, err := decodeRequest(t, `{"title":"t","band":"b","year":1}`)
	assert.EqualError(t, err, "genre is required")

	_, err = decodeRequest(t, `{"title":"t","band":"b","genre":"g"}`)
	assert.EqualError(t, err, "year is required")
}
