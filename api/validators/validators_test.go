package validators

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/propscout/propscout-backend/pkg/errors"
)

type ratingBody struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,max=10"`
	Type    string `json:"type" validate:"omitempty,oneof=SUBSCRIPTION VISIT"`
}

func decode(t *testing.T, body string) (ratingBody, error) {
	t.Helper()
	var dest ratingBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	return dest, DecodeJSONBody(req, &dest)
}

func details(t *testing.T, err error) map[string]string {
	t.Helper()
	var perr *pkgerrors.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, pkgerrors.CodeValidation, perr.Code())
	d, _ := perr.Details().(map[string]string)
	return d
}

func TestDecodeJSONBodyValid(t *testing.T) {
	got, err := decode(t, `{"rating":4,"comment":"tidy","type":"VISIT"}`)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Rating)
}

func TestDecodeJSONBodyReportsJSONFieldNames(t *testing.T) {
	_, err := decode(t, `{"rating":9,"comment":"far too long here","type":"CASH"}`)
	d := details(t, err)
	assert.Equal(t, "must be at most 5", d["rating"])
	assert.Equal(t, "must be at most 10 characters", d["comment"])
	assert.Equal(t, "must be one of: SUBSCRIPTION, VISIT", d["type"])
}

func TestDecodeJSONBodyRejectsMalformed(t *testing.T) {
	for name, body := range map[string]string{
		"empty":    ``,
		"unknown":  `{"rating":3,"extra":1}`,
		"trailing": `{"rating":3}{"rating":4}`,
		"syntax":   `{"rating":`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := decode(t, body)
			require.Error(t, err)
			var perr *pkgerrors.Error
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, pkgerrors.CodeValidation, perr.Code())
		})
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=30&offset=x&page=900", nil)

	n, err := ParseQueryInt(req, "limit", 20, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 30, n)

	n, err = ParseQueryInt(req, "missing", 20, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	_, err = ParseQueryInt(req, "offset", 0, 0, 100)
	assert.Error(t, err)
	_, err = ParseQueryInt(req, "page", 1, 1, 100)
	assert.Error(t, err)
}
