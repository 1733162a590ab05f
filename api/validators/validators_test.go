package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/gamestore-backend/pkg/errors"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestDecodeJSONBody(t *testing.T) {
	var dst signup
	require.NoError(t, DecodeJSONBody(post(`{"email":"a@b.co","password":"longenough"}`), &dst))
	assert.Equal(t, "a@b.co", dst.Email)

	for name, body := range map[string]string{
		"unknown field": `{"email":"a@b.co","password":"longenough","admin":true}`,
		"trailing data": `{"email":"a@b.co","password":"longenough"} {}`,
		"not json":      `email=a@b.co`,
	} {
		err := DecodeJSONBody(post(body), &signup{})
		assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err), name)
	}
}

func TestDecodeJSONBodyReportsFieldsByJSONName(t *testing.T) {
	err := DecodeJSONBody(post(`{"email":"nope","password":"short"}`), &signup{})
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, map[string]string{
		"email":    "must be a valid email",
		"password": "must be at least 8",
	}, typed.Details())
}

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=30&bad=x&big=500", nil)

	v, err := ParseQueryInt(r, "limit", 20, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 30, v)

	v, err = ParseQueryInt(r, "absent", 20, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 20, v)

	_, err = ParseQueryInt(r, "bad", 20, 1, 100)
	assert.Error(t, err)
	_, err = ParseQueryInt(r, "big", 20, 1, 100)
	assert.Error(t, err)
}

func TestParseQueryDecimalAndBool(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?min_price=9.99&in_stock=true&max_price=cheap", nil)

	price, err := ParseQueryDecimal(r, "min_price")
	require.NoError(t, err)
	assert.Equal(t, "9.99", price.String())

	_, err = ParseQueryDecimal(r, "max_price")
	assert.Error(t, err)

	none, err := ParseQueryDecimal(r, "absent")
	require.NoError(t, err)
	assert.Nil(t, none)

	inStock, err := ParseQueryBool(r, "in_stock")
	require.NoError(t, err)
	assert.True(t, *inStock)
}

func TestParseUUIDParam(t *testing.T) {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("gameID", "not-a-uuid")
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

	_, err := ParseUUIDParam(r, "gameID")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "zel", SanitizeString("  zelda ", 3))
	assert.Equal(t, "zelda", SanitizeString("zelda", 0))
}
