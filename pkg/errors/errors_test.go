package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized},
		{code: CodeForbidden, status: http.StatusForbidden},
		{code: CodeNotFound, status: http.StatusNotFound},
		{code: CodeConflict, status: http.StatusConflict},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, detailsOK: true},
		{code: CodeIdempotency, status: http.StatusConflict, detailsOK: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests},
		{code: CodeInternal, status: http.StatusInternalServerError, retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		require.Equal(t, tt.status, meta.HTTPStatus, "status for %s", tt.code)
		require.Equal(t, tt.retryable, meta.Retryable, "retryable for %s", tt.code)
		require.Equal(t, tt.detailsOK, meta.DetailsAllowed, "details for %s", tt.code)
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	require.Equal(t, http.StatusInternalServerError, MetadataFor("SOMETHING_UNKNOWN").HTTPStatus)
}

func TestErrorConstructors(t *testing.T) {
	base := Newf(CodeValidation, "quantity must be >= %d", 1)
	require.Equal(t, CodeValidation, base.Code())
	require.Equal(t, "quantity must be >= 1", base.Message())
	require.Nil(t, base.Details())

	base.WithDetails(map[string]any{"field": "quantity"})
	require.NotNil(t, base.Details())

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeDependency, cause, "load cart")
	require.ErrorIs(t, wrapped, cause)
	require.Equal(t, CodeDependency, wrapped.Code())
}

func TestHasCodeWalksChain(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeConflict, "stock changed"))
	require.True(t, HasCode(err, CodeConflict))
	require.False(t, HasCode(err, CodeNotFound))
	require.Equal(t, CodeConflict, CodeOf(err))
	require.Equal(t, CodeInternal, CodeOf(stdErrors.New("plain")))
	require.Nil(t, As(nil))
}

func TestDumpCapturesPostgresDetails(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "cart_items_user_game_key", TableName: "cart_items"}
	err := Wrap(CodeConflict, pgErr, "insert cart line")

	d := Dump(err)
	require.Equal(t, CodeConflict, d.Code)
	require.Equal(t, "23505", d.PGCode)
	require.Equal(t, "cart_items_user_game_key", d.PGConstraint)
	require.GreaterOrEqual(t, len(d.Chain), 2)
}
