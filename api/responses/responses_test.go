package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/gamestore-backend/pkg/errors"
	"github.com/angelmondragon/gamestore-backend/pkg/logger"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body errorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body.Error
}

func TestWriteSuccessStatus(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessStatus(w, http.StatusCreated, map[string]string{"title": "Hollow Depths"})

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.JSONEq(t, `{"data":{"title":"Hollow Depths"}}`, w.Body.String())
}

func TestWriteErrorExposesClientMessageAndDetails(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock for Hollow Depths").
		WithDetails(map[string]any{"available": 2})
	WriteError(context.Background(), nil, w, fmt.Errorf("place order: %w", err))

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decodeError(t, w)
	require.Equal(t, string(pkgerrors.CodeStateConflict), body.Code)
	require.Equal(t, "insufficient stock for Hollow Depths", body.Message)
	require.Equal(t, map[string]any{"available": float64(2)}, body.Details)
}

func TestWriteErrorHidesDetailsWhenNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeNotFound, "game not found").WithDetails(map[string]any{"id": "x"})
	WriteError(context.Background(), nil, w, err)

	body := decodeError(t, w)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "game not found", body.Message)
	require.Nil(t, body.Details)
}

func TestWriteErrorMasksServerFaults(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeError(t, w)
	require.Equal(t, string(pkgerrors.CodeInternal), body.Code)
	require.Equal(t, "internal server error", body.Message)
	require.Nil(t, body.Details)

	w = httptest.NewRecorder()
	WriteError(context.Background(), nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("timeout"), "redis at 10.0.0.9 timed out"))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Equal(t, "dependency unavailable", decodeError(t, w).Message)
}

func TestWriteErrorLogsPostgresFields(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "responses-test", Output: &buf})
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "games_title_key", TableName: "games"}

	WriteError(context.Background(), logg, httptest.NewRecorder(), pkgerrors.Wrap(pkgerrors.CodeDependency, pgErr, "insert game"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	require.Equal(t, "request.error", entry["message"])
	require.Equal(t, "23505", entry["pg_code"])
	require.Equal(t, "games_title_key", entry["pg_constraint"])
}

func TestWriteErrorLogsClientFaultsAsWarnings(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "responses-test", Output: &buf})

	WriteError(context.Background(), logg, httptest.NewRecorder(), pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	require.Equal(t, "warn", entry["level"])
	require.Equal(t, "request.rejected", entry["message"])
}
