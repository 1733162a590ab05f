package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/gamestore-backend/api/responses"
	"github.com/angelmondragon/gamestore-backend/api/validators"
	"github.com/angelmondragon/gamestore-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/gamestore-backend/pkg/errors"
	"github.com/angelmondragon/gamestore-backend/pkg/logger"
)

const maxSearchLength = 100

type catalogCall func(ctx context.Context, svc catalog.Service, r *http.Request) (any, error)

// catalogHandler answers with status and whatever call returns.
func catalogHandler(svc catalog.Service, logg *logger.Logger, status int, call catalogCall) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		body, err := call(r.Context(), svc, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, status, body)
	}
}

// GamesList serves the public catalog with filters and cursor pagination.
func GamesList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return catalogHandler(svc, logg, http.StatusOK, func(ctx context.Context, svc catalog.Service, r *http.Request) (any, error) {
		params, err := parseGameFilters(r)
		if err != nil {
			return nil, err
		}
		return svc.List(ctx, params)
	})
}

func parseGameFilters(r *http.Request) (catalog.ListParams, error) {
	var (
		params catalog.ListParams
		err    error
	)
	if params.Pagination, err = validators.ParsePagination(r); err != nil {
		return catalog.ListParams{}, err
	}
	if params.MinPrice, err = validators.ParseQueryDecimal(r, "min_price"); err != nil {
		return catalog.ListParams{}, err
	}
	if params.MaxPrice, err = validators.ParseQueryDecimal(r, "max_price"); err != nil {
		return catalog.ListParams{}, err
	}
	if params.InStock, err = validators.ParseQueryBool(r, "in_stock"); err != nil {
		return catalog.ListParams{}, err
	}
	q := r.URL.Query()
	params.Genre = validators.SanitizeString(q.Get("genre"), maxSearchLength)
	params.Platform = validators.SanitizeString(q.Get("platform"), maxSearchLength)
	params.Query = validators.SanitizeString(q.Get("q"), maxSearchLength)
	return params, nil
}

func GameDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return catalogHandler(svc, logg, http.StatusOK, func(ctx context.Context, svc catalog.Service, r *http.Request) (any, error) {
		gameID, err := validators.ParseUUIDParam(r, "gameId")
		if err != nil {
			return nil, err
		}
		return svc.Get(ctx, gameID)
	})
}

func GameFacets(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return catalogHandler(svc, logg, http.StatusOK, func(ctx context.Context, svc catalog.Service, _ *http.Request) (any, error) {
		return svc.Facets(ctx)
	})
}

func AdminCreateGame(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return catalogHandler(svc, logg, http.StatusCreated, func(ctx context.Context, svc catalog.Service, r *http.Request) (any, error) {
		var body catalog.CreateGameInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.Create(ctx, body)
	})
}

func AdminUpdateGame(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return catalogHandler(svc, logg, http.StatusOK, func(ctx context.Context, svc catalog.Service, r *http.Request) (any, error) {
		gameID, err := validators.ParseUUIDParam(r, "gameId")
		if err != nil {
			return nil, err
		}
		var body catalog.UpdateGameInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.Update(ctx, gameID, body)
	})
}

func AdminDeleteGame(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return catalogHandler(svc, logg, http.StatusOK, func(ctx context.Context, svc catalog.Service, r *http.Request) (any, error) {
		gameID, err := validators.ParseUUIDParam(r, "gameId")
		if err != nil {
			return nil, err
		}
		if err := svc.Delete(ctx, gameID); err != nil {
			return nil, err
		}
		return map[string]string{"status": "deleted"}, nil
	})
}

// AdminSeedGames inserts the sample catalog titles that are missing.
func AdminSeedGames(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return catalogHandler(svc, logg, http.StatusOK, func(ctx context.Context, svc catalog.Service, _ *http.Request) (any, error) {
		return svc.Seed(ctx)
	})
}
