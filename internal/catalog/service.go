package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/gamestore-backend/pkg/db"
	"github.com/angelmondragon/gamestore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/gamestore-backend/pkg/errors"
	"github.com/angelmondragon/gamestore-backend/pkg/logger"
	"github.com/angelmondragon/gamestore-backend/pkg/pagination"
)

var maxRating = decimal.NewFromInt(5)

// Service exposes the catalog operations.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*GameDTO, error)
	Facets(ctx context.Context) (*Facets, error)
	Create(ctx context.Context, input CreateGameInput) (*GameDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateGameInput) (*GameDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Seed(ctx context.Context) (*SeedResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams bundles the catalog dependencies.
type ServiceParams struct {
	Repo   *Repository
	DB     txRunner
	Logger *logger.Logger
}

type service struct {
	repo *Repository
	db   txRunner
	logg *logger.Logger
}

// NewService constructs the catalog service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: params.Repo, db: params.DB, logg: logg}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.MinPrice != nil && params.MaxPrice != nil && params.MinPrice.GreaterThan(*params.MaxPrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min_price cannot exceed max_price")
	}
	if _, err := pagination.ParseCursor(params.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	page, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list games")
	}
	items := make([]GameDTO, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, NewGameDTO(&page.Items[i]))
	}
	return &ListResult{Items: items, NextCursor: page.NextCursor}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*GameDTO, error) {
	game, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load game")
	}
	dto := NewGameDTO(game)
	return &dto, nil
}

func (s *service) Facets(ctx context.Context) (*Facets, error) {
	facets, err := s.repo.Facets(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load facets")
	}
	return facets, nil
}

func (s *service) Create(ctx context.Context, input CreateGameInput) (*GameDTO, error) {
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}
	releaseDate, err := parseReleaseDate(input.ReleaseDate)
	if err != nil {
		return nil, err
	}
	stock := 0
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		stock = *input.Stock
	}

	game := &models.Game{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price.Round(2),
		Genre:       strings.TrimSpace(input.Genre),
		Platform:    strings.TrimSpace(input.Platform),
		ImageURL:    strings.TrimSpace(input.ImageURL),
		Rating:      input.Rating,
		ReleaseDate: releaseDate,
		Stock:       stock,
		VideoURL:    trimmedOrNil(input.VideoURL),
		Specs:       trimmedOrNil(input.Specs),
		Developer:   trimmedOrNil(input.Developer),
		Publisher:   trimmedOrNil(input.Publisher),
	}
	if game.Title == "" || game.Description == "" || game.Genre == "" || game.Platform == "" || game.ImageURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title, description, genre, platform and image_url are required")
	}

	if err := s.repo.Create(ctx, game); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create game")
	}
	s.logg.Info(s.logg.WithField(ctx, "game_id", game.ID.String()), "game created")

	return s.Get(ctx, game.ID)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateGameInput) (*GameDTO, error) {
	changes, err := buildChanges(input)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return s.Get(ctx, id)
	}
	changes["updated_at"] = time.Now().UTC()

	if err := s.repo.Update(ctx, id, changes); err != nil {
		return nil, notFoundOr(err, "update game")
	}
	s.logg.Info(s.logg.WithField(ctx, "game_id", id.String()), "game updated")
	return s.Get(ctx, id)
}

// Delete refuses games that appear in any order; otherwise cart lines and the
// game go together. An order that lands between the check and the delete
// trips the foreign key and is refused the same way.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.FindByID(ctx, id); err != nil {
			return err
		}
		referenced, err := txRepo.ReferencedByOrders(ctx, id)
		if err != nil {
			return err
		}
		if referenced {
			return gameInOrders(id)
		}
		if err := txRepo.DeleteCartLines(ctx, id); err != nil {
			return err
		}
		return txRepo.Delete(ctx, id)
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return err
		}
		if db.IsForeignKeyViolation(err, "") {
			return gameInOrders(id)
		}
		return notFoundOr(err, "delete game")
	}
	s.logg.Info(s.logg.WithField(ctx, "game_id", id.String()), "game deleted")
	return nil
}

func buildChanges(input UpdateGameInput) (map[string]any, error) {
	changes := map[string]any{}
	setString := func(column string, value *string) error {
		if value == nil {
			return nil
		}
		trimmed := strings.TrimSpace(*value)
		if trimmed == "" {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "%s cannot be empty", column)
		}
		changes[column] = trimmed
		return nil
	}
	for column, value := range map[string]*string{
		"title":       input.Title,
		"description": input.Description,
		"genre":       input.Genre,
		"platform":    input.Platform,
		"image_url":   input.ImageURL,
	} {
		if err := setString(column, value); err != nil {
			return nil, err
		}
	}
	for column, value := range map[string]*string{
		"video_url": input.VideoURL,
		"specs":     input.Specs,
		"developer": input.Developer,
		"publisher": input.Publisher,
	} {
		if value != nil {
			changes[column] = trimmedOrNil(value)
		}
	}
	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return nil, err
		}
		changes["price"] = input.Price.Round(2)
	}
	if input.Rating != nil {
		if err := validateRating(input.Rating); err != nil {
			return nil, err
		}
		changes["rating"] = *input.Rating
	}
	if input.ReleaseDate != nil {
		releaseDate, err := parseReleaseDate(input.ReleaseDate)
		if err != nil {
			return nil, err
		}
		changes["release_date"] = releaseDate
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		changes["stock"] = *input.Stock
	}
	return changes, nil
}

func gameInOrders(id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "game appears in existing orders and cannot be deleted").
		WithDetails(map[string]any{"game_id": id})
}

// validatePrice checks the price as it will be stored, in cents.
func validatePrice(price decimal.Decimal) error {
	if !price.Round(2).IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero")
	}
	return nil
}

func validateRating(rating *decimal.Decimal) error {
	if rating == nil {
		return nil
	}
	if rating.IsNegative() || rating.GreaterThan(maxRating) {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 0 and 5")
	}
	return nil
}

func parseReleaseDate(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(releaseDateLayout, strings.TrimSpace(*value))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "release_date must be YYYY-MM-DD")
	}
	return &parsed, nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func notFoundOr(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "game not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
