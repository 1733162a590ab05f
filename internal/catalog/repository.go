package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gamestore-backend/pkg/db/models"
	"github.com/angelmondragon/gamestore-backend/pkg/pagination"
)

// Repository wraps catalog persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads a single game.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	var game models.Game
	if err := r.db.WithContext(ctx).First(&game, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &game, nil
}

// List returns one newest-first page matching the filters.
func (r *Repository) List(ctx context.Context, params ListParams) (pagination.Page[models.Game], error) {
	cursor, err := pagination.ParseCursor(params.Pagination.Cursor)
	if err != nil {
		return pagination.Page[models.Game]{}, err
	}

	qb := r.db.WithContext(ctx).Model(&models.Game{})
	if genre := strings.TrimSpace(params.Genre); genre != "" {
		qb = qb.Where("genre = ?", genre)
	}
	if platform := strings.TrimSpace(params.Platform); platform != "" {
		qb = qb.Where("platform = ?", platform)
	}
	if search := strings.TrimSpace(params.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where(
			"(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(COALESCE(developer, '')) LIKE ? OR LOWER(COALESCE(publisher, '')) LIKE ?)",
			pattern, pattern, pattern, pattern,
		)
	}
	if params.MinPrice != nil {
		qb = qb.Where("price >= ?", *params.MinPrice)
	}
	if params.MaxPrice != nil {
		qb = qb.Where("price <= ?", *params.MaxPrice)
	}
	if params.InStock != nil {
		if *params.InStock {
			qb = qb.Where("stock > 0")
		} else {
			qb = qb.Where("stock = 0")
		}
	}
	qb = pagination.After(qb, "", cursor)

	var rows []models.Game
	err = qb.Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Pagination.Limit)).
		Find(&rows).Error
	if err != nil {
		return pagination.Page[models.Game]{}, err
	}
	return pagination.Trim(rows, params.Pagination.Limit, func(g models.Game) pagination.Cursor {
		return pagination.Cursor{CreatedAt: g.CreatedAt, ID: g.ID}
	}), nil
}

// Facets returns the sorted distinct genres and platforms.
func (r *Repository) Facets(ctx context.Context) (*Facets, error) {
	facets := &Facets{Genres: []string{}, Platforms: []string{}}
	if err := r.db.WithContext(ctx).Model(&models.Game{}).
		Distinct("genre").Order("genre").Pluck("genre", &facets.Genres).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Game{}).
		Distinct("platform").Order("platform").Pluck("platform", &facets.Platforms).Error; err != nil {
		return nil, err
	}
	return facets, nil
}

// Create inserts a game.
func (r *Repository) Create(ctx context.Context, game *models.Game) error {
	return r.db.WithContext(ctx).Create(game).Error
}

// CreateBatch inserts games in chunks of batchSize.
func (r *Repository) CreateBatch(ctx context.Context, games []models.Game, batchSize int) error {
	if len(games) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(games, batchSize).Error
}

// Update writes the given columns. Returns gorm.ErrRecordNotFound when no row matched.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.Game{}).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a game. Returns gorm.ErrRecordNotFound when no row matched.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Game{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteCartLines removes every cart line pointing at the game.
func (r *Repository) DeleteCartLines(ctx context.Context, gameID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("game_id = ?", gameID).Delete(&models.CartItem{}).Error
}

// ReferencedByOrders reports whether any order line points at the game.
func (r *Repository) ReferencedByOrders(ctx context.Context, gameID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.OrderItem{}).Where("game_id = ?", gameID).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistingTitles returns the subset of titles already present in the catalog.
func (r *Repository) ExistingTitles(ctx context.Context, titles []string) (map[string]struct{}, error) {
	found := map[string]struct{}{}
	if len(titles) == 0 {
		return found, nil
	}
	var rows []string
	if err := r.db.WithContext(ctx).Model(&models.Game{}).Where("title IN ?", titles).Pluck("title", &rows).Error; err != nil {
		return nil, err
	}
	for _, title := range rows {
		found[title] = struct{}{}
	}
	return found, nil
}
