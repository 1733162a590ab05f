package catalog

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/gamestore-backend/pkg/db"
	"github.com/angelmondragon/gamestore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/gamestore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/gamestore-backend/pkg/errors"
	"github.com/angelmondragon/gamestore-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(ServiceParams{Repo: NewRepository(conn), DB: db.FromGorm(conn)})
	require.NoError(t, err)
	return svc, conn
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestServiceCreateValidates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	base := CreateGameInput{
		Title:       "Valid",
		Description: "desc",
		Price:       decimal.RequireFromString("10.00"),
		Genre:       "RPG",
		Platform:    "PC",
		ImageURL:    "https://img.example.com/v.jpg",
	}

	zero := base
	zero.Price = decimal.Zero
	_, err := svc.Create(ctx, zero)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	subCent := base
	subCent.Price = decimal.RequireFromString("0.004")
	_, err = svc.Create(ctx, subCent)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	rating := decimal.RequireFromString("5.5")
	badRating := base
	badRating.Rating = &rating
	_, err = svc.Create(ctx, badRating)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	date := "15/01/2024"
	badDate := base
	badDate.ReleaseDate = &date
	_, err = svc.Create(ctx, badDate)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	negative := -1
	badStock := base
	badStock.Stock = &negative
	_, err = svc.Create(ctx, badStock)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	created, err := svc.Create(ctx, base)
	require.NoError(t, err)
	require.Equal(t, "Valid", created.Title)
	require.Equal(t, 0, created.Stock)
	require.False(t, created.InStock)
}

func TestServiceUpdate(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	game := dbtest.SeedGame(t, conn, "Old", "9.99", 1)

	title := "  New  "
	stock := 12
	release := "2024-03-01"
	updated, err := svc.Update(ctx, game.ID, UpdateGameInput{Title: &title, Stock: &stock, ReleaseDate: &release})
	require.NoError(t, err)
	require.Equal(t, "New", updated.Title)
	require.Equal(t, 12, updated.Stock)
	require.NotNil(t, updated.ReleaseDate)
	require.Equal(t, "2024-03-01", *updated.ReleaseDate)

	empty := " "
	_, err = svc.Update(ctx, game.ID, UpdateGameInput{Title: &empty})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.Update(ctx, uuid.New(), UpdateGameInput{Stock: &stock})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	subCent := decimal.RequireFromString("0.004")
	_, err = svc.Update(ctx, game.ID, UpdateGameInput{Price: &subCent})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	halfCent := decimal.RequireFromString("0.005")
	updated, err = svc.Update(ctx, game.ID, UpdateGameInput{Price: &halfCent})
	require.NoError(t, err)
	require.Equal(t, "0.01", updated.Price.StringFixed(2))
}

func TestServiceListRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	minPrice := decimal.NewFromInt(50)
	maxPrice := decimal.NewFromInt(10)
	_, err := svc.List(ctx, ListParams{MinPrice: &minPrice, MaxPrice: &maxPrice})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.List(ctx, ListParams{Pagination: pagination.Params{Cursor: "not-a-cursor"}})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestServiceGetMissing(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Get(context.Background(), uuid.New())
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestServiceDeleteRemovesCartLines(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, conn, "buyer@example.com")
	game := dbtest.SeedGame(t, conn, "Doomed", "9.99", 4)
	require.NoError(t, conn.Create(&models.CartItem{UserID: user.ID, GameID: game.ID, Quantity: 2}).Error)

	require.NoError(t, svc.Delete(ctx, game.ID))

	var lines int64
	require.NoError(t, conn.Model(&models.CartItem{}).Where("game_id = ?", game.ID).Count(&lines).Error)
	require.Zero(t, lines)

	err := svc.Delete(ctx, game.ID)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestServiceDeleteRefusesOrderedGame(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, conn, "buyer@example.com")
	game := dbtest.SeedGame(t, conn, "Sold", "9.99", 4)

	order := models.Order{UserID: user.ID, Total: decimal.RequireFromString("9.99"), Status: "paid"}
	require.NoError(t, conn.Create(&order).Error)
	require.NoError(t, conn.Create(&models.OrderItem{OrderID: order.ID, GameID: game.ID, Title: game.Title, Quantity: 1, Price: game.Price}).Error)

	err := svc.Delete(ctx, game.ID)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))

	_, err = svc.Get(ctx, game.ID)
	require.NoError(t, err)
}

// orderRacesDelete rolls back and reports the foreign key violation Postgres
// raises when an order item lands between the reference check and the delete.
type orderRacesDelete struct{ inner *db.Client }

func (o orderRacesDelete) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return o.inner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := fn(tx); err != nil {
			return err
		}
		return &pgconn.PgError{Code: "23503", ConstraintName: "order_items_game_id_fkey"}
	})
}

func TestServiceDeleteMapsForeignKeyViolationToConflict(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(ServiceParams{Repo: NewRepository(conn), DB: orderRacesDelete{inner: db.FromGorm(conn)}})
	require.NoError(t, err)
	game := dbtest.SeedGame(t, conn, "Contested", "9.99", 4)

	err = svc.Delete(context.Background(), game.ID)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict), "got %v", err)

	_, err = svc.Get(context.Background(), game.ID)
	require.NoError(t, err)
}

func TestServiceSeedIsIdempotent(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	first, err := svc.Seed(ctx)
	require.NoError(t, err)
	require.Equal(t, len(SampleGames()), first.Inserted)
	require.Zero(t, first.Skipped)

	second, err := svc.Seed(ctx)
	require.NoError(t, err)
	require.Zero(t, second.Inserted)
	require.Equal(t, len(SampleGames()), second.Skipped)

	var count int64
	require.NoError(t, conn.Model(&models.Game{}).Count(&count).Error)
	require.EqualValues(t, len(SampleGames()), count)
}

func TestGenerateGamesRanges(t *testing.T) {
	games := GenerateGames(200, rand.New(rand.NewPCG(1, 2)))
	require.Len(t, games, 200)

	low, high := decimal.NewFromInt(10), decimal.NewFromInt(70)
	for _, g := range games {
		require.True(t, g.Price.GreaterThanOrEqual(low) && g.Price.LessThanOrEqual(high), g.Price.String())
		require.NotNil(t, g.Rating)
		require.True(t, g.Rating.GreaterThanOrEqual(decimal.NewFromInt(1)) && g.Rating.LessThanOrEqual(decimal.NewFromInt(5)))
		require.GreaterOrEqual(t, g.Stock, 10)
		require.LessOrEqual(t, g.Stock, 110)
		require.NotEmpty(t, g.Title)
		require.LessOrEqual(t, len(g.Title), 100)
	}
}
