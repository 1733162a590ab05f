package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/gamestore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/gamestore-backend/pkg/db/models"
	"github.com/angelmondragon/gamestore-backend/pkg/pagination"
)

func seedCatalog(t *testing.T, conn *gorm.DB) []models.Game {
	t.Helper()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	dev := "Valve"
	games := []models.Game{
		{Title: "Half Step", Description: "puzzle shooter", Price: decimal.RequireFromString("19.99"), Genre: "Shooter", Platform: "PC", ImageURL: "a", Stock: 3, Developer: &dev},
		{Title: "Kart Mania", Description: "racing fun", Price: decimal.RequireFromString("39.99"), Genre: "Racing", Platform: "Nintendo Switch", ImageURL: "b", Stock: 0},
		{Title: "Dragon Saga", Description: "epic rpg", Price: decimal.RequireFromString("59.99"), Genre: "RPG", Platform: "PC", ImageURL: "c", Stock: 7},
		{Title: "Street Goal", Description: "football", Price: decimal.RequireFromString("29.99"), Genre: "Sports", Platform: "Xbox Series X", ImageURL: "d", Stock: 1},
	}
	for i := range games {
		games[i].CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, conn.Create(&games[i]).Error)
	}
	return games
}

func titles(games []models.Game) []string {
	out := make([]string, 0, len(games))
	for _, g := range games {
		out = append(out, g.Title)
	}
	return out
}

func TestRepositoryListFilters(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	seedCatalog(t, conn)

	page, err := repo.List(ctx, ListParams{Platform: "PC"})
	require.NoError(t, err)
	require.Equal(t, []string{"Dragon Saga", "Half Step"}, titles(page.Items))

	page, err = repo.List(ctx, ListParams{Genre: "Racing"})
	require.NoError(t, err)
	require.Equal(t, []string{"Kart Mania"}, titles(page.Items))

	page, err = repo.List(ctx, ListParams{Query: "VALVE"})
	require.NoError(t, err)
	require.Equal(t, []string{"Half Step"}, titles(page.Items))

	inStock := true
	page, err = repo.List(ctx, ListParams{InStock: &inStock})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)

	outOfStock := false
	page, err = repo.List(ctx, ListParams{InStock: &outOfStock})
	require.NoError(t, err)
	require.Equal(t, []string{"Kart Mania"}, titles(page.Items))

	minPrice := decimal.NewFromInt(20)
	maxPrice := decimal.NewFromInt(40)
	page, err = repo.List(ctx, ListParams{MinPrice: &minPrice, MaxPrice: &maxPrice})
	require.NoError(t, err)
	require.Equal(t, []string{"Street Goal", "Kart Mania"}, titles(page.Items))
}

func TestRepositoryListPaginates(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	seedCatalog(t, conn)

	first, err := repo.List(ctx, ListParams{Pagination: pagination.Params{Limit: 3}})
	require.NoError(t, err)
	require.Equal(t, []string{"Street Goal", "Dragon Saga", "Kart Mania"}, titles(first.Items))
	require.NotEmpty(t, first.NextCursor)

	second, err := repo.List(ctx, ListParams{Pagination: pagination.Params{Limit: 3, Cursor: first.NextCursor}})
	require.NoError(t, err)
	require.Equal(t, []string{"Half Step"}, titles(second.Items))
	require.Empty(t, second.NextCursor)
}

func TestRepositoryFacets(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	seedCatalog(t, conn)

	facets, err := repo.Facets(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"RPG", "Racing", "Shooter", "Sports"}, facets.Genres)
	require.Equal(t, []string{"Nintendo Switch", "PC", "Xbox Series X"}, facets.Platforms)
}

func TestRepositoryUpdateAndDeleteMissing(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	game := dbtest.SeedGame(t, conn, "Solo", "9.99", 2)

	require.NoError(t, repo.Update(ctx, game.ID, map[string]any{"stock": 5}))
	require.Equal(t, 5, dbtest.StockOf(t, conn, game.ID))

	require.NoError(t, repo.Delete(ctx, game.ID))
	require.ErrorIs(t, repo.Delete(ctx, game.ID), gorm.ErrRecordNotFound)
	require.ErrorIs(t, repo.Update(ctx, game.ID, map[string]any{"stock": 1}), gorm.ErrRecordNotFound)
}

func TestRepositoryExistingTitles(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	dbtest.SeedGame(t, conn, "Known", "9.99", 1)

	found, err := repo.ExistingTitles(context.Background(), []string{"Known", "Unknown"})
	require.NoError(t, err)
	require.Contains(t, found, "Known")
	require.NotContains(t, found, "Unknown")
}
