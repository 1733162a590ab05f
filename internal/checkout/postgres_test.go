package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/gamestore-backend/internal/cart"
	"github.com/angelmondragon/gamestore-backend/internal/orders"
	"github.com/angelmondragon/gamestore-backend/pkg/config"
	"github.com/angelmondragon/gamestore-backend/pkg/db"
	"github.com/angelmondragon/gamestore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/gamestore-backend/pkg/db/models"
	"github.com/angelmondragon/gamestore-backend/pkg/metrics"
	"github.com/angelmondragon/gamestore-backend/pkg/migrate"
	"github.com/angelmondragon/gamestore-backend/pkg/outbox"
)

// postgresFixture migrates a throwaway schema on the database named by
// GAMESTORE_DB_DSN and wires the service against it.
func postgresFixture(t *testing.T) fixture {
	t.Helper()
	dsn := os.Getenv(config.EnvDBDSN)
	if dsn == "" {
		t.Skipf("%s not set", config.EnvDBDSN)
	}
	ctx := context.Background()

	admin, err := db.New(ctx, config.DBConfig{DSN: dsn}, nil)
	require.NoError(t, err)
	schema := "checkout_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	require.NoError(t, admin.DB().Exec("CREATE SCHEMA "+schema).Error)
	t.Cleanup(func() {
		_ = admin.DB().Exec("DROP SCHEMA " + schema + " CASCADE").Error
		_ = admin.Close()
	})

	client, err := db.New(ctx, config.DBConfig{DSN: withSearchPath(t, dsn, schema)}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.DB().DB()
	require.NoError(t, err)
	require.NoError(t, migrate.Run(ctx, sqlDB, filepath.Join("..", "..", migrate.DefaultDir), "up"))

	conn := client.DB()
	reg := prometheus.NewRegistry()
	svc, err := NewService(ServiceParams{
		DB:         client,
		Repo:       NewRepository(conn),
		CartRepo:   cart.NewRepository(conn),
		OrdersRepo: orders.NewRepository(conn),
		Outbox:     outbox.NewService(outbox.NewRepository(conn), nil),
		Metrics:    metrics.NewCheckoutMetrics(reg),
	})
	require.NoError(t, err)
	return fixture{conn: conn, svc: svc, reg: reg}
}

// withSearchPath pins every pooled connection to schema, for both URL and
// keyword/value DSNs.
func withSearchPath(t *testing.T, dsn, schema string) string {
	t.Helper()
	path := schema + ",public"
	if !strings.Contains(dsn, "://") {
		return fmt.Sprintf("%s search_path=%s", dsn, path)
	}
	u, err := url.Parse(dsn)
	require.NoError(t, err)
	q := u.Query()
	q.Set("search_path", path)
	u.RawQuery = q.Encode()
	return u.String()
}

func TestPostgresConcurrentBuyersCannotOversell(t *testing.T) {
	f := postgresFixture(t)
	game := dbtest.SeedGame(t, f.conn, "Limited Edition", "19.99", 5)
	first := dbtest.SeedUser(t, f.conn, "first@example.com")
	second := dbtest.SeedUser(t, f.conn, "second@example.com")
	f.addToCart(t, first.ID, game.ID, 3)
	f.addToCart(t, second.ID, game.ID, 3)

	start := make(chan struct{})
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, userID := range []uuid.UUID{first.ID, second.ID} {
		wg.Add(1)
		go func(i int, userID uuid.UUID) {
			defer wg.Done()
			<-start
			_, errs[i] = f.svc.PlaceOrder(context.Background(), userID)
		}(i, userID)
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var insufficient *InsufficientStockError
		var race *StockRaceError
		require.True(t, errors.As(err, &insufficient) || errors.As(err, &race), "unexpected error: %v", err)
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, 2, dbtest.StockOf(t, f.conn, game.ID))
	require.EqualValues(t, 1, f.count(t, &models.Order{}))
	require.EqualValues(t, 1, f.count(t, &models.CartItem{}))
}

func TestPostgresDuplicatePaymentReferenceReturnsSameOrder(t *testing.T) {
	f := postgresFixture(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, f.conn, "buyer@example.com")
	game := dbtest.SeedGame(t, f.conn, "Mind Bender", "19.99", 25)
	f.addToCart(t, user.ID, game.ID, 2)

	first, err := f.svc.PlaceOrder(ctx, user.ID, WithPaymentReference("cs_test_pg"))
	require.NoError(t, err)
	second, err := f.svc.PlaceOrder(ctx, user.ID, WithPaymentReference("cs_test_pg"))
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 23, dbtest.StockOf(t, f.conn, game.ID))
	require.EqualValues(t, 1, f.count(t, &models.Order{}))
}

func TestPostgresConcurrentPaymentReferenceReturnsSameOrder(t *testing.T) {
	f := postgresFixture(t)
	user := dbtest.SeedUser(t, f.conn, "buyer@example.com")
	game := dbtest.SeedGame(t, f.conn, "Mind Bender", "19.99", 25)
	f.addToCart(t, user.ID, game.ID, 2)

	start := make(chan struct{})
	var wg sync.WaitGroup
	placed := make([]*models.Order, 2)
	errs := make([]error, 2)
	for i := range placed {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			placed[i], errs[i] = f.svc.PlaceOrder(context.Background(), user.ID, WithPaymentReference("cs_test_pg_race"))
		}(i)
	}
	close(start)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.Equal(t, placed[0].ID, placed[1].ID)
	require.Equal(t, 23, dbtest.StockOf(t, f.conn, game.ID))
	require.EqualValues(t, 1, f.count(t, &models.Order{}))
}
