package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"qahwa/internal/cart"
	"qahwa/internal/checkout"
	"qahwa/internal/config"
	"qahwa/internal/database"
	"qahwa/internal/guest"
	"qahwa/internal/handler"
	"qahwa/internal/media"
	"qahwa/internal/model"
	"qahwa/internal/repository"
	"qahwa/internal/router"
	"qahwa/internal/service"
	"qahwa/internal/session"
	"qahwa/internal/telemetry"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, applies the migrations and
// returns a connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start postgres container")

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dbConfig := config.DatabaseConfig{
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}
	pool, err := database.NewPoolFromURL(ctx, connStr, dbConfig, zerolog.Nop())
	require.NoError(t, err, "failed to create connection pool")

	require.NoError(t, database.Migrate(ctx, pool, zerolog.Nop()))

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SeedProducts upserts the test catalogue.
func SeedProducts(t *testing.T, pool *pgxpool.Pool) []model.Product {
	t.Helper()

	products := []model.Product{
		{ID: 1, NameAR: "بن يمني", Price: decimal.NewFromInt(50), ImageRef: "products/yemeni.png", Available: true, Rating: 4.8},
		{ID: 2, NameAR: "بن إثيوبي", Price: decimal.RequireFromString("30.50"), ImageRef: "products/ethiopian.png", Available: true, Rating: 4.5},
		{ID: 3, NameAR: "قهوة بالهيل", Price: decimal.NewFromInt(20), Available: true, Rating: 4.9},
		{ID: 4, NameAR: "بن كولومبي", Price: decimal.NewFromInt(40), Available: false, Rating: 4.1},
	}

	repo := repository.NewProductRepository(pool, zerolog.Nop())
	for i := range products {
		require.NoError(t, repo.Upsert(context.Background(), &products[i]))
	}
	return products
}

// TestApp is the fully wired API over a real database.
type TestApp struct {
	Handler http.Handler
	Auth    *session.Authenticator
	Carts   *cart.Manager
	Pool    *pgxpool.Pool
}

// NewTestApp wires repositories, services and handlers the way the API
// binary does, with guest carts kept in memory.
func NewTestApp(t *testing.T, testDB *TestDB) *TestApp {
	t.Helper()

	logger := zerolog.Nop()
	metrics := telemetry.NewNopMetrics()
	images := media.NewPublicResolver("https://cdn.example.com")

	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	cartRepo := repository.NewCartRepository(testDB.Pool, logger)
	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)
	addressRepo := repository.NewAddressRepository(testDB.Pool, logger)

	carts := cart.NewManager(cartRepo, productRepo, guest.NewMemoryStorage(), metrics, logger)
	assembler := checkout.NewAssembler(orderRepo, cartRepo, addressRepo, metrics, logger)
	auth := session.NewAuthenticator(config.AuthConfig{JWTSecret: "integration-secret"})

	handlers := router.Handlers{
		Products:  handler.NewProductHandler(service.NewProductService(productRepo, images, logger), logger),
		Cart:      handler.NewCartHandler(carts, images, logger),
		Orders:    handler.NewOrderHandler(service.NewOrderService(orderRepo, images, logger), carts, assembler, logger),
		Addresses: handler.NewAddressHandler(service.NewAddressService(addressRepo, logger), logger),
	}

	return &TestApp{
		Handler: router.New(handlers, auth, "qahwa-integration", logger),
		Auth:    auth,
		Carts:   carts,
		Pool:    testDB.Pool,
	}
}
