package integration

import (
	"context"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a migrated test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB starts a PostgreSQL container and applies the schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("storefront_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	logger := zerolog.Nop()
	pool, err := database.NewPoolFromURL(ctx, connStr, config.DatabaseConfig{
		MaxConnections:  20,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}, logger)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := database.Migrate(ctx, pool, logger); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

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

// CleanupDB removes all rows, children first.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		TRUNCATE order_status_history, order_items, orders, order_counters,
			addresses, coupons, products, users`)
	if err != nil {
		t.Fatalf("failed to clean tables: %v", err)
	}
}

// SeedUser inserts an active account with the given role.
func SeedUser(t *testing.T, pool *pgxpool.Pool, name string, role model.Role) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO users (id, name, email, password_hash, role) VALUES ($1, $2, $3, 'x', $4)`,
		id, name, id.String()+"@example.com", string(role),
	)
	if err != nil {
		t.Fatalf("failed to seed user %s: %v", name, err)
	}
	return id
}

// SeedProduct inserts a product and returns its ID.
func SeedProduct(t *testing.T, pool *pgxpool.Pool, name string, price float64, stock int) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO products (id, name, description, price, category, stock, images)
		 VALUES ($1, $2, $3, $4, 'test', $5, $6)`,
		id, name, name+" description", price, stock, []string{"https://img.example.com/" + id.String() + ".png"},
	)
	if err != nil {
		t.Fatalf("failed to seed product %s: %v", name, err)
	}
	return id
}

// SeedCoupon inserts an active coupon valid around now.
func SeedCoupon(t *testing.T, pool *pgxpool.Pool, code string, kind model.DiscountType, amount float64, usageLimit int) uuid.UUID {
	t.Helper()

	id := uuid.New()
	now := time.Now()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO coupons (id, code, discount_type, discount_amount, start_date, end_date, usage_limit)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, code, string(kind), amount, now.Add(-24*time.Hour), now.Add(24*time.Hour), usageLimit,
	)
	if err != nil {
		t.Fatalf("failed to seed coupon %s: %v", code, err)
	}
	return id
}

// StockOf reads a product's current stock.
func StockOf(t *testing.T, pool *pgxpool.Pool, id uuid.UUID) int {
	t.Helper()

	var stock int
	if err := pool.QueryRow(context.Background(), `SELECT stock FROM products WHERE id = $1`, id).Scan(&stock); err != nil {
		t.Fatalf("failed to read stock: %v", err)
	}
	return stock
}

func testAddress() model.ShippingAddress {
	return model.ShippingAddress{
		RecipientName: "Ada Lovelace",
		Phone:         "+90 555 000 0000",
		Address:       "1 Test Street",
		City:          "Istanbul",
		Country:       "Turkey",
	}
}
