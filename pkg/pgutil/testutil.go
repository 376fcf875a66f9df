package pgutil

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chainsafe/agent-associations/pkg/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
)

// RequireDockerAccess skips the test when no docker daemon socket answers.
func RequireDockerAccess(t *testing.T) {
	t.Helper()

	candidates := []string{
		"/var/run/docker.sock",
		filepath.Join(os.Getenv("HOME"), ".docker/run/docker.sock"),
	}
	if host := os.Getenv("DOCKER_HOST"); host != "" {
		// remote daemons are left to testcontainers
		return
	}

	for _, sock := range candidates {
		if _, err := os.Stat(sock); err != nil {
			continue
		}
		conn, err := (&net.Dialer{}).DialContext(context.Background(), "unix", sock)
		if err == nil {
			_ = conn.Close()
			return
		}
	}

	t.Skip("docker daemon socket is not accessible; skipping testcontainer-backed tests")
}

const (
	testDBName     = "associations_test"
	testDBUser     = "associations"
	testDBPassword = "associations"
	connectRetries = 10
)

// SetupTestDB starts a throwaway PostgreSQL container and connects to it.
// The test is skipped when docker is unavailable. The returned func closes
// the connection and terminates the container.
func SetupTestDB(t *testing.T) (*bun.DB, func()) {
	t.Helper()
	RequireDockerAccess(t)
	ctx := context.Background()

	container, cfg := startPostgres(ctx, t)
	terminate := func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	db, err := connectWithRetry(ctx, cfg)
	if err != nil {
		terminate()
		t.Fatalf("failed to connect to test database after %d attempts: %v", connectRetries, err)
	}

	return db, func() {
		_ = db.Close()
		terminate()
	}
}

func startPostgres(ctx context.Context, t *testing.T) (*postgres.PostgresContainer, *config.DatabaseConfig) {
	t.Helper()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase(testDBName),
		postgres.WithUsername(testDBUser),
		postgres.WithPassword(testDBPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		t.Fatalf("failed to get container port: %v", err)
	}

	return container, &config.DatabaseConfig{
		Host:     host,
		Port:     port.Int(),
		User:     testDBUser,
		Password: testDBPassword,
		Database: testDBName,
		SSLMode:  "disable",
	}
}

// connectWithRetry backs off 100ms, 200ms, 400ms... between attempts.
func connectWithRetry(ctx context.Context, cfg *config.DatabaseConfig) (*bun.DB, error) {
	var err error
	for i := 0; i < connectRetries; i++ {
		var db *bun.DB
		if db, err = ConnectDB(ctx, cfg); err == nil {
			return db, nil
		}
		time.Sleep(time.Duration(100<<uint(i)) * time.Millisecond)
	}
	return nil, err
}

func exists(t *testing.T, db *bun.DB, query string, args ...any) bool {
	t.Helper()

	var found bool
	if err := db.NewSelect().ColumnExpr("EXISTS ("+query+")", args...).Scan(context.Background(), &found); err != nil {
		t.Fatalf("existence check failed: %v", err)
	}
	return found
}

func tableExists(t *testing.T, db *bun.DB, table string) bool {
	t.Helper()
	return exists(t, db, "SELECT 1 FROM information_schema.tables WHERE table_schema = ? AND table_name = ?", "public", table)
}

// AssertTableExists fails the test when table is missing from the public schema.
func AssertTableExists(t *testing.T, db *bun.DB, table string) {
	t.Helper()
	if !tableExists(t, db, table) {
		t.Errorf("table %s does not exist", table)
	}
}

// AssertTableNotExists fails the test when table is present.
func AssertTableNotExists(t *testing.T, db *bun.DB, table string) {
	t.Helper()
	if tableExists(t, db, table) {
		t.Errorf("table %s should not exist but it does", table)
	}
}

func AssertIndexExists(t *testing.T, db *bun.DB, index string) {
	t.Helper()
	if !exists(t, db, "SELECT 1 FROM pg_indexes WHERE schemaname = ? AND indexname = ?", "public", index) {
		t.Errorf("index %s does not exist", index)
	}
}

func AssertRowCount(t *testing.T, db *bun.DB, table string, expected int) {
	t.Helper()

	var count int
	err := db.NewSelect().TableExpr("?", bun.Ident(table)).ColumnExpr("COUNT(*)").Scan(context.Background(), &count)
	if err != nil {
		t.Fatalf("failed to count rows in table %s: %v", table, err)
	}
	if count != expected {
		t.Errorf("table %s: expected %d rows, got %d", table, expected, count)
	}
}
