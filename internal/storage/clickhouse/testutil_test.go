package clickhouse

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a ClickHouse container and returns a connection with
// the schema applied. Returns a cleanup function that must be called when done.
func setupTestDB(t *testing.T) (*Conn, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:24.1-alpine",
		ExposedPorts: []string{"9000/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Application: Ready for connections").
				WithStartupTimeout(60*time.Second),
			wait.ForListeningPort("9000/tcp"),
		),
		Env: map[string]string{
			"CLICKHOUSE_DB":       "test",
			"CLICKHOUSE_USER":     "default",
			"CLICKHOUSE_PASSWORD": "",
		},
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	conn, err := NewConn(ctx, fmt.Sprintf("clickhouse://%s:%s/test", host, port.Port()))
	require.NoError(t, err)

	applySchema(t, conn)

	cleanup := func() {
		conn.Close()
		_ = container.Terminate(ctx)
	}
	return conn, cleanup
}

// applySchema executes the migration files under internal/storage/migrations/clickhouse.
func applySchema(t *testing.T, conn *Conn) {
	t.Helper()
	ctx := context.Background()

	dir := filepath.Join("..", "migrations", "clickhouse")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err, "read migrations dir")

	var files []string
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".sql" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(dir, f))
		require.NoError(t, err)
		for _, stmt := range strings.Split(string(data), ";") {
			stmt = stripComments(stmt)
			if stmt == "" {
				continue
			}
			require.NoError(t, conn.Exec(ctx, stmt), "apply %s", f)
		}
	}
}

func stripComments(stmt string) string {
	var lines []string
	for _, line := range strings.Split(stmt, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "--") {
			lines = append(lines, line)
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
