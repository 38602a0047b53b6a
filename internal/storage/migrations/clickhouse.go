package migrations

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	chstore "wallet-analytics/internal/storage/clickhouse"
)

// ApplyClickhouse creates the DSN's database if needed and applies every
// embedded ClickHouse file. It returns a connection to that database.
func ApplyClickhouse(ctx context.Context, dsn string, logger logrus.FieldLogger) (*chstore.Conn, error) {
	files, err := sqlFiles(ClickhouseFS, "clickhouse")
	if err != nil {
		return nil, err
	}

	admin, err := chstore.NewConnWithDatabase(ctx, dsn, "default")
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse admin: %w", err)
	}
	dbName := admin.TargetDatabase()
	if dbName == "" || dbName == "default" {
		admin.Close()
		return nil, fmt.Errorf("clickhouse dsn must name a database")
	}
	if err := admin.Exec(ctx, "CREATE DATABASE IF NOT EXISTS "+dbName); err != nil {
		admin.Close()
		return nil, fmt.Errorf("create database %s: %w", dbName, err)
	}
	admin.Close()

	conn, err := chstore.NewConn(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse db: %w", err)
	}

	for _, f := range files {
		stmts, err := splitStatements(f.body)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("migration %s: %w", f.name, err)
		}
		for _, stmt := range stmts {
			if err := conn.Exec(ctx, stmt); err != nil {
				conn.Close()
				return nil, fmt.Errorf("apply migration %s: %w", f.name, err)
			}
		}
		logger.WithField("file", f.name).Debug("applied clickhouse migration")
	}
	return conn, nil
}

// splitStatements splits a file on semicolons after dropping "--" comment
// lines. The native protocol executes one statement per call, and this
// splitter rejects files with a semicolon inside a quoted string.
func splitStatements(input string) ([]string, error) {
	var b strings.Builder
	for _, line := range strings.Split(input, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	body := b.String()

	quoted := false
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '\'':
			if quoted && i+1 < len(body) && body[i+1] == '\'' {
				i++
				continue
			}
			quoted = !quoted
		case ';':
			if quoted {
				return nil, fmt.Errorf("semicolon inside string literal at offset %d", i)
			}
		}
	}

	var stmts []string
	for _, part := range strings.Split(body, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts, nil
}
