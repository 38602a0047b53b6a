package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"wallet-analytics/internal/storage/postgres"
)

// ApplyPostgres applies every embedded PostgreSQL file in lexical order inside
// one transaction. Files must be idempotent.
func ApplyPostgres(ctx context.Context, pool *postgres.Pool, logger logrus.FieldLogger) error {
	files, err := sqlFiles(PostgresFS, "postgres")
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, f := range files {
		if strings.TrimSpace(f.body) == "" {
			continue
		}
		if _, err := tx.Exec(ctx, f.body); err != nil {
			return fmt.Errorf("apply migration %s: %w", f.name, err)
		}
		logger.WithField("file", f.name).Debug("applied postgres migration")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}

type sqlFile struct {
	name string
	body string
}

// sqlFiles reads the .sql files of dir sorted by name.
func sqlFiles(fsys fs.FS, dir string) ([]sqlFile, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	files := make([]sqlFile, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, dir+"/"+name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		files = append(files, sqlFile{name: name, body: string(data)})
	}
	return files, nil
}
