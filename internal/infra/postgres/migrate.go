package postgres

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"text/template"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jinford/polidex/internal/infra/postgres/migrations"
)

// MigrationParams はマイグレーションのテンプレート変数
type MigrationParams struct {
	Dimension int
}

// Migrate は未適用のマイグレーションを番号順に適用し、適用したファイル名を返す
// 複数プロセスからの同時実行はアドバイザリロックで直列化する
func Migrate(ctx context.Context, pool *pgxpool.Pool, params MigrationParams, logger *slog.Logger) ([]string, error) {
	if params.Dimension <= 0 {
		return nil, fmt.Errorf("dimension must be > 0")
	}
	if logger == nil {
		logger = slog.Default()
	}

	release, err := NewAdvisoryLocker(pool, logger).Lock(ctx, GenerateLockID("polidex", "migrate"))
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	if err := pool.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return nil, fmt.Errorf("failed to get current version: %w", err)
	}

	files, err := upFiles(migrations.FS)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, name := range files {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}

		sql, err := renderMigration(migrations.FS, name, params)
		if err != nil {
			return applied, err
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return applied, fmt.Errorf("failed to begin transaction: %w", err)
		}
		if _, err := tx.Exec(ctx, sql); err != nil {
			_ = tx.Rollback(ctx)
			return applied, fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
		if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version, name) VALUES ($1, $2)", version, name); err != nil {
			_ = tx.Rollback(ctx)
			return applied, fmt.Errorf("failed to record migration %s: %w", name, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return applied, fmt.Errorf("failed to commit migration %s: %w", name, err)
		}

		logger.Info("マイグレーションを適用", "name", name)
		applied = append(applied, name)
	}

	return applied, nil
}

func upFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func renderMigration(fsys fs.FS, name string, params MigrationParams) (string, error) {
	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		return "", fmt.Errorf("failed to read migration %s: %w", name, err)
	}
	tmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse migration %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("failed to render migration %s: %w", name, err)
	}
	return buf.String(), nil
}
