package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/jinford/polidex/internal/infra/postgres"
	"github.com/jinford/polidex/internal/platform/database"
)

// DBMigrateAction はスキーマのマイグレーションを適用するコマンドのアクション
func DBMigrateAction(ctx context.Context, cmd *cli.Command) error {
	cfg, appLogger, err := loadConfig(cmd.String("env"))
	if err != nil {
		return err
	}

	db, err := database.New(ctx, cfg.Database.ConnString())
	if err != nil {
		return fmt.Errorf("データベース接続に失敗: %w", err)
	}
	defer db.Close()

	applied, err := postgres.Migrate(ctx, db.Pool, postgres.MigrationParams{
		Dimension: cfg.OpenAI.EmbeddingDimension,
	}, appLogger)
	if err != nil {
		return fmt.Errorf("マイグレーションに失敗: %w", err)
	}

	if len(applied) == 0 {
		fmt.Println("適用するマイグレーションはありません")
		return nil
	}
	for _, name := range applied {
		fmt.Printf("適用: %s\n", name)
	}
	return nil
}
