package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/jinford/polidex/internal/core/space"
	"github.com/jinford/polidex/internal/platform/config"
	"github.com/jinford/polidex/internal/platform/container"
	"github.com/jinford/polidex/internal/platform/logger"
)

// AppContext はコマンド実行に必要な共通コンテキストを保持する
type AppContext struct {
	Config    *config.Config
	Container *container.ServiceContainer
	logger    *slog.Logger
}

// loadConfig は設定を読み込んで検証し、ロガーを初期化する
// CLI の出力と混ざらないようログは標準エラーへ出す
func loadConfig(envFile string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("設定が不正です: %w", err)
	}

	logCfg, err := logger.FromStrings(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("ログ設定が不正です: %w", err)
	}
	logCfg.Output = os.Stderr

	return cfg, logger.New(logCfg), nil
}

// NewAppContext は設定ファイルを読み込み、DBに接続して AppContext を作成する
func NewAppContext(ctx context.Context, envFile string) (*AppContext, error) {
	cfg, appLogger, err := loadConfig(envFile)
	if err != nil {
		return nil, err
	}

	cont, err := container.NewContainer(ctx, cfg, container.WithContainerLogger(appLogger))
	if err != nil {
		return nil, fmt.Errorf("コンテナの初期化に失敗: %w", err)
	}

	return &AppContext{
		Config:    cfg,
		Container: cont,
		logger:    appLogger,
	}, nil
}

// Close はAppContextが保持するリソースをクリーンアップする
func (ac *AppContext) Close() {
	if ac.Container != nil {
		ac.Container.Close()
	}
}

// Logger はAppContextのロガーを返す
func (ac *AppContext) Logger() *slog.Logger {
	if ac.logger != nil {
		return ac.logger
	}
	return slog.Default()
}

// spaceFinder はスペースをIDまたは名前で引くためのインターフェース
type spaceFinder interface {
	Get(ctx context.Context, id uuid.UUID) (mo.Option[*space.SpaceWithStats], error)
	GetByName(ctx context.Context, name string) (mo.Option[*space.Space], error)
}

// resolveSpaceID は UUID またはスペース名からスペースIDを解決する
func resolveSpaceID(ctx context.Context, finder spaceFinder, ref string) (uuid.UUID, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return uuid.Nil, fmt.Errorf("スペースが指定されていません")
	}

	if id, err := uuid.Parse(ref); err == nil {
		found, err := finder.Get(ctx, id)
		if err != nil {
			return uuid.Nil, err
		}
		if found.IsAbsent() {
			return uuid.Nil, fmt.Errorf("スペースが見つかりません: %s", ref)
		}
		return id, nil
	}

	found, err := finder.GetByName(ctx, ref)
	if err != nil {
		return uuid.Nil, err
	}
	sp, ok := found.Get()
	if !ok {
		return uuid.Nil, fmt.Errorf("スペースが見つかりません: %s", ref)
	}
	return sp.ID, nil
}

// resolveSpaceIDs は複数のスペース指定を解決する
func resolveSpaceIDs(ctx context.Context, finder spaceFinder, refs []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(refs))
	for _, ref := range refs {
		id, err := resolveSpaceID(ctx, finder, ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// optionalSpaceID は空文字なら None を返す
func optionalSpaceID(ctx context.Context, finder spaceFinder, ref string) (mo.Option[uuid.UUID], error) {
	if strings.TrimSpace(ref) == "" {
		return mo.None[uuid.UUID](), nil
	}
	id, err := resolveSpaceID(ctx, finder, ref)
	if err != nil {
		return mo.None[uuid.UUID](), err
	}
	return mo.Some(id), nil
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("IDの形式が不正です: %s", s)
	}
	return id, nil
}

func formatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}
