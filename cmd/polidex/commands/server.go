package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/jinford/polidex/internal/interface/httpapi"
)

// ServerStartAction はHTTPサーバを起動するコマンドのアクション
func ServerStartAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	cfg := appCtx.Config
	port := cfg.Server.Port
	if cmd.IsSet("port") {
		port = cmd.Int("port")
	}

	if cfg.Server.AdminToken == "" {
		appCtx.Logger().Warn("POLIDEX_ADMIN_TOKEN is not set; management API is unprotected")
	}

	c := appCtx.Container
	srv, err := httpapi.New(httpapi.Config{
		Addr:            fmt.Sprintf(":%d", port),
		AdminToken:      cfg.Server.AdminToken,
		RateLimit:       cfg.Server.RateLimit,
		RateBurst:       cfg.Server.RateBurst,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		MaxUploadSize:   cfg.Storage.MaxUploadSize,
		ShutdownTimeout: cfg.Timeouts.ShutdownTimeout,
	}, httpapi.Services{
		Query:       c.Retrieval,
		Credentials: c.Credentials,
		Spaces:      c.Spaces,
		Documents:   c.Documents,
		Stats:       c.QueryLogs,
	},
		httpapi.WithServerLogger(appCtx.Logger()),
		httpapi.WithHealthCheck(c.Database().Ping),
	)
	if err != nil {
		return fmt.Errorf("サーバーの初期化に失敗: %w", err)
	}

	return srv.Run(ctx)
}
