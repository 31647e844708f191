// Package httpapi は gin による HTTP インターフェースを提供する。
//
// 外部向けの /api/v1 は X-API-Key で認証し、キーに紐づくスペースだけを検索する。
// 管理用の /api 配下は Bearer トークンで保護する（トークン未設定時は保護しない）。
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/jinford/polidex/internal/core/credential"
	"github.com/jinford/polidex/internal/core/document"
	"github.com/jinford/polidex/internal/core/querylog"
	"github.com/jinford/polidex/internal/core/retrieval"
	"github.com/jinford/polidex/internal/core/space"
)

// QueryService は質問応答
type QueryService interface {
	Query(ctx context.Context, params retrieval.QueryParams) (*retrieval.Result, error)
}

// CredentialService は API キーの発行・認証・管理
type CredentialService interface {
	Issue(ctx context.Context, name string, spaceID uuid.UUID) (*credential.Credential, string, error)
	Authenticate(ctx context.Context, secret string) mo.Option[*credential.Credential]
	RecordUsage(ctx context.Context, cred *credential.Credential)
	Revoke(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, spaceID mo.Option[uuid.UUID]) ([]*credential.Credential, error)
}

// SpaceService はスペース管理
type SpaceService interface {
	Create(ctx context.Context, name string, description *string) (*space.Space, error)
	Get(ctx context.Context, id uuid.UUID) (mo.Option[*space.SpaceWithStats], error)
	List(ctx context.Context) ([]*space.SpaceWithStats, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// DocumentService は文書管理
type DocumentService interface {
	Upload(ctx context.Context, params document.UploadParams) (*document.Document, error)
	Get(ctx context.Context, id uuid.UUID) (mo.Option[*document.Document], error)
	List(ctx context.Context, spaceID mo.Option[uuid.UUID]) ([]*document.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Reprocess(ctx context.Context, id uuid.UUID) (int, error)
	SetSpaces(ctx context.Context, id uuid.UUID, spaceIDs []uuid.UUID) (int, error)
}

// StatsService は問い合わせ履歴と集計
type StatsService interface {
	Recent(ctx context.Context, limit int) ([]*querylog.Log, error)
	Stats(ctx context.Context) (*querylog.Stats, error)
}

// Services はハンドラが利用するサービス群
type Services struct {
	Query       QueryService
	Credentials CredentialService
	Spaces      SpaceService
	Documents   DocumentService
	Stats       StatsService
}

// Config は HTTP サーバーの設定
type Config struct {
	Addr            string
	AdminToken      string
	RateLimit       float64 // APIキーごとの毎秒リクエスト数
	RateBurst       int
	AllowedOrigins  []string
	MaxUploadSize   int64
	ShutdownTimeout time.Duration
}

// Server は HTTP サーバー
type Server struct {
	cfg      Config
	services Services
	router   *gin.Engine
	limiter  *keyedLimiter
	health   func(ctx context.Context) error
	logger   *slog.Logger

	background sync.WaitGroup
}

// Option は Server のオプション設定
type Option func(*Server)

// WithServerLogger はロガーを設定する
func WithServerLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithHealthCheck はヘルスチェックで呼び出す確認処理を設定する
func WithHealthCheck(check func(ctx context.Context) error) Option {
	return func(s *Server) {
		s.health = check
	}
}

// New は新しい Server を作成する
func New(cfg Config, services Services, opts ...Option) (*Server, error) {
	if services.Query == nil || services.Credentials == nil || services.Spaces == nil ||
		services.Documents == nil || services.Stats == nil {
		return nil, errors.New("all services are required")
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 5
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 10
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = 50 << 20
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		cfg:      cfg,
		services: services,
		router:   gin.New(),
		limiter:  newKeyedLimiter(cfg.RateLimit, cfg.RateBurst),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// Handler は http.Handler を返す
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はサーバーを起動し、ctx がキャンセルされるとグレースフルに停止する
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTPサーバーを起動", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("HTTPサーバーを停止中")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown: %w", err)
	}
	s.Wait()
	return nil
}

// Wait はバックグラウンドで実行中の処理（利用記録など）の完了を待つ
func (s *Server) Wait() {
	s.background.Wait()
}

func (s *Server) goBackground(fn func()) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		fn()
	}()
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(loggingMiddleware(s.logger))
	s.router.Use(corsMiddleware(s.cfg.AllowedOrigins))
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	// 外部向け API
	v1 := s.router.Group("/api/v1")
	v1.GET("/health", s.handleHealth)
	v1.POST("/query", s.apiKeyMiddleware(), s.rateLimitMiddleware(), s.usageMiddleware(), s.handleExternalQuery)

	// 管理 API
	admin := s.router.Group("/api", adminAuthMiddleware(s.cfg.AdminToken))

	admin.POST("/chat/query", s.handleChatQuery)

	spaces := admin.Group("/spaces")
	spaces.POST("", s.handleCreateSpace)
	spaces.GET("", s.handleListSpaces)
	spaces.GET("/:id", s.handleGetSpace)
	spaces.DELETE("/:id", s.handleDeleteSpace)

	documents := admin.Group("/documents")
	documents.POST("", s.handleUploadDocument)
	documents.GET("", s.handleListDocuments)
	documents.GET("/:id", s.handleGetDocument)
	documents.DELETE("/:id", s.handleDeleteDocument)
	documents.POST("/:id/reprocess", s.handleReprocessDocument)
	documents.PUT("/:id/spaces", s.handleSetDocumentSpaces)

	keys := admin.Group("/api-keys")
	keys.POST("", s.handleIssueKey)
	keys.GET("", s.handleListKeys)
	keys.POST("/:id/revoke", s.handleRevokeKey)
	keys.DELETE("/:id", s.handleDeleteKey)

	stats := admin.Group("/stats")
	stats.GET("/overview", s.handleStatsOverview)
	stats.GET("/logs", s.handleQueryLogs)
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := s.health(ctx); err != nil {
			s.logger.Warn("health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
