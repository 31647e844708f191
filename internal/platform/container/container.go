package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jinford/polidex/internal/core/apperr"
	"github.com/jinford/polidex/internal/core/chunk"
	"github.com/jinford/polidex/internal/core/credential"
	"github.com/jinford/polidex/internal/core/document"
	"github.com/jinford/polidex/internal/core/ingestion"
	"github.com/jinford/polidex/internal/core/querylog"
	"github.com/jinford/polidex/internal/core/retrieval"
	"github.com/jinford/polidex/internal/core/space"
	"github.com/jinford/polidex/internal/core/vectorindex"
	"github.com/jinford/polidex/internal/infra/extract"
	"github.com/jinford/polidex/internal/infra/filesource"
	"github.com/jinford/polidex/internal/infra/filestore"
	"github.com/jinford/polidex/internal/infra/openai"
	"github.com/jinford/polidex/internal/infra/postgres"
	"github.com/jinford/polidex/internal/infra/postgres/sqlc"
	"github.com/jinford/polidex/internal/infra/sqlitevec"
	"github.com/jinford/polidex/internal/infra/tokenizer"
	"github.com/jinford/polidex/internal/platform/config"
	"github.com/jinford/polidex/internal/platform/database"
)

// ServiceContainer はアプリケーションの依存関係を保持する
type ServiceContainer struct {
	Spaces      *space.Service
	Documents   *document.Service
	Ingestion   *ingestion.Service
	Retrieval   *retrieval.Service
	Credentials *credential.Gate
	QueryLogs   *querylog.Service
	VectorIndex vectorindex.Index

	cfg      *config.Config
	logger   *slog.Logger
	database *database.DB
	closers  []func() error
}

type containerOptions struct {
	logger      *slog.Logger
	embedder    ingestion.Embedder
	generator   retrieval.Generator
	vectorIndex vectorindex.Index
}

// ContainerOption は ServiceContainer 構築時のオプション
type ContainerOption func(*containerOptions)

// WithContainerLogger はロガーを差し替える
func WithContainerLogger(logger *slog.Logger) ContainerOption {
	return func(opts *containerOptions) {
		opts.logger = logger
	}
}

// WithContainerEmbedder はカスタム Embedder を注入する
func WithContainerEmbedder(embedder ingestion.Embedder) ContainerOption {
	return func(opts *containerOptions) {
		opts.embedder = embedder
	}
}

// WithContainerGenerator は生成モデルのクライアントを差し替える
func WithContainerGenerator(generator retrieval.Generator) ContainerOption {
	return func(opts *containerOptions) {
		opts.generator = generator
	}
}

// WithContainerVectorIndex は設定のバックエンドより優先して使うベクトルインデックスを指定する
func WithContainerVectorIndex(index vectorindex.Index) ContainerOption {
	return func(opts *containerOptions) {
		opts.vectorIndex = index
	}
}

// NewContainer は設定からコンテナを生成する。
func NewContainer(ctx context.Context, cfg *config.Config, opts ...ContainerOption) (*ServiceContainer, error) {
	db, err := database.New(ctx, cfg.Database.ConnString())
	if err != nil {
		return nil, fmt.Errorf("データベース初期化に失敗しました: %w", err)
	}

	c, err := NewContainerWithDB(cfg, db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// NewContainerWithDB は既存の DB を受け取りコンテナを生成する。
func NewContainerWithDB(cfg *config.Config, db *database.DB, opts ...ContainerOption) (*ServiceContainer, error) {
	options := containerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	logger := options.logger

	c := &ServiceContainer{cfg: cfg, logger: logger, database: db}

	// Embedder (OpenAI)
	embedder := options.embedder
	if embedder == nil {
		embedder = openai.NewEmbedder(
			cfg.OpenAI.APIKey,
			openai.WithEmbeddingModel(cfg.OpenAI.EmbeddingModel),
			openai.WithEmbeddingDimension(cfg.OpenAI.EmbeddingDimension),
			openai.WithEmbeddingBaseURL(cfg.OpenAI.BaseURL),
		)
	}

	// Generator (OpenRouter)
	generator := options.generator
	if generator == nil {
		chat, err := openai.NewChatClient(
			cfg.LLM.APIKey,
			openai.WithBaseURL(cfg.LLM.BaseURL),
			openai.WithChatModel(cfg.LLM.Model),
			openai.WithTemperature(cfg.LLM.Temperature),
			openai.WithMaxTokens(cfg.LLM.MaxTokens),
			openai.WithTimeout(cfg.Timeouts.Call),
		)
		if err != nil {
			// 生成以外の管理操作は継続できるよう、問い合わせ時に失敗させる
			logger.Warn("LLM client is not configured; queries will fail", "error", err)
			generator = unavailableGenerator{model: cfg.LLM.Model, err: err}
		} else {
			generator = chat
		}
	}

	// TokenCounter (tiktoken)
	var counter *tokenizer.Counter
	if tc, err := tokenizer.NewCounter(""); err != nil {
		logger.Warn("tiktoken encoding unavailable; falling back to estimates", "error", err)
	} else {
		counter = tc
	}

	// VectorIndex
	index := options.vectorIndex
	if index == nil {
		var err error
		index, err = c.openVectorIndex(cfg, db)
		if err != nil {
			return nil, err
		}
	}
	c.VectorIndex = index

	// Repositories (PostgreSQL)
	queries := sqlc.New(db.Pool)
	spaceRepo := postgres.NewSpaceRepository(queries)
	documentRepo := postgres.NewDocumentRepository(db.Pool)
	chunkRepo := postgres.NewChunkRepository(db.Pool)
	credentialRepo := postgres.NewCredentialRepository(queries)
	queryLogRepo := postgres.NewQueryLogRepository(queries)

	// Document storage / extraction
	store, err := filestore.NewLocalStore(cfg.Storage.UploadDir)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("アップロードディレクトリの初期化に失敗しました: %w", err)
	}
	extractor := extract.NewExtractor()

	chunker := chunk.NewTextChunker(
		chunk.WithSize(cfg.Chunking.Size),
		chunk.WithOverlap(cfg.Chunking.Overlap),
		chunk.WithLookback(cfg.Chunking.Lookback),
		chunk.WithTokenCounter(counter),
	)

	c.Ingestion = ingestion.NewService(
		chunkRepo,
		index,
		embedder,
		chunker,
		document.NewTextLoader(store, extractor),
		ingestion.WithLocker(postgres.NewAdvisoryLocker(db.Pool, logger)),
		ingestion.WithEmbeddingBatchSize(cfg.OpenAI.EmbeddingBatchSize),
		ingestion.WithCallTimeout(cfg.Timeouts.Call),
		ingestion.WithIngestLogger(logger),
	)

	c.QueryLogs = querylog.NewService(queryLogRepo, querylog.WithQueryLogLogger(logger))

	c.Retrieval = retrieval.NewService(
		index,
		embedder,
		generator,
		retrieval.WithQueryRecorder(c.QueryLogs),
		retrieval.WithTokenCounter(counter),
		retrieval.WithPreviewLength(cfg.Retrieval.PreviewLength),
		retrieval.WithCallTimeout(cfg.Timeouts.Call),
		retrieval.WithRetrievalLogger(logger),
	)

	c.Spaces = space.NewService(spaceRepo, space.WithSpaceLogger(logger))

	c.Documents = document.NewService(
		documentRepo,
		store,
		extractor,
		c.Ingestion,
		document.WithDocumentLogger(logger),
	)

	c.Credentials = credential.NewGate(
		credentialRepo,
		credential.WithPepper(cfg.Server.KeyPepper),
		credential.WithGateLogger(logger),
	)

	return c, nil
}

// NewImporter はディレクトリ一括取り込み用の Importer を作成する
// ignorePatterns は .gitignore 形式で既定の除外パターンに追加される
func (c *ServiceContainer) NewImporter(concurrency int, ignorePatterns ...string) *document.Importer {
	walker := filesource.NewWalker(
		filesource.WithWalkerLogger(c.Logger()),
		filesource.WithMaxFileSize(c.cfg.Storage.MaxUploadSize),
		filesource.WithIgnorePatterns(ignorePatterns...),
	)
	return document.NewImporter(
		c.Documents,
		walker,
		document.WithImportConcurrency(concurrency),
		document.WithImporterLogger(c.Logger()),
	)
}

// openVectorIndex は設定のバックエンドに応じたベクトルインデックスを開く
func (c *ServiceContainer) openVectorIndex(cfg *config.Config, db *database.DB) (vectorindex.Index, error) {
	switch cfg.VectorIndex.Backend {
	case config.VectorBackendSQLite:
		idx, err := sqlitevec.Open(cfg.VectorIndex.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("SQLite ベクトルインデックスの初期化に失敗しました: %w", err)
		}
		c.closers = append(c.closers, idx.Close)
		c.logger.Info("vector index opened", "backend", cfg.VectorIndex.Backend, "path", cfg.VectorIndex.SQLitePath)
		return idx, nil
	case config.VectorBackendMemory:
		c.logger.Warn("using in-memory vector index; vectors are lost on restart")
		return vectorindex.NewMemoryIndex(), nil
	case config.VectorBackendPgvector, "":
		return postgres.NewVectorIndex(db.Pool, cfg.OpenAI.EmbeddingDimension), nil
	default:
		return nil, fmt.Errorf("unknown vector backend: %q", cfg.VectorIndex.Backend)
	}
}

// Close は内部リソースを解放する。
func (c *ServiceContainer) Close() {
	if c == nil {
		return
	}
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			c.Logger().Warn("failed to close resource", "error", err)
		}
	}
	c.closers = nil
	if c.database != nil {
		c.database.Close()
	}
}

// Logger はロガーを返す。
func (c *ServiceContainer) Logger() *slog.Logger {
	if c == nil || c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

// Database はデータベースを返す。
func (c *ServiceContainer) Database() *database.DB {
	if c == nil {
		return nil
	}
	return c.database
}

// unavailableGenerator は生成モデルが未設定のときに使う Generator
type unavailableGenerator struct {
	model string
	err   error
}

func (g unavailableGenerator) Generate(ctx context.Context, req retrieval.GenerateRequest) (*retrieval.Generation, error) {
	return nil, apperr.Upstream("generate", g.err)
}

func (g unavailableGenerator) DefaultModel() string {
	return g.model
}

var _ retrieval.Generator = unavailableGenerator{}
