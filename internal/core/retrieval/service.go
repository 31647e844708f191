package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jinford/polidex/internal/core/apperr"
	"github.com/jinford/polidex/internal/core/querylog"
	"github.com/jinford/polidex/internal/core/vectorindex"
)

const (
	// DefaultTopK は取得チャンク数のデフォルト
	DefaultTopK = 5
	// MaxTopK は取得チャンク数の上限
	MaxTopK = 50
	// DefaultPreviewLength は Source.Content の最大文字数
	DefaultPreviewLength = 500
	// DefaultCallTimeout は外部呼び出し1回あたりのデフォルトタイムアウト
	DefaultCallTimeout = 60 * time.Second

	// NoContextAnswer は関連チャンクが見つからなかった場合の固定回答
	NoContextAnswer = "I couldn't find any relevant information in the knowledge base to answer your question."
)

// QueryRecorder は問い合わせ履歴の記録インターフェース
type QueryRecorder interface {
	Record(ctx context.Context, entry querylog.Entry) error
}

// Service は質問応答（Embedding → 類似検索 → コンテキスト組み立て → 生成）を提供する
type Service struct {
	index         vectorindex.Index
	embedder      Embedder
	generator     Generator
	recorder      QueryRecorder
	tokenCounter  TokenCounter
	previewLength int
	callTimeout   time.Duration
	now           func() time.Time
	logger        *slog.Logger
}

// ServiceOption は Service のオプション設定
type ServiceOption func(*Service)

// WithRetrievalLogger は Service にロガーを設定する
func WithRetrievalLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithQueryRecorder は問い合わせ履歴の記録先を設定する
func WithQueryRecorder(recorder QueryRecorder) ServiceOption {
	return func(s *Service) {
		s.recorder = recorder
	}
}

// WithTokenCounter はコンテキストのトークン数ログ出力を有効にする
func WithTokenCounter(counter TokenCounter) ServiceOption {
	return func(s *Service) {
		s.tokenCounter = counter
	}
}

// WithPreviewLength は Source.Content の最大文字数を上書きする
func WithPreviewLength(length int) ServiceOption {
	return func(s *Service) {
		s.previewLength = length
	}
}

// WithCallTimeout は外部呼び出し1回あたりのタイムアウトを上書きする
func WithCallTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		s.callTimeout = timeout
	}
}

// withClock は計測に使う時計を差し替える（テスト用）
func withClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService は新しい Service を作成する
func NewService(
	index vectorindex.Index,
	embedder Embedder,
	generator Generator,
	opts ...ServiceOption,
) *Service {
	svc := &Service{
		index:         index,
		embedder:      embedder,
		generator:     generator,
		previewLength: DefaultPreviewLength,
		callTimeout:   DefaultCallTimeout,
		now:           time.Now,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	if svc.logger == nil {
		svc.logger = slog.Default()
	}

	return svc
}

// Query はスペース内の文書を検索し、その内容に基づいて回答を生成する
// 関連チャンクが無い場合は生成モデルを呼ばずに固定回答を返す
func (s *Service) Query(ctx context.Context, params QueryParams) (*Result, error) {
	// 1. バリデーション
	question := strings.TrimSpace(params.Question)
	if question == "" {
		return nil, apperr.Validation("question is required")
	}
	if params.SpaceID == uuid.Nil {
		return nil, apperr.Validation("spaceID is required")
	}

	// 2. デフォルト値の設定
	topK := params.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		return nil, apperr.Validation("topK must be between 1 and %d", MaxTopK)
	}
	channel := params.Channel
	if channel == "" {
		channel = ChannelChat
	}

	startedAt := s.now()

	// 3. 質問文をEmbeddingに変換
	queryVector, err := s.embed(ctx, question)
	if err != nil {
		return nil, apperr.Upstream("embed query", err)
	}

	// 4. スペースで絞り込んだ類似検索
	neighbors, err := s.search(ctx, queryVector, topK, params.SpaceID)
	if err != nil {
		return nil, apperr.Upstream("query vector index", err)
	}

	s.logger.Info("vector search completed",
		"spaceID", params.SpaceID,
		"topK", topK,
		"chunks", len(neighbors),
	)

	if len(neighbors) == 0 {
		model := params.Model
		if model == "" {
			model = s.generator.DefaultModel()
		}
		result := &Result{
			Answer:  NoContextAnswer,
			Sources: []Source{},
			Model:   model,
		}
		result.Latency = s.now().Sub(startedAt)
		s.record(ctx, params, channel, result)
		return result, nil
	}

	// 5. ソースとコンテキストを順位順に組み立てる
	metric := s.index.Metric()
	sources := make([]Source, 0, len(neighbors))
	contexts := make([]string, 0, len(neighbors))
	for _, n := range neighbors {
		score, err := vectorindex.Score(metric, n.Distance)
		if err != nil {
			return nil, fmt.Errorf("invalid neighbor %s: %w", n.ExternalID, err)
		}
		sources = append(sources, Source{
			DocumentID: n.Metadata.DocumentID,
			Filename:   n.Metadata.Filename,
			ChunkIndex: n.Metadata.ChunkIndex,
			Content:    Preview(n.Content, s.previewLength),
			Score:      score,
		})
		contexts = append(contexts, n.Content)
	}

	// 6. 生成
	messages := BuildMessages(params.SystemPrompt, question, contexts)
	if s.tokenCounter != nil {
		s.logger.Debug("prompt built", "contextTokens", s.tokenCounter.CountTokens(messages[len(messages)-1].Content))
	}

	generation, err := s.generate(ctx, GenerateRequest{Messages: messages, Model: params.Model})
	if err != nil {
		return nil, apperr.Upstream("generate answer", err)
	}

	model := generation.Model
	if model == "" {
		model = params.Model
	}

	result := &Result{
		Answer:          generation.Text,
		Sources:         sources,
		ChunksRetrieved: len(sources),
		Model:           model,
		Usage:           generation.Usage,
	}
	result.Latency = s.now().Sub(startedAt)

	s.logger.Info("query completed",
		"spaceID", params.SpaceID,
		"chunksRetrieved", result.ChunksRetrieved,
		"model", result.Model,
		"latency", result.Latency,
	)

	s.record(ctx, params, channel, result)

	return result, nil
}

func (s *Service) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := s.withCallTimeout(ctx)
	defer cancel()
	return s.embedder.Embed(ctx, text)
}

func (s *Service) search(ctx context.Context, vector []float32, k int, spaceID uuid.UUID) ([]vectorindex.Neighbor, error) {
	ctx, cancel := s.withCallTimeout(ctx)
	defer cancel()
	return s.index.Query(ctx, vector, k, vectorindex.ForSpace(spaceID))
}

func (s *Service) generate(ctx context.Context, req GenerateRequest) (*Generation, error) {
	ctx, cancel := s.withCallTimeout(ctx)
	defer cancel()
	return s.generator.Generate(ctx, req)
}

// record は問い合わせ履歴を保存する。失敗しても応答は返す
func (s *Service) record(ctx context.Context, params QueryParams, channel Channel, result *Result) {
	if s.recorder == nil {
		return
	}

	entry := querylog.Entry{
		CredentialID:    params.CredentialID,
		Query:           params.Question,
		Response:        result.Answer,
		ChunksRetrieved: result.ChunksRetrieved,
		Latency:         result.Latency,
		Model:           result.Model,
		Source:          string(channel),
	}
	if err := s.recorder.Record(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Warn("failed to record query log", "error", err)
	}
}

func (s *Service) withCallTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.callTimeout)
}
