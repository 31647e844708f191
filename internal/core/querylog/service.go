package querylog

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/jinford/polidex/internal/core/apperr"
)

const (
	// DefaultRecentLimit は履歴取得件数のデフォルト
	DefaultRecentLimit = 100
	// MaxRecentLimit は履歴取得件数の上限
	MaxRecentLimit = 500
)

// Repository は問い合わせ履歴のデータアクセスインターフェース
type Repository interface {
	InsertQueryLog(ctx context.Context, entry Entry) error
	ListRecentQueryLogs(ctx context.Context, limit int) ([]*Log, error)
	GetStats(ctx context.Context) (*Stats, error)
}

// Service は問い合わせ履歴のユースケースを提供する
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// ServiceOption は Service のオプション設定
type ServiceOption func(*Service)

// WithQueryLogLogger は Service にロガーを設定する
func WithQueryLogLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService は新しい Service を作成する
func NewService(repo Repository, opts ...ServiceOption) *Service {
	svc := &Service{
		repo:   repo,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

// Record は問い合わせ履歴を1件保存する
func (s *Service) Record(ctx context.Context, entry Entry) error {
	if err := s.repo.InsertQueryLog(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert query log: %w", err)
	}
	return nil
}

// Recent は新しい順に履歴を返す
// limit が0以下ならデフォルト値を使い、上限を超える場合はエラー
func (s *Service) Recent(ctx context.Context, limit int) ([]*Log, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		return nil, apperr.Validation("limit must be between 1 and %d", MaxRecentLimit)
	}

	logs, err := s.repo.ListRecentQueryLogs(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list query logs: %w", err)
	}
	return logs, nil
}

// Stats は集計値を返す（平均値は小数第2位で丸める）
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	stats, err := s.repo.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	stats.AvgLatencyMS = round2(stats.AvgLatencyMS)
	stats.AvgChunksRetrieved = round2(stats.AvgChunksRetrieved)
	return stats, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
