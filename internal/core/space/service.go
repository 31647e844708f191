package space

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/jinford/polidex/internal/core/apperr"
)

const (
	maxNameLength        = 255
	maxDescriptionLength = 500
)

// Repository はスペースのデータアクセスインターフェース
type Repository interface {
	// CreateSpace は名前が重複した場合 apperr.ErrConflict を返す
	CreateSpace(ctx context.Context, s *Space) error
	GetSpace(ctx context.Context, id uuid.UUID) (mo.Option[*SpaceWithStats], error)
	GetSpaceByName(ctx context.Context, name string) (mo.Option[*Space], error)
	ListSpaces(ctx context.Context) ([]*SpaceWithStats, error)
	// DeleteSpace は所属関係とスペースのAPIキーを連鎖削除する。対象が存在した場合 true
	DeleteSpace(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service はスペース管理のユースケースを提供する
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// ServiceOption は Service のオプション設定
type ServiceOption func(*Service)

// WithSpaceLogger は Service にロガーを設定する
func WithSpaceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService は新しい Service を作成する
func NewService(repo Repository, opts ...ServiceOption) *Service {
	svc := &Service{repo: repo, logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

// Create はスペースを作成する
func (s *Service) Create(ctx context.Context, name string, description *string) (*Space, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, apperr.Validation("name must be at most %d characters", maxNameLength)
	}
	if description != nil && utf8.RuneCountInString(*description) > maxDescriptionLength {
		return nil, apperr.Validation("description must be at most %d characters", maxDescriptionLength)
	}

	sp := &Space{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
	}
	if err := s.repo.CreateSpace(ctx, sp); err != nil {
		return nil, fmt.Errorf("failed to create space: %w", err)
	}

	s.logger.Info("スペースを作成", "spaceID", sp.ID, "name", sp.Name)
	return sp, nil
}

// Get はスペースを取得する
func (s *Service) Get(ctx context.Context, id uuid.UUID) (mo.Option[*SpaceWithStats], error) {
	sp, err := s.repo.GetSpace(ctx, id)
	if err != nil {
		return mo.None[*SpaceWithStats](), fmt.Errorf("failed to get space: %w", err)
	}
	return sp, nil
}

// GetByName は名前でスペースを取得する
func (s *Service) GetByName(ctx context.Context, name string) (mo.Option[*Space], error) {
	sp, err := s.repo.GetSpaceByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return mo.None[*Space](), fmt.Errorf("failed to get space: %w", err)
	}
	return sp, nil
}

// List はスペース一覧を新しい順に返す
func (s *Service) List(ctx context.Context) ([]*SpaceWithStats, error) {
	spaces, err := s.repo.ListSpaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list spaces: %w", err)
	}
	return spaces, nil
}

// Delete はスペースを削除する
// 文書自体は削除せず所属関係のみを外す。スペースのAPIキーは連鎖削除される
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	found, err := s.repo.DeleteSpace(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete space: %w", err)
	}
	if !found {
		return apperr.NotFound("space", id)
	}

	s.logger.Info("スペースを削除", "spaceID", id)
	return nil
}
