package credential

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/jinford/polidex/internal/core/apperr"
)

// Repository は API キーのデータアクセスインターフェース
type Repository interface {
	SpaceExists(ctx context.Context, spaceID uuid.UUID) (bool, error)
	CreateCredential(ctx context.Context, c *Credential) error
	// FindActiveByDigest は有効なキーをダイジェストの完全一致で検索する
	FindActiveByDigest(ctx context.Context, digest string) (mo.Option[*Credential], error)
	IncrementUsage(ctx context.Context, id uuid.UUID, usedAt time.Time) error
	// Deactivate は対象が存在した場合 true を返す（失効済みでも true）
	Deactivate(ctx context.Context, id uuid.UUID) (bool, error)
	// DeleteCredential は対象が存在した場合 true を返す
	DeleteCredential(ctx context.Context, id uuid.UUID) (bool, error)
	ListCredentials(ctx context.Context, spaceID mo.Option[uuid.UUID]) ([]*Credential, error)
}

// Gate は API キーの発行・認証・利用記録・失効を提供する
type Gate struct {
	repo   Repository
	pepper []byte
	now    func() time.Time
	logger *slog.Logger
}

// GateOption は Gate のオプション設定
type GateOption func(*Gate)

// WithGateLogger は Gate にロガーを設定する
func WithGateLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) {
		g.logger = logger
	}
}

// WithPepper はダイジェスト計算に使うサーバ側の秘密値を設定する
func WithPepper(pepper string) GateOption {
	return func(g *Gate) {
		g.pepper = []byte(pepper)
	}
}

// NewGate は新しい Gate を作成する
func NewGate(repo Repository, opts ...GateOption) *Gate {
	g := &Gate{
		repo:   repo,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// Issue はスペースに紐づく新しいキーを発行する
// 平文のキーはこの戻り値でのみ取得できる
func (g *Gate) Issue(ctx context.Context, name string, spaceID uuid.UUID) (*Credential, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", apperr.Validation("name is required")
	}
	if spaceID == uuid.Nil {
		return nil, "", apperr.Validation("spaceID is required")
	}

	exists, err := g.repo.SpaceExists(ctx, spaceID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check space: %w", err)
	}
	if !exists {
		return nil, "", apperr.NotFound("space", spaceID)
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, "", err
	}

	cred := &Credential{
		ID:          uuid.New(),
		Name:        name,
		SpaceID:     spaceID,
		Digest:      digest(secret, g.pepper),
		Fingerprint: fingerprint(secret),
		Active:      true,
		CreatedAt:   g.now(),
	}
	if err := g.repo.CreateCredential(ctx, cred); err != nil {
		return nil, "", fmt.Errorf("failed to create credential: %w", err)
	}

	g.logger.Info("APIキーを発行",
		"credentialID", cred.ID,
		"spaceID", spaceID,
		"fingerprint", cred.Fingerprint,
	)

	return cred, secret, nil
}

// Authenticate はキーに対応する有効なレコードを返す
// 形式不正・未発行・失効済み・削除済み・ストア障害のいずれも None を返し、理由は区別しない
func (g *Gate) Authenticate(ctx context.Context, secret string) mo.Option[*Credential] {
	if !wellFormed(secret) {
		return mo.None[*Credential]()
	}

	d := digest(secret, g.pepper)
	found, err := g.repo.FindActiveByDigest(ctx, d)
	if err != nil {
		g.logger.Error("APIキーの照合に失敗", "fingerprint", fingerprint(secret), "error", err)
		return mo.None[*Credential]()
	}

	cred, ok := found.Get()
	if !ok || !cred.Active || subtle.ConstantTimeCompare([]byte(cred.Digest), []byte(d)) != 1 {
		return mo.None[*Credential]()
	}

	return mo.Some(cred)
}

// RecordUsage は利用回数と最終利用日時を更新する
// 失敗してもログに残すだけで呼び出し元には返さない
func (g *Gate) RecordUsage(ctx context.Context, cred *Credential) {
	if cred == nil {
		return
	}
	if err := g.repo.IncrementUsage(ctx, cred.ID, g.now()); err != nil {
		g.logger.Warn("APIキーの利用記録に失敗",
			"credentialID", cred.ID,
			"error", err,
		)
	}
}

// Revoke はキーを失効させる。存在しない場合は false を返す
func (g *Gate) Revoke(ctx context.Context, id uuid.UUID) (bool, error) {
	found, err := g.repo.Deactivate(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to revoke credential: %w", err)
	}
	if found {
		g.logger.Info("APIキーを失効", "credentialID", id)
	}
	return found, nil
}

// Delete はキーを削除する。存在しない場合は false を返す
func (g *Gate) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	found, err := g.repo.DeleteCredential(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete credential: %w", err)
	}
	if found {
		g.logger.Info("APIキーを削除", "credentialID", id)
	}
	return found, nil
}

// List はキーの一覧を返す（spaceID 指定時はそのスペースのみ）
func (g *Gate) List(ctx context.Context, spaceID mo.Option[uuid.UUID]) ([]*Credential, error) {
	creds, err := g.repo.ListCredentials(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	return creds, nil
}
