package retrieval

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
)

// Channel は問い合わせの経路を表す
type Channel string

const (
	// ChannelChat は管理画面のチャットからの問い合わせ
	ChannelChat Channel = "chat"
	// ChannelAPI はAPIキーによる外部からの問い合わせ
	ChannelAPI Channel = "api"
)

// QueryParams は質問応答のパラメータを表す
type QueryParams struct {
	Question     string               // ユーザーの質問文
	SpaceID      uuid.UUID            // 検索対象のスペース
	TopK         int                  // 取得するチャンク数の上限（デフォルト: 5）
	Model        string               // 生成モデル（空なら Generator の既定）
	SystemPrompt string               // システムプロンプトの上書き（空なら既定）
	CredentialID mo.Option[uuid.UUID] // APIキー経由の場合のキーID
	Channel      Channel              // 問い合わせ経路（デフォルト: chat）
}

// Source は回答の根拠となったチャンクを表す
type Source struct {
	DocumentID uuid.UUID
	Filename   string
	ChunkIndex int
	Content    string  // 表示用に切り詰めた本文
	Score      float64 // 関連度スコア（1 - コサイン距離）
}

// Result は質問応答の結果を表す
type Result struct {
	Answer          string
	Sources         []Source // 関連度の降順
	ChunksRetrieved int
	Model           string
	Usage           Usage
	Latency         time.Duration
}

// Role はメッセージの送信者種別
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message は生成モデルへ渡すメッセージ
type Message struct {
	Role    Role
	Content string
}

// GenerateRequest は生成リクエスト
type GenerateRequest struct {
	Messages []Message
	Model    string
}

// Usage はトークン使用量
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Generation は生成結果
type Generation struct {
	Text  string
	Model string
	Usage Usage
}

// Generator は言語モデルによるテキスト生成インターフェース
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*Generation, error)
	DefaultModel() string
}

// Embedder は質問文のEmbedding生成インターフェース
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// TokenCounter はテキストのトークン数をカウントするインターフェース
type TokenCounter interface {
	CountTokens(text string) int
}
