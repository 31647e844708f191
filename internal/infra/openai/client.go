// Package openai は OpenAI 互換 API（OpenAI / OpenRouter）へのアダプタを提供する。
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/jinford/polidex/internal/core/retrieval"
)

const (
	// DefaultChatBaseURL は OpenRouter のエンドポイント
	DefaultChatBaseURL = "https://openrouter.ai/api/v1"

	// DefaultChatModel はデフォルトで使用する生成モデル
	DefaultChatModel = "anthropic/claude-3-haiku"

	// DefaultTimeout はAPI呼び出しのデフォルトタイムアウト
	DefaultTimeout = 60 * time.Second

	// DefaultTemperature は生成時の温度
	DefaultTemperature = 0.7

	// DefaultMaxTokens は生成トークン数の上限
	DefaultMaxTokens = 1024

	referer = "https://polidex.app"
	title   = "Polidex RAG"
)

var (
	// ErrAPIKeyNotSet はAPIキーが設定されていない場合のエラー
	ErrAPIKeyNotSet = errors.New("chat API key not set: please set OPENROUTER_API_KEY environment variable")

	// ErrEmptyResponse は生成結果が空の場合のエラー
	ErrEmptyResponse = errors.New("no completion choices returned")
)

// ChatClient は OpenAI 互換のチャット補完 API を使用した retrieval.Generator 実装
// リトライは行わず、失敗はそのまま呼び出し元へ返す
type ChatClient struct {
	client      openai.Client
	model       string
	timeout     time.Duration
	temperature float64
	maxTokens   int
}

type chatOptions struct {
	baseURL     string
	model       string
	timeout     time.Duration
	temperature float64
	maxTokens   int
}

// ChatOption は ChatClient のオプション設定
type ChatOption func(*chatOptions)

// WithBaseURL は API のベースURLを上書きする
func WithBaseURL(baseURL string) ChatOption {
	return func(o *chatOptions) {
		if baseURL != "" {
			o.baseURL = baseURL
		}
	}
}

// WithChatModel はデフォルトモデルを上書きする
func WithChatModel(model string) ChatOption {
	return func(o *chatOptions) {
		if model != "" {
			o.model = model
		}
	}
}

// WithTimeout はAPIコールのタイムアウトを設定する
func WithTimeout(timeout time.Duration) ChatOption {
	return func(o *chatOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithTemperature は生成時の温度を設定する
func WithTemperature(temperature float64) ChatOption {
	return func(o *chatOptions) {
		o.temperature = temperature
	}
}

// WithMaxTokens は生成トークン数の上限を設定する
func WithMaxTokens(n int) ChatOption {
	return func(o *chatOptions) {
		if n > 0 {
			o.maxTokens = n
		}
	}
}

// NewChatClient は新しい ChatClient を作成する
func NewChatClient(apiKey string, opts ...ChatOption) (*ChatClient, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	options := chatOptions{
		baseURL:     DefaultChatBaseURL,
		model:       DefaultChatModel,
		timeout:     DefaultTimeout,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(&options)
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(withTrailingSlash(options.baseURL)),
		option.WithHeader("HTTP-Referer", referer),
		option.WithHeader("X-Title", title),
		option.WithMaxRetries(0),
	)

	return &ChatClient{
		client:      client,
		model:       options.model,
		timeout:     options.timeout,
		temperature: options.temperature,
		maxTokens:   options.maxTokens,
	}, nil
}

// DefaultModel はモデル名を返す
func (c *ChatClient) DefaultModel() string {
	return c.model
}

// Generate はメッセージ列から回答を生成する
func (c *ChatClient) Generate(ctx context.Context, req retrieval.GenerateRequest) (*retrieval.Generation, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case retrieval.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(model),
		Messages:    messages,
		Temperature: openai.Float(c.temperature),
		MaxTokens:   openai.Int(int64(c.maxTokens)),
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, describeError(err)
	}

	if len(completion.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	respModel := completion.Model
	if respModel == "" {
		respModel = model
	}

	return &retrieval.Generation{
		Text:  completion.Choices[0].Message.Content,
		Model: respModel,
		Usage: retrieval.Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}, nil
}

// describeError は API エラーをステータスコード付きのエラーに変換する
func describeError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 401, 403:
			return fmt.Errorf("chat API authentication failed (status %d): %w", apiErr.StatusCode, err)
		case 429:
			return fmt.Errorf("chat API rate limited: %w", err)
		default:
			return fmt.Errorf("chat API call failed (status %d): %w", apiErr.StatusCode, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("chat API call timed out: %w", err)
	}
	return fmt.Errorf("chat API call failed: %w", err)
}

func withTrailingSlash(u string) string {
	if strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}

// インターフェース実装の確認
var _ retrieval.Generator = (*ChatClient)(nil)
