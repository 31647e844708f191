// Package config は環境変数と .env ファイルからアプリケーション設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// VectorBackend はベクトルインデックスの保存先
const (
	VectorBackendPgvector = "pgvector"
	VectorBackendSQLite   = "sqlite"
	VectorBackendMemory   = "memory"
)

// Config はアプリケーション全体の設定を保持する
type Config struct {
	Database    DatabaseConfig
	OpenAI      OpenAIConfig
	LLM         LLMConfig
	Chunking    ChunkingConfig
	Retrieval   RetrievalConfig
	VectorIndex VectorIndexConfig
	Storage     StorageConfig
	Server      ServerConfig
	Timeouts    TimeoutConfig
	Log         LogConfig
}

// DatabaseConfig はデータベース接続設定
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

// OpenAIConfig は Embedding 用 OpenAI API 設定
type OpenAIConfig struct {
	APIKey             string
	BaseURL            string
	EmbeddingModel     string
	EmbeddingDimension int
	EmbeddingBatchSize int
}

// LLMConfig は回答生成用の OpenAI 互換 API 設定（OpenRouter）
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
}

// ChunkingConfig はチャンク分割設定
type ChunkingConfig struct {
	Size     int
	Overlap  int
	Lookback int
}

// RetrievalConfig は検索設定
type RetrievalConfig struct {
	TopK          int
	PreviewLength int
}

// VectorIndexConfig はベクトルインデックス設定
type VectorIndexConfig struct {
	Backend    string
	SQLitePath string
}

// StorageConfig はアップロードファイルの保存設定
type StorageConfig struct {
	UploadDir     string
	MaxUploadSize int64
}

// ServerConfig は HTTP サーバー設定
type ServerConfig struct {
	Port           int
	AdminToken     string
	RateLimit      float64 // APIキーごとの毎秒リクエスト数
	RateBurst      int
	AllowedOrigins []string
	KeyPepper      string
}

// TimeoutConfig は外部呼び出しのタイムアウト設定
type TimeoutConfig struct {
	Call            time.Duration
	ShutdownTimeout time.Duration
}

// LogConfig はログ設定
type LogConfig struct {
	Level  string
	Format string
}

// ConnString は pgx 用の接続文字列を返す
func (d DatabaseConfig) ConnString() string {
	s := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
	if d.MaxConns > 0 {
		s += fmt.Sprintf(" pool_max_conns=%d", d.MaxConns)
	}
	return s
}

// Load は環境変数または.envファイルから設定を読み込む
func Load(envFilePath string) (*Config, error) {
	// .envファイルが存在する場合は読み込む
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			// ファイルが存在しない場合はエラーとしない（環境変数のみで動作可能）
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "polidex"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "polidex"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 0),
		},
		OpenAI: OpenAIConfig{
			APIKey:             getEnv("OPENAI_API_KEY", ""),
			BaseURL:            getEnv("OPENAI_BASE_URL", ""),
			EmbeddingModel:     getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDimension: getEnvAsInt("OPENAI_EMBEDDING_DIMENSION", 1536),
			EmbeddingBatchSize: getEnvAsInt("OPENAI_EMBEDDING_BATCH_SIZE", 100),
		},
		LLM: LLMConfig{
			APIKey:      getEnv("OPENROUTER_API_KEY", ""),
			BaseURL:     getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			Model:       getEnv("LLM_MODEL", "anthropic/claude-3-haiku"),
			Temperature: getEnvAsFloat("LLM_TEMPERATURE", 0.7),
			MaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 1024),
		},
		Chunking: ChunkingConfig{
			Size:     getEnvAsInt("CHUNK_SIZE", 1000),
			Overlap:  getEnvAsInt("CHUNK_OVERLAP", 200),
			Lookback: getEnvAsInt("CHUNK_LOOKBACK", 200),
		},
		Retrieval: RetrievalConfig{
			TopK:          getEnvAsInt("RETRIEVAL_TOP_K", 5),
			PreviewLength: getEnvAsInt("RETRIEVAL_PREVIEW_LENGTH", 500),
		},
		VectorIndex: VectorIndexConfig{
			Backend:    getEnv("VECTOR_BACKEND", VectorBackendPgvector),
			SQLitePath: getEnv("VECTOR_SQLITE_PATH", "./data/vectors.db"),
		},
		Storage: StorageConfig{
			UploadDir:     getEnv("UPLOAD_DIR", "./data/uploads"),
			MaxUploadSize: int64(getEnvAsInt("MAX_UPLOAD_SIZE", 50<<20)),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AdminToken:     getEnv("POLIDEX_ADMIN_TOKEN", ""),
			RateLimit:      getEnvAsFloat("API_RATE_LIMIT", 5),
			RateBurst:      getEnvAsInt("API_RATE_BURST", 10),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			KeyPepper:      getEnv("API_KEY_PEPPER", ""),
		},
		Timeouts: TimeoutConfig{
			Call:            getEnvAsDuration("CALL_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// Validate は設定値の整合性を検証する
func (c *Config) Validate() error {
	var errs []error

	if c.OpenAI.EmbeddingDimension <= 0 {
		errs = append(errs, errors.New("OPENAI_EMBEDDING_DIMENSION must be positive"))
	}
	if c.OpenAI.EmbeddingBatchSize <= 0 {
		errs = append(errs, errors.New("OPENAI_EMBEDDING_BATCH_SIZE must be positive"))
	}
	if c.Chunking.Size <= 0 {
		errs = append(errs, errors.New("CHUNK_SIZE must be positive"))
	}
	if c.Chunking.Overlap < 0 {
		errs = append(errs, errors.New("CHUNK_OVERLAP must not be negative"))
	}
	if c.Chunking.Lookback < 0 {
		errs = append(errs, errors.New("CHUNK_LOOKBACK must not be negative"))
	}
	if c.Retrieval.TopK <= 0 || c.Retrieval.TopK > 50 {
		errs = append(errs, errors.New("RETRIEVAL_TOP_K must be between 1 and 50"))
	}
	if c.Retrieval.PreviewLength <= 0 {
		errs = append(errs, errors.New("RETRIEVAL_PREVIEW_LENGTH must be positive"))
	}
	switch c.VectorIndex.Backend {
	case VectorBackendPgvector, VectorBackendMemory:
	case VectorBackendSQLite:
		if c.VectorIndex.SQLitePath == "" {
			errs = append(errs, errors.New("VECTOR_SQLITE_PATH is required for sqlite backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown VECTOR_BACKEND: %q", c.VectorIndex.Backend))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, errors.New("SERVER_PORT must be between 1 and 65535"))
	}
	if c.Server.RateLimit <= 0 || c.Server.RateBurst <= 0 {
		errs = append(errs, errors.New("API_RATE_LIMIT and API_RATE_BURST must be positive"))
	}
	if c.Timeouts.Call <= 0 {
		errs = append(errs, errors.New("CALL_TIMEOUT must be positive"))
	}

	return errors.Join(errs...)
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返す
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt は環境変数を整数として取得する
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat は環境変数を浮動小数点数として取得する
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration は環境変数を time.Duration として取得する（"30s" 形式）
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList はカンマ区切りの環境変数をスライスとして取得する
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
