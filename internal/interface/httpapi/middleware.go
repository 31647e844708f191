package httpapi

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"math"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jinford/polidex/internal/core/credential"
)

const (
	headerAPIKey    = "X-API-Key"
	headerRequestID = "X-Request-ID"

	ctxKeyRequestID  = "requestID"
	ctxKeyCredential = "credential"

	usageRecordTimeout = 5 * time.Second
)

// requestIDMiddleware はリクエストIDを付与する
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(ctxKeyRequestID, requestID)
		c.Header(headerRequestID, requestID)
		c.Next()
	}
}

// loggingMiddleware はリクエストを構造化ログに出力する
func loggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "http request",
			"requestID", c.GetString(ctxKeyRequestID),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
		)
	}
}

// corsMiddleware は許可されたオリジンに CORS ヘッダーを返す
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	wildcard := slices.Contains(allowedOrigins, "*")
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (wildcard || slices.Contains(allowedOrigins, origin)) {
			if wildcard {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Access-Control-Allow-Credentials", "true")
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key, X-Request-ID")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// adminAuthMiddleware は管理 API を Bearer トークンで保護する
// トークンが未設定の場合は全て許可する
func adminAuthMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		bearer, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || bearer == "" {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		if subtle.ConstantTimeCompare([]byte(bearer), []byte(token)) != 1 {
			abortWithError(c, http.StatusForbidden, "forbidden", "invalid credentials")
			return
		}
		c.Next()
	}
}

// apiKeyMiddleware は X-API-Key を検証し、認証済みキーをコンテキストに載せる
func (s *Server) apiKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := c.GetHeader(headerAPIKey)
		if secret == "" {
			abortWithError(c, http.StatusUnauthorized, "missing_api_key", "missing API key, include the X-API-Key header")
			return
		}

		cred, ok := s.services.Credentials.Authenticate(c.Request.Context(), secret).Get()
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "invalid_api_key", "invalid or inactive API key")
			return
		}

		c.Set(ctxKeyCredential, cred)
		c.Next()
	}
}

// usageMiddleware はレート制限を通過したリクエストだけキーの利用記録を非同期で更新する
func (s *Server) usageMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if cred := credentialFrom(c); cred != nil {
			ctx := context.WithoutCancel(c.Request.Context())
			s.goBackground(func() {
				usageCtx, cancel := context.WithTimeout(ctx, usageRecordTimeout)
				defer cancel()
				s.services.Credentials.RecordUsage(usageCtx, cred)
			})
		}
		c.Next()
	}
}

// rateLimitMiddleware は認証済みキーごとにリクエスト数を制限する
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(math.Ceil(1 / s.cfg.RateLimit)))
	return func(c *gin.Context) {
		cred := credentialFrom(c)
		if cred == nil {
			c.Next()
			return
		}
		if !s.limiter.Allow(cred.ID.String()) {
			c.Header("Retry-After", retryAfter)
			abortWithError(c, http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests, please try again later")
			return
		}
		c.Next()
	}
}

func credentialFrom(c *gin.Context) *credential.Credential {
	v, ok := c.Get(ctxKeyCredential)
	if !ok {
		return nil
	}
	cred, _ := v.(*credential.Credential)
	return cred
}

// keyedLimiter はキーごとのトークンバケット
// 一定時間使われていないバケットは次回の掃除で破棄する
type keyedLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	entries   map[string]*limiterEntry
	now       func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newKeyedLimiter(perSecond float64, burst int) *keyedLimiter {
	return &keyedLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idleTTL: 10 * time.Minute,
		entries: make(map[string]*limiterEntry),
		now:     time.Now,
	}
}

// Allow はキーのリクエストを1件許可できるかを返す
func (l *keyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > l.idleTTL {
		for k, e := range l.entries {
			if now.Sub(e.lastSeen) > l.idleTTL {
				delete(l.entries, k)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

func (l *keyedLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
