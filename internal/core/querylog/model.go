// Package querylog は問い合わせ履歴の記録と集計を提供する。
package querylog

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
)

// Entry は記録する問い合わせ1件
type Entry struct {
	CredentialID    mo.Option[uuid.UUID]
	Query           string
	Response        string
	ChunksRetrieved int
	Latency         time.Duration
	Model           string
	Source          string // "chat" or "api"
}

// Log は保存済みの問い合わせ履歴
type Log struct {
	ID              uuid.UUID
	CredentialID    *uuid.UUID
	Query           string
	Response        string
	ChunksRetrieved int
	LatencyMS       float64
	Model           string
	Source          string
	CreatedAt       time.Time
}

// Stats は全体の利用状況
type Stats struct {
	TotalQueries       int64
	AvgLatencyMS       float64
	AvgChunksRetrieved float64
	TotalDocuments     int64
	TotalChunks        int64
	TotalSpaces        int64
}
