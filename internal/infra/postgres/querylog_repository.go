package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jinford/polidex/internal/core/querylog"
	"github.com/jinford/polidex/internal/infra/postgres/sqlc"
)

// QueryLogRepository は querylog.Repository を実装する PostgreSQL リポジトリ
type QueryLogRepository struct {
	q sqlc.Querier
}

// NewQueryLogRepository は新しい QueryLogRepository を返す
func NewQueryLogRepository(q sqlc.Querier) *QueryLogRepository {
	return &QueryLogRepository{q: q}
}

var _ querylog.Repository = (*QueryLogRepository)(nil)

func (r *QueryLogRepository) InsertQueryLog(ctx context.Context, entry querylog.Entry) error {
	if err := r.q.InsertQueryLog(ctx, sqlc.InsertQueryLogParams{
		ID:              UUIDToPgtype(uuid.New()),
		ApiKeyID:        UUIDOptionToPgtype(entry.CredentialID),
		Query:           entry.Query,
		Response:        entry.Response,
		ChunksRetrieved: int32(entry.ChunksRetrieved),
		LatencyMs:       float64(entry.Latency.Microseconds()) / 1000,
		Model:           entry.Model,
		Source:          entry.Source,
	}); err != nil {
		return fmt.Errorf("failed to insert query log: %w", err)
	}
	return nil
}

func (r *QueryLogRepository) ListRecentQueryLogs(ctx context.Context, limit int) ([]*querylog.Log, error) {
	rows, err := r.q.ListRecentQueryLogs(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list query logs: %w", err)
	}

	result := make([]*querylog.Log, 0, len(rows))
	for _, row := range rows {
		result = append(result, &querylog.Log{
			ID:              PgtypeToUUID(row.ID),
			CredentialID:    PgtypeToUUIDPtr(row.ApiKeyID),
			Query:           row.Query,
			Response:        row.Response,
			ChunksRetrieved: int(row.ChunksRetrieved),
			LatencyMS:       row.LatencyMs,
			Model:           row.Model,
			Source:          row.Source,
			CreatedAt:       PgtypeToTime(row.CreatedAt),
		})
	}
	return result, nil
}

func (r *QueryLogRepository) GetStats(ctx context.Context) (*querylog.Stats, error) {
	row, err := r.q.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &querylog.Stats{
		TotalQueries:       row.TotalQueries,
		AvgLatencyMS:       row.AvgLatencyMs,
		AvgChunksRetrieved: row.AvgChunksRetrieved,
		TotalDocuments:     row.TotalDocuments,
		TotalChunks:        row.TotalChunks,
		TotalSpaces:        row.TotalSpaces,
	}, nil
}
