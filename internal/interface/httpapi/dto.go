package httpapi

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/jinford/polidex/internal/core/credential"
	"github.com/jinford/polidex/internal/core/document"
	"github.com/jinford/polidex/internal/core/querylog"
	"github.com/jinford/polidex/internal/core/retrieval"
	"github.com/jinford/polidex/internal/core/space"
)

type queryRequest struct {
	Query string `json:"query" binding:"required"`
	TopK  int    `json:"top_k"`
}

type chatQueryRequest struct {
	Query        string    `json:"query" binding:"required"`
	SpaceID      uuid.UUID `json:"space_id" binding:"required"`
	TopK         int       `json:"top_k"`
	Model        string    `json:"model"`
	SystemPrompt string    `json:"system_prompt"`
}

type sourceResponse struct {
	DocumentID uuid.UUID `json:"document_id"`
	Filename   string    `json:"filename"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content"`
	Score      float64   `json:"score"`
}

type queryResponse struct {
	Answer          string           `json:"answer"`
	Sources         []sourceResponse `json:"sources"`
	Model           string           `json:"model"`
	ChunksRetrieved int              `json:"chunks_retrieved"`
	LatencyMS       float64          `json:"latency_ms"`
}

func toQueryResponse(r *retrieval.Result) queryResponse {
	sources := make([]sourceResponse, 0, len(r.Sources))
	for _, src := range r.Sources {
		sources = append(sources, sourceResponse{
			DocumentID: src.DocumentID,
			Filename:   src.Filename,
			ChunkIndex: src.ChunkIndex,
			Content:    src.Content,
			Score:      roundTo(src.Score, 4),
		})
	}
	return queryResponse{
		Answer:          r.Answer,
		Sources:         sources,
		Model:           r.Model,
		ChunksRetrieved: r.ChunksRetrieved,
		LatencyMS:       roundTo(float64(r.Latency.Microseconds())/1000, 2),
	}
}

type createSpaceRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

type spaceResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description"`
	DocumentCount   *int      `json:"document_count,omitempty"`
	CredentialCount *int      `json:"api_key_count,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toSpaceResponse(sp *space.Space) spaceResponse {
	return spaceResponse{
		ID:          sp.ID,
		Name:        sp.Name,
		Description: sp.Description,
		CreatedAt:   sp.CreatedAt,
		UpdatedAt:   sp.UpdatedAt,
	}
}

func toSpaceWithStatsResponse(sp *space.SpaceWithStats) spaceResponse {
	resp := toSpaceResponse(&sp.Space)
	docs, creds := sp.DocumentCount, sp.CredentialCount
	resp.DocumentCount = &docs
	resp.CredentialCount = &creds
	return resp
}

type documentResponse struct {
	ID          uuid.UUID   `json:"id"`
	Filename    string      `json:"filename"`
	ContentType string      `json:"content_type"`
	Size        int64       `json:"file_size"`
	ChunkCount  int         `json:"chunk_count"`
	SpaceIDs    []uuid.UUID `json:"space_ids"`
	CreatedAt   time.Time   `json:"created_at"`
}

func toDocumentResponse(d *document.Document) documentResponse {
	spaceIDs := d.SpaceIDs
	if spaceIDs == nil {
		spaceIDs = []uuid.UUID{}
	}
	return documentResponse{
		ID:          d.ID,
		Filename:    d.Filename,
		ContentType: d.ContentType,
		Size:        d.Size,
		ChunkCount:  d.ChunkCount,
		SpaceIDs:    spaceIDs,
		CreatedAt:   d.CreatedAt,
	}
}

type setSpacesRequest struct {
	SpaceIDs []uuid.UUID `json:"space_ids" binding:"required"`
}

type issueKeyRequest struct {
	Name    string    `json:"name" binding:"required"`
	SpaceID uuid.UUID `json:"space_id" binding:"required"`
}

type keyResponse struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	SpaceID    uuid.UUID  `json:"space_id"`
	KeyPrefix  string     `json:"key_prefix"`
	IsActive   bool       `json:"is_active"`
	UsageCount int64      `json:"request_count"`
	LastUsedAt *time.Time `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

func toKeyResponse(cred *credential.Credential) keyResponse {
	return keyResponse{
		ID:         cred.ID,
		Name:       cred.Name,
		SpaceID:    cred.SpaceID,
		KeyPrefix:  cred.Fingerprint,
		IsActive:   cred.Active,
		UsageCount: cred.UsageCount,
		LastUsedAt: cred.LastUsedAt,
		CreatedAt:  cred.CreatedAt,
	}
}

type queryLogResponse struct {
	ID              uuid.UUID  `json:"id"`
	APIKeyID        *uuid.UUID `json:"api_key_id"`
	Query           string     `json:"query"`
	Response        string     `json:"response"`
	ChunksRetrieved int        `json:"chunks_retrieved"`
	LatencyMS       float64    `json:"latency_ms"`
	Model           string     `json:"model"`
	Source          string     `json:"source"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toQueryLogResponse(l *querylog.Log) queryLogResponse {
	return queryLogResponse{
		ID:              l.ID,
		APIKeyID:        l.CredentialID,
		Query:           l.Query,
		Response:        l.Response,
		ChunksRetrieved: l.ChunksRetrieved,
		LatencyMS:       l.LatencyMS,
		Model:           l.Model,
		Source:          l.Source,
		CreatedAt:       l.CreatedAt,
	}
}

type statsResponse struct {
	TotalQueries       int64   `json:"total_queries"`
	AvgLatencyMS       float64 `json:"avg_latency_ms"`
	AvgChunksRetrieved float64 `json:"avg_chunks_retrieved"`
	TotalDocuments     int64   `json:"total_documents"`
	TotalChunks        int64   `json:"total_chunks"`
	TotalSpaces        int64   `json:"total_spaces"`
}

func roundTo(v float64, digits int) float64 {
	p := math.Pow10(digits)
	return math.Round(v*p) / p
}
