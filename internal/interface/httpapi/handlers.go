package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/jinford/polidex/internal/core/document"
	"github.com/jinford/polidex/internal/core/retrieval"
)

// --- 問い合わせ ---

func (s *Server) handleExternalQuery(c *gin.Context) {
	cred := credentialFrom(c)
	if cred == nil {
		abortWithError(c, http.StatusUnauthorized, "invalid_api_key", "invalid or inactive API key")
		return
	}

	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	result, err := s.services.Query.Query(c.Request.Context(), retrieval.QueryParams{
		Question:     req.Query,
		SpaceID:      cred.SpaceID,
		TopK:         req.TopK,
		CredentialID: mo.Some(cred.ID),
		Channel:      retrieval.ChannelAPI,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toQueryResponse(result))
}

func (s *Server) handleChatQuery(c *gin.Context) {
	var req chatQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	ctx := c.Request.Context()
	found, err := s.services.Spaces.Get(ctx, req.SpaceID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if found.IsAbsent() {
		abortWithError(c, http.StatusNotFound, "not_found", "space not found")
		return
	}

	result, err := s.services.Query.Query(ctx, retrieval.QueryParams{
		Question:     req.Query,
		SpaceID:      req.SpaceID,
		TopK:         req.TopK,
		Model:        req.Model,
		SystemPrompt: req.SystemPrompt,
		Channel:      retrieval.ChannelChat,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toQueryResponse(result))
}

// --- スペース ---

func (s *Server) handleCreateSpace(c *gin.Context) {
	var req createSpaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	sp, err := s.services.Spaces.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSpaceResponse(sp))
}

func (s *Server) handleListSpaces(c *gin.Context) {
	spaces, err := s.services.Spaces.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	resp := make([]spaceResponse, 0, len(spaces))
	for _, sp := range spaces {
		resp = append(resp, toSpaceWithStatsResponse(sp))
	}
	c.JSON(http.StatusOK, gin.H{"spaces": resp, "total": len(resp)})
}

func (s *Server) handleGetSpace(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}

	found, err := s.services.Spaces.Get(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	sp, ok := found.Get()
	if !ok {
		abortWithError(c, http.StatusNotFound, "not_found", "space not found")
		return
	}
	c.JSON(http.StatusOK, toSpaceWithStatsResponse(sp))
}

func (s *Server) handleDeleteSpace(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	if err := s.services.Spaces.Delete(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "space deleted"})
}

// --- 文書 ---

func (s *Server) handleUploadDocument(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "bad_request", "file is required")
		return
	}

	spaceIDs, err := parseUUIDList(c.PostFormArray("space_ids"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "bad_request", "failed to open uploaded file")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "bad_request", "failed to read uploaded file")
		return
	}

	doc, err := s.services.Documents.Upload(c.Request.Context(), document.UploadParams{
		Filename: fileHeader.Filename,
		Data:     data,
		SpaceIDs: spaceIDs,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toDocumentResponse(doc))
}

func (s *Server) handleListDocuments(c *gin.Context) {
	spaceID, ok := queryUUID(c, "space_id")
	if !ok {
		return
	}

	docs, err := s.services.Documents.List(c.Request.Context(), spaceID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	resp := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		resp = append(resp, toDocumentResponse(d))
	}
	c.JSON(http.StatusOK, gin.H{"documents": resp, "total": len(resp)})
}

func (s *Server) handleGetDocument(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}

	found, err := s.services.Documents.Get(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	doc, ok := found.Get()
	if !ok {
		abortWithError(c, http.StatusNotFound, "not_found", "document not found")
		return
	}
	c.JSON(http.StatusOK, toDocumentResponse(doc))
}

func (s *Server) handleDeleteDocument(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	if err := s.services.Documents.Delete(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "document deleted"})
}

func (s *Server) handleReprocessDocument(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	count, err := s.services.Documents.Reprocess(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "chunk_count": count})
}

func (s *Server) handleSetDocumentSpaces(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}

	var req setSpacesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	count, err := s.services.Documents.SetSpaces(c.Request.Context(), id, req.SpaceIDs)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "space_ids": req.SpaceIDs, "chunk_count": count})
}

// --- APIキー ---

func (s *Server) handleIssueKey(c *gin.Context) {
	var req issueKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	cred, secret, err := s.services.Credentials.Issue(c.Request.Context(), req.Name, req.SpaceID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         cred.ID,
		"name":       cred.Name,
		"space_id":   cred.SpaceID,
		"key":        secret,
		"key_prefix": cred.Fingerprint,
		"message":    "Store this key securely. It will not be shown again.",
	})
}

func (s *Server) handleListKeys(c *gin.Context) {
	spaceID, ok := queryUUID(c, "space_id")
	if !ok {
		return
	}

	creds, err := s.services.Credentials.List(c.Request.Context(), spaceID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	resp := make([]keyResponse, 0, len(creds))
	for _, cred := range creds {
		resp = append(resp, toKeyResponse(cred))
	}
	c.JSON(http.StatusOK, gin.H{"api_keys": resp, "total": len(resp)})
}

func (s *Server) handleRevokeKey(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	found, err := s.services.Credentials.Revoke(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if !found {
		abortWithError(c, http.StatusNotFound, "not_found", "API key not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "API key revoked"})
}

func (s *Server) handleDeleteKey(c *gin.Context) {
	id, ok := pathUUID(c)
	if !ok {
		return
	}
	found, err := s.services.Credentials.Delete(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if !found {
		abortWithError(c, http.StatusNotFound, "not_found", "API key not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "API key deleted"})
}

// --- 統計 ---

func (s *Server) handleStatsOverview(c *gin.Context) {
	stats, err := s.services.Stats.Stats(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, statsResponse{
		TotalQueries:       stats.TotalQueries,
		AvgLatencyMS:       stats.AvgLatencyMS,
		AvgChunksRetrieved: stats.AvgChunksRetrieved,
		TotalDocuments:     stats.TotalDocuments,
		TotalChunks:        stats.TotalChunks,
		TotalSpaces:        stats.TotalSpaces,
	})
}

func (s *Server) handleQueryLogs(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			abortWithError(c, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = n
	}

	logs, err := s.services.Stats.Recent(c.Request.Context(), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}

	resp := make([]queryLogResponse, 0, len(logs))
	for _, l := range logs {
		resp = append(resp, toQueryLogResponse(l))
	}
	c.JSON(http.StatusOK, gin.H{"logs": resp, "total": len(resp)})
}

// --- パラメータ ---

func pathUUID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "bad_request", "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func queryUUID(c *gin.Context, key string) (mo.Option[uuid.UUID], bool) {
	v := c.Query(key)
	if v == "" {
		return mo.None[uuid.UUID](), true
	}
	id, err := uuid.Parse(v)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid %s", key))
		return mo.None[uuid.UUID](), false
	}
	return mo.Some(id), true
}

// parseUUIDList は繰り返し指定とカンマ区切りの両方を受け付ける
func parseUUIDList(values []string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return nil, fmt.Errorf("invalid space id: %q", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
