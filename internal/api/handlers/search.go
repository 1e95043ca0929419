package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/corpora-ai/corpora/internal/api"
	"github.com/corpora-ai/corpora/internal/api/middleware"
	"github.com/corpora-ai/corpora/internal/domain"
	"github.com/corpora-ai/corpora/internal/service"
)

type SearchService interface {
	Search(ctx context.Context, input service.SearchInput) ([]*domain.KnowledgeRecord, error)
}

type SearchHandler struct {
	svc SearchService
}

func NewSearchHandler(svc SearchService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type SearchResultResponse struct {
	ID          string `json:"id"`
	Fingerprint string `json:"fingerprint"`
	FileName    string `json:"file_name"`
	ChunkIndex  int    `json:"chunk_index"`
	ChunkTotal  int    `json:"chunk_total"`
	Content     string `json:"content"`
}

type SearchResponse struct {
	Results []*SearchResultResponse `json:"results"`
}

// Search runs a semantic query over the owner's stored chunks.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	records, err := h.svc.Search(r.Context(), service.SearchInput{
		OwnerID: ownerID,
		Query:   req.Query,
		Limit:   req.Limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	results := make([]*SearchResultResponse, 0, len(records))
	for _, rec := range records {
		results = append(results, &SearchResultResponse{
			ID:          rec.ID,
			Fingerprint: rec.Fingerprint,
			FileName:    rec.FileName,
			ChunkIndex:  rec.ChunkIndex,
			ChunkTotal:  rec.ChunkTotal,
			Content:     rec.Content,
		})
	}

	api.Success(w, http.StatusOK, SearchResponse{Results: results})
}
