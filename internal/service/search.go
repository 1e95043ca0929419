package service

import (
	"context"
	"strings"

	"github.com/corpora-ai/corpora/internal/domain"
	"github.com/corpora-ai/corpora/internal/telemetry"
)

const defaultSearchLimit = 10

// SearchInput carries a similarity query over an owner's stored chunks.
type SearchInput struct {
	OwnerID string
	Query   string
	Limit   int
}

// Search embeds the query text and returns the closest stored chunks.
func (s *IngestService) Search(ctx context.Context, input SearchInput) ([]*domain.KnowledgeRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.Search", telemetry.SpanAttributes{
		OwnerID:   input.OwnerID,
		Operation: "search",
	})
	defer span.End()

	if input.OwnerID == "" {
		return nil, domain.ErrMissingOwner
	}
	if strings.TrimSpace(input.Query) == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "query is required")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	queryVec, err := s.embedder.GenerateEmbedding(ctx, input.Query)
	if err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeEmbedding, "failed to embed query", err)
	}

	results, err := s.records.SearchSimilar(ctx, input.OwnerID, queryVec, limit)
	if err != nil {
		span.SetError(err)
		return nil, domain.NewStoreError("search", err)
	}

	return results, nil
}
