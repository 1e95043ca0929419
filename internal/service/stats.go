package service

import (
	"context"
	"sort"
	"strconv"

	"github.com/corpora-ai/corpora/internal/domain"
	"github.com/corpora-ai/corpora/internal/telemetry"
)

// DocumentStats aggregates the stored chunks of one ingested document.
type DocumentStats struct {
	Fingerprint string
	FileName    string
	FileType    string
	FileSize    int64
	ChunkCount  int
	TokenCount  int
}

// StatsOutput summarizes an owner's stored corpus.
type StatsOutput struct {
	DocumentCount int
	ChunkCount    int
	TokenCount    int
	Documents     []DocumentStats
}

// Stats aggregates per-document statistics from the stored record metadata.
func (s *IngestService) Stats(ctx context.Context, ownerID string) (*StatsOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.Stats", telemetry.SpanAttributes{
		OwnerID:   ownerID,
		Operation: "stats",
	})
	defer span.End()

	records, err := s.records.SelectAllMetadata(ctx, ownerID)
	if err != nil {
		return nil, domain.NewStoreError("metadata", err)
	}

	byDoc := make(map[string]*DocumentStats)
	out := &StatsOutput{}

	for _, r := range records {
		doc, ok := byDoc[r.Fingerprint]
		if !ok {
			doc = &DocumentStats{
				Fingerprint: r.Fingerprint,
				FileName:    r.FileName,
				FileType:    r.FileType,
				FileSize:    r.FileSize,
			}
			byDoc[r.Fingerprint] = doc
		}

		doc.ChunkCount++
		out.ChunkCount++

		if tokens, err := strconv.Atoi(r.Metadata[domain.MetaTokenCount]); err == nil {
			doc.TokenCount += tokens
			out.TokenCount += tokens
		}
	}

	out.DocumentCount = len(byDoc)
	out.Documents = make([]DocumentStats, 0, len(byDoc))
	for _, doc := range byDoc {
		out.Documents = append(out.Documents, *doc)
	}
	sort.Slice(out.Documents, func(i, j int) bool {
		return out.Documents[i].FileName < out.Documents[j].FileName
	})

	return out, nil
}
