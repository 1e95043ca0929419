package service

import (
	"testing"
	"time"

	"github.com/corpora-ai/corpora/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleRecords(t *testing.T) {
	doc := domain.RawDocument{
		FileName:  "report.pdf",
		MediaType: "Application/PDF; charset=binary",
		Size:      2048,
		OwnerID:   "owner-1",
		OwnerKind: domain.OwnerKindWorkspace,
	}
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	chunks := []string{"chunk one text", "chunk two text", "chunk three text"}

	records := AssembleRecords(chunks, doc, "fp-abc", now)

	require.Len(t, records, 3)
	for i, r := range records {
		assert.Equal(t, "owner-1", r.OwnerID)
		assert.Equal(t, "fp-abc", r.Fingerprint)
		assert.Equal(t, "report.pdf", r.FileName)
		assert.Equal(t, "application/pdf", r.FileType)
		assert.Equal(t, int64(2048), r.FileSize)
		assert.Equal(t, i, r.ChunkIndex)
		assert.Equal(t, 3, r.ChunkTotal)
		assert.Equal(t, chunks[i], r.Content)
		assert.Equal(t, now, r.CreatedAt)
		assert.Empty(t, r.ID)
		assert.Nil(t, r.Embedding)

		assert.Equal(t, "report.pdf", r.Metadata[domain.MetaFileName])
		assert.Equal(t, "application/pdf", r.Metadata[domain.MetaFileType])
		assert.Equal(t, "2048", r.Metadata[domain.MetaFileSize])
		assert.Equal(t, "2026-03-14T09:30:00Z", r.Metadata[domain.MetaProcessedAt])
	}

	assert.Equal(t, "0", records[0].Metadata[domain.MetaChunkIndex])
	assert.Equal(t, "2", records[2].Metadata[domain.MetaChunkIndex])
	assert.Equal(t, "3", records[0].Metadata[domain.MetaChunkTotal])
	assert.Equal(t, "4", records[0].Metadata[domain.MetaTokenCount])
}

func TestAssembleRecords_Empty(t *testing.T) {
	records := AssembleRecords(nil, domain.RawDocument{OwnerID: "owner-1"}, "fp", time.Now())
	assert.Empty(t, records)
}
