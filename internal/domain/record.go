package domain

import (
	"fmt"
	"time"
)

// KnowledgeRecord is one stored chunk of an ingested document, paired with
// its embedding vector and provenance metadata. One row per chunk.
type KnowledgeRecord struct {
	ID          string
	OwnerID     string
	Fingerprint string
	FileName    string
	FileType    string
	FileSize    int64
	ChunkIndex  int
	ChunkTotal  int
	Content     string
	Embedding   []float32
	Metadata    map[string]string
	CreatedAt   time.Time
}

// Metadata keys carried on every record.
const (
	MetaFileName    = "file_name"
	MetaFileType    = "file_type"
	MetaFileSize    = "file_size"
	MetaChunkIndex  = "chunk_index"
	MetaChunkTotal  = "chunk_total"
	MetaProcessedAt = "processed_at"
	MetaTokenCount  = "token_estimate"
)

// ValidateRecord validates a KnowledgeRecord before persistence.
func ValidateRecord(r *KnowledgeRecord) error {
	if r == nil {
		return fmt.Errorf("record cannot be nil")
	}

	if r.OwnerID == "" {
		return fmt.Errorf("record OwnerID is required")
	}

	if r.Fingerprint == "" {
		return fmt.Errorf("record Fingerprint is required")
	}

	if r.Content == "" {
		return fmt.Errorf("record Content is required")
	}

	if r.ChunkIndex < 0 || r.ChunkIndex >= r.ChunkTotal {
		return fmt.Errorf("record chunk index %d out of range [0,%d)", r.ChunkIndex, r.ChunkTotal)
	}

	return nil
}

// EstimateTokens approximates the token count of a text as ceil(len/4).
func EstimateTokens(text string) int {
	n := len(text)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}
