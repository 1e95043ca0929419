package service

import (
	"strconv"
	"time"

	"github.com/corpora-ai/corpora/internal/domain"
)

// AssembleRecords pairs each chunk with positional and provenance metadata,
// producing pre-embedding records in chunk order. Pure transformation, no I/O;
// embedding vectors are filled in afterwards.
func AssembleRecords(chunks []string, doc domain.RawDocument, fingerprint string, now time.Time) []*domain.KnowledgeRecord {
	total := len(chunks)
	records := make([]*domain.KnowledgeRecord, 0, total)

	for i, content := range chunks {
		records = append(records, &domain.KnowledgeRecord{
			OwnerID:     doc.OwnerID,
			Fingerprint: fingerprint,
			FileName:    doc.FileName,
			FileType:    domain.NormalizeMediaType(doc.MediaType),
			FileSize:    doc.Size,
			ChunkIndex:  i,
			ChunkTotal:  total,
			Content:     content,
			Metadata: map[string]string{
				domain.MetaFileName:    doc.FileName,
				domain.MetaFileType:    domain.NormalizeMediaType(doc.MediaType),
				domain.MetaFileSize:    strconv.FormatInt(doc.Size, 10),
				domain.MetaChunkIndex:  strconv.Itoa(i),
				domain.MetaChunkTotal:  strconv.Itoa(total),
				domain.MetaProcessedAt: now.UTC().Format(time.RFC3339),
				domain.MetaTokenCount:  strconv.Itoa(domain.EstimateTokens(content)),
			},
			CreatedAt: now.UTC(),
		})
	}

	return records
}
