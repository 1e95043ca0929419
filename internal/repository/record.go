package repository

import (
	"context"

	"github.com/corpora-ai/corpora/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// RecordRepository handles persistence of knowledge records and their
// embedding vectors.
type RecordRepository struct {
	db dbtx
}

func NewRecordRepository(pool *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{db: pool}
}

func NewRecordRepositoryWithTx(tx pgx.Tx) *RecordRepository {
	return &RecordRepository{db: tx}
}

const recordColumns = `id, owner_id, fingerprint, file_name, file_type, file_size,
	 chunk_index, chunk_total, content, embedding, metadata, created_at`

// InsertMany stores the records of one ingested document.
func (r *RecordRepository) InsertMany(ctx context.Context, records []*domain.KnowledgeRecord) error {
	for _, rec := range records {
		if err := domain.ValidateRecord(rec); err != nil {
			return err
		}
		_, err := r.db.Exec(ctx,
			`INSERT INTO knowledge_records
				(id, owner_id, fingerprint, file_name, file_type, file_size,
				 chunk_index, chunk_total, content, embedding, metadata, created_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			rec.ID,
			rec.OwnerID,
			rec.Fingerprint,
			rec.FileName,
			rec.FileType,
			rec.FileSize,
			rec.ChunkIndex,
			rec.ChunkTotal,
			rec.Content,
			pgvector.NewVector(rec.Embedding),
			rec.Metadata,
			rec.CreatedAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// FindByFingerprint returns all records of the document with the given
// content fingerprint within the owner scope, in chunk order.
func (r *RecordRepository) FindByFingerprint(ctx context.Context, ownerID, fingerprint string) ([]*domain.KnowledgeRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+recordColumns+`
		 FROM knowledge_records
		 WHERE owner_id = $1 AND fingerprint = $2
		 ORDER BY chunk_index`,
		ownerID, fingerprint,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecordRows(rows)
}

// FindByName returns all records stored under the given file name within the
// owner scope.
func (r *RecordRepository) FindByName(ctx context.Context, ownerID, fileName string) ([]*domain.KnowledgeRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+recordColumns+`
		 FROM knowledge_records
		 WHERE owner_id = $1 AND file_name = $2
		 ORDER BY fingerprint, chunk_index`,
		ownerID, fileName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecordRows(rows)
}

// DeleteByFingerprint removes every record of the document with the given
// content fingerprint within the owner scope.
func (r *RecordRepository) DeleteByFingerprint(ctx context.Context, ownerID, fingerprint string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM knowledge_records WHERE owner_id = $1 AND fingerprint = $2`,
		ownerID, fingerprint,
	)
	return err
}

// SelectAllMetadata returns every record of the owner without content or
// embedding payloads, for statistics aggregation.
func (r *RecordRepository) SelectAllMetadata(ctx context.Context, ownerID string) ([]*domain.KnowledgeRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, owner_id, fingerprint, file_name, file_type, file_size,
			chunk_index, chunk_total, metadata, created_at
		 FROM knowledge_records
		 WHERE owner_id = $1
		 ORDER BY file_name, chunk_index`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.KnowledgeRecord
	for rows.Next() {
		var rec domain.KnowledgeRecord
		if err := rows.Scan(
			&rec.ID, &rec.OwnerID, &rec.Fingerprint, &rec.FileName, &rec.FileType,
			&rec.FileSize, &rec.ChunkIndex, &rec.ChunkTotal, &rec.Metadata, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// SearchSimilar returns the records closest to the query embedding by cosine
// distance, scoped to the owner.
func (r *RecordRepository) SearchSimilar(ctx context.Context, ownerID string, embedding []float32, limit int) ([]*domain.KnowledgeRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+recordColumns+`
		 FROM knowledge_records
		 WHERE owner_id = $1 AND embedding IS NOT NULL
		 ORDER BY embedding <=> $2
		 LIMIT $3`,
		ownerID, pgvector.NewVector(embedding), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecordRows(rows)
}

func scanRecordRows(rows pgx.Rows) ([]*domain.KnowledgeRecord, error) {
	var records []*domain.KnowledgeRecord
	for rows.Next() {
		var rec domain.KnowledgeRecord
		var vec pgvector.Vector
		if err := rows.Scan(
			&rec.ID, &rec.OwnerID, &rec.Fingerprint, &rec.FileName, &rec.FileType,
			&rec.FileSize, &rec.ChunkIndex, &rec.ChunkTotal, &rec.Content, &vec,
			&rec.Metadata, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		rec.Embedding = vec.Slice()
		records = append(records, &rec)
	}
	return records, rows.Err()
}
