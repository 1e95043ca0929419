//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/corpora-ai/corpora/internal/domain"
	"github.com/corpora-ai/corpora/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const embeddingDim = 1536

// unitVector returns a 1536-dim vector pointing along the given axis, so
// cosine distances between test vectors are predictable.
func unitVector(axis int) []float32 {
	v := make([]float32, embeddingDim)
	v[axis%embeddingDim] = 1
	return v
}

func makeRecords(ownerID, fingerprint, fileName string, n int) []*domain.KnowledgeRecord {
	now := time.Now().UTC().Truncate(time.Microsecond)
	records := make([]*domain.KnowledgeRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, &domain.KnowledgeRecord{
			ID:          uuid.NewString(),
			OwnerID:     ownerID,
			Fingerprint: fingerprint,
			FileName:    fileName,
			FileType:    "text/plain",
			FileSize:    256,
			ChunkIndex:  i,
			ChunkTotal:  n,
			Content:     "chunk content",
			Embedding:   unitVector(i),
			Metadata: map[string]string{
				domain.MetaFileName:   fileName,
				domain.MetaTokenCount: "4",
			},
			CreatedAt: now,
		})
	}
	return records
}

func TestRecordRepository_InsertAndFindByFingerprint(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewRecordRepository(pool)

	records := makeRecords("owner-1", "fp-a", "doc.txt", 3)
	require.NoError(t, repo.InsertMany(ctx, records))

	got, err := repo.FindByFingerprint(ctx, "owner-1", "fp-a")
	require.NoError(t, err)
	require.Len(t, got, 3)

	for i, rec := range got {
		assert.Equal(t, records[i].ID, rec.ID)
		assert.Equal(t, i, rec.ChunkIndex)
		assert.Equal(t, 3, rec.ChunkTotal)
		assert.Equal(t, "chunk content", rec.Content)
		assert.Len(t, rec.Embedding, embeddingDim)
		assert.Equal(t, "doc.txt", rec.Metadata[domain.MetaFileName])
	}

	// Other owners must not see the records.
	other, err := repo.FindByFingerprint(ctx, "owner-2", "fp-a")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRecordRepository_FindByName(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewRecordRepository(pool)
	require.NoError(t, repo.InsertMany(ctx, makeRecords("owner-1", "fp-a", "report.pdf", 2)))
	require.NoError(t, repo.InsertMany(ctx, makeRecords("owner-1", "fp-b", "notes.txt", 1)))

	got, err := repo.FindByName(ctx, "owner-1", "report.pdf")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	missing, err := repo.FindByName(ctx, "owner-1", "unknown.txt")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestRecordRepository_DeleteByFingerprint(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewRecordRepository(pool)
	require.NoError(t, repo.InsertMany(ctx, makeRecords("owner-1", "fp-a", "a.txt", 2)))
	require.NoError(t, repo.InsertMany(ctx, makeRecords("owner-1", "fp-b", "b.txt", 2)))

	require.NoError(t, repo.DeleteByFingerprint(ctx, "owner-1", "fp-a"))

	gone, err := repo.FindByFingerprint(ctx, "owner-1", "fp-a")
	require.NoError(t, err)
	assert.Empty(t, gone)

	kept, err := repo.FindByFingerprint(ctx, "owner-1", "fp-b")
	require.NoError(t, err)
	assert.Len(t, kept, 2)
}

func TestRecordRepository_SelectAllMetadata(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewRecordRepository(pool)
	require.NoError(t, repo.InsertMany(ctx, makeRecords("owner-1", "fp-a", "a.txt", 2)))
	require.NoError(t, repo.InsertMany(ctx, makeRecords("owner-2", "fp-c", "c.txt", 1)))

	got, err := repo.SelectAllMetadata(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	for _, rec := range got {
		assert.Empty(t, rec.Content)
		assert.Empty(t, rec.Embedding)
		assert.Equal(t, "fp-a", rec.Fingerprint)
		assert.Equal(t, "4", rec.Metadata[domain.MetaTokenCount])
	}
}

func TestRecordRepository_SearchSimilar(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewRecordRepository(pool)
	require.NoError(t, repo.InsertMany(ctx, makeRecords("owner-1", "fp-a", "a.txt", 3)))
	require.NoError(t, repo.InsertMany(ctx, makeRecords("owner-2", "fp-c", "c.txt", 1)))

	// Chunk 1's embedding is the unit vector along axis 1; querying with the
	// same vector must rank it first.
	got, err := repo.SearchSimilar(ctx, "owner-1", unitVector(1), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ChunkIndex)

	for _, rec := range got {
		assert.Equal(t, "owner-1", rec.OwnerID)
	}
}
