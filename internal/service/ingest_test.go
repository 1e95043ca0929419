package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/corpora-ai/corpora/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRecordRepository is a mock implementation of RecordRepositoryInterface
type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) FindByFingerprint(ctx context.Context, ownerID, fingerprint string) ([]*domain.KnowledgeRecord, error) {
	args := m.Called(ctx, ownerID, fingerprint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KnowledgeRecord), args.Error(1)
}

func (m *MockRecordRepository) FindByName(ctx context.Context, ownerID, fileName string) ([]*domain.KnowledgeRecord, error) {
	args := m.Called(ctx, ownerID, fileName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KnowledgeRecord), args.Error(1)
}

func (m *MockRecordRepository) InsertMany(ctx context.Context, records []*domain.KnowledgeRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockRecordRepository) DeleteByFingerprint(ctx context.Context, ownerID, fingerprint string) error {
	args := m.Called(ctx, ownerID, fingerprint)
	return args.Error(0)
}

func (m *MockRecordRepository) SelectAllMetadata(ctx context.Context, ownerID string) ([]*domain.KnowledgeRecord, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KnowledgeRecord), args.Error(1)
}

func (m *MockRecordRepository) SearchSimilar(ctx context.Context, ownerID string, embedding []float32, limit int) ([]*domain.KnowledgeRecord, error) {
	args := m.Called(ctx, ownerID, embedding, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KnowledgeRecord), args.Error(1)
}

// MockExtractor mocks the text extractor
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(content []byte, mediaType string) (string, error) {
	args := m.Called(content, mediaType)
	return args.String(0), args.Error(1)
}

// MockEmbeddingClient mocks the embedding client
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockArchiveStore mocks the raw-file archive
type MockArchiveStore struct {
	mock.Mock
}

func (m *MockArchiveStore) Put(ctx context.Context, key string, content []byte, contentType string) error {
	args := m.Called(ctx, key, content, contentType)
	return args.Error(0)
}

func (m *MockArchiveStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// seqUUIDGen produces predictable IDs for assertions
type seqUUIDGen struct {
	n int
}

func (g *seqUUIDGen) NewString() string {
	g.n++
	return fmt.Sprintf("uuid-%d", g.n)
}

func testDocument() domain.RawDocument {
	return domain.RawDocument{
		Content:   []byte("raw file content"),
		FileName:  "notes.txt",
		MediaType: "text/plain",
		OwnerID:   "owner-1",
		OwnerKind: domain.OwnerKindWorkspace,
	}
}

func noRecords() []*domain.KnowledgeRecord {
	return []*domain.KnowledgeRecord{}
}

func TestIngest_Success(t *testing.T) {
	repo := new(MockRecordRepository)
	extractor := new(MockExtractor)
	embedder := new(MockEmbeddingClient)

	svc := NewIngestService(repo, extractor, embedder).
		WithChunkingPolicy(ChunkingPolicy{MinTokens: 1, MaxTokens: 10, OverlapTokens: 0}).
		WithUUIDGen(&seqUUIDGen{})

	doc := testDocument()
	fingerprint := domain.Fingerprint(doc.Content)

	repo.On("FindByFingerprint", mock.Anything, "owner-1", fingerprint).Return(noRecords(), nil)
	repo.On("FindByName", mock.Anything, "owner-1", "notes.txt").Return(noRecords(), nil)
	extractor.On("Extract", doc.Content, "text/plain").Return("first paragraph here\n\nsecond paragraph here", nil)
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{0.1, 0.2}, nil)
	repo.On("InsertMany", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.Ingest(context.Background(), doc)

	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.Equal(t, fingerprint, result.Fingerprint)
	assert.Equal(t, result.ChunkCount, result.StoredCount)
	require.NotEmpty(t, result.Records)

	for i, r := range result.Records {
		assert.Equal(t, "owner-1", r.OwnerID)
		assert.Equal(t, fingerprint, r.Fingerprint)
		assert.Equal(t, i, r.ChunkIndex)
		assert.Equal(t, len(result.Records), r.ChunkTotal)
		assert.NotEmpty(t, r.ID)
		assert.NotEmpty(t, r.Embedding)
	}
	repo.AssertExpectations(t)
}

func TestIngest_DuplicateByFingerprint(t *testing.T) {
	repo := new(MockRecordRepository)
	extractor := new(MockExtractor)
	embedder := new(MockEmbeddingClient)
	svc := NewIngestService(repo, extractor, embedder)

	doc := testDocument()
	fingerprint := domain.Fingerprint(doc.Content)

	existing := []*domain.KnowledgeRecord{{ID: "rec-1", OwnerID: "owner-1", Fingerprint: fingerprint}}
	repo.On("FindByFingerprint", mock.Anything, "owner-1", fingerprint).Return(existing, nil)

	result, err := svc.Ingest(context.Background(), doc)

	require.NoError(t, err)
	assert.True(t, result.Duplicate)
	assert.Equal(t, fingerprint, result.Fingerprint)
	extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "InsertMany", mock.Anything, mock.Anything)
}

func TestIngest_DuplicateByFileName(t *testing.T) {
	repo := new(MockRecordRepository)
	extractor := new(MockExtractor)
	embedder := new(MockEmbeddingClient)
	svc := NewIngestService(repo, extractor, embedder)

	doc := testDocument()
	fingerprint := domain.Fingerprint(doc.Content)

	repo.On("FindByFingerprint", mock.Anything, "owner-1", fingerprint).Return(noRecords(), nil)
	repo.On("FindByName", mock.Anything, "owner-1", "notes.txt").
		Return([]*domain.KnowledgeRecord{{ID: "rec-1", FileName: "notes.txt"}}, nil)

	result, err := svc.Ingest(context.Background(), doc)

	require.NoError(t, err)
	assert.True(t, result.Duplicate)
}

func TestIngest_DedupFailsOpenOnLookupError(t *testing.T) {
	repo := new(MockRecordRepository)
	extractor := new(MockExtractor)
	embedder := new(MockEmbeddingClient)
	svc := NewIngestService(repo, extractor, embedder).
		WithChunkingPolicy(ChunkingPolicy{MinTokens: 1, MaxTokens: 10, OverlapTokens: 0}).
		WithUUIDGen(&seqUUIDGen{})

	doc := testDocument()

	// The lookup blows up but ingestion proceeds as if the document is new.
	repo.On("FindByFingerprint", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
	extractor.On("Extract", mock.Anything, mock.Anything).Return("some extracted content", nil)
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{0.5}, nil)
	repo.On("InsertMany", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.Ingest(context.Background(), doc)

	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.Positive(t, result.StoredCount)
}

func TestIngest_ValidationErrors(t *testing.T) {
	svc := NewIngestService(new(MockRecordRepository), new(MockExtractor), new(MockEmbeddingClient))
	ctx := context.Background()

	doc := testDocument()
	doc.OwnerID = ""
	_, err := svc.Ingest(ctx, doc)
	assert.ErrorIs(t, err, domain.ErrMissingOwner)

	doc = testDocument()
	doc.Content = nil
	_, err = svc.Ingest(ctx, doc)
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)

	doc = testDocument()
	doc.MediaType = "image/png"
	_, err = svc.Ingest(ctx, doc)
	assert.ErrorIs(t, err, domain.ErrImageTypeRejected)

	doc = testDocument()
	doc.MediaType = "application/x-msdownload"
	_, err = svc.Ingest(ctx, doc)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	doc = testDocument()
	doc.Size = domain.MaxUploadBytesWorkspace + 1
	_, err = svc.Ingest(ctx, doc)
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
}

func TestIngest_ExtractionFailureAborts(t *testing.T) {
	repo := new(MockRecordRepository)
	extractor := new(MockExtractor)
	embedder := new(MockEmbeddingClient)
	svc := NewIngestService(repo, extractor, embedder)

	doc := testDocument()
	repo.On("FindByFingerprint", mock.Anything, mock.Anything, mock.Anything).Return(noRecords(), nil)
	repo.On("FindByName", mock.Anything, mock.Anything, mock.Anything).Return(noRecords(), nil)
	extractor.On("Extract", mock.Anything, mock.Anything).Return("", domain.NewExtractionError("text/plain", errors.New("boom")))

	_, err := svc.Ingest(context.Background(), doc)

	require.Error(t, err)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeExtraction, domainErr.Code)
	repo.AssertNotCalled(t, "InsertMany", mock.Anything, mock.Anything)
}

func TestIngest_EmptyExtraction(t *testing.T) {
	repo := new(MockRecordRepository)
	extractor := new(MockExtractor)
	embedder := new(MockEmbeddingClient)
	svc := NewIngestService(repo, extractor, embedder)

	doc := testDocument()
	repo.On("FindByFingerprint", mock.Anything, mock.Anything, mock.Anything).Return(noRecords(), nil)
	repo.On("FindByName", mock.Anything, mock.Anything, mock.Anything).Return(noRecords(), nil)
	extractor.On("Extract", mock.Anything, mock.Anything).Return("   \n\n  ", nil)

	_, err := svc.Ingest(context.Background(), doc)

	assert.ErrorIs(t, err, domain.ErrNoExtractableText)
}

func TestIngest_FailedChunkIsSkipped(t *testing.T) {
	repo := new(MockRecordRepository)
	extractor := new(MockExtractor)
	embedder := new(MockEmbeddingClient)
	svc := NewIngestService(repo, extractor, embedder).
		WithChunkingPolicy(ChunkingPolicy{MinTokens: 1, MaxTokens: 10, OverlapTokens: 0}).
		WithUUIDGen(&seqUUIDGen{})

	doc := testDocument()

	// Two paragraphs too large to share one chunk: two chunks.
	paraOne := strings.Repeat("a", 30)
	paraTwo := strings.Repeat("b", 30)
	repo.On("FindByFingerprint", mock.Anything, mock.Anything, mock.Anything).Return(noRecords(), nil)
	repo.On("FindByName", mock.Anything, mock.Anything, mock.Anything).Return(noRecords(), nil)
	extractor.On("Extract", mock.Anything, mock.Anything).Return(paraOne+"\n\n"+paraTwo, nil)

	embedder.On("GenerateEmbedding", mock.Anything, paraOne).Return(nil, errors.New("rate limited"))
	embedder.On("GenerateEmbedding", mock.Anything, paraTwo).Return([]float32{0.7}, nil)

	var inserted []*domain.KnowledgeRecord
	repo.On("InsertMany", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		inserted = args.Get(1).([]*domain.KnowledgeRecord)
	}).Return(nil)

	result, err := svc.Ingest(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, 2, result.ChunkCount)
	assert.Equal(t, 1, result.StoredCount)
	require.Len(t, inserted, 1)
	assert.Equal(t, paraTwo, inserted[0].Content)
}

func TestIngest_AllChunksFailed(t *testing.T) {
	repo := new(MockRecordRepository)
	extractor := new(MockExtractor)
	embedder := new(MockEmbeddingClient)
	svc := NewIngestService(repo, extractor, embedder)

	doc := testDocument()
	repo.On("FindByFingerprint", mock.Anything, mock.Anything, mock.Anything).Return(noRecords(), nil)
	repo.On("FindByName", mock.Anything, mock.Anything, mock.Anything).Return(noRecords(), nil)
	extractor.On("Extract", mock.Anything, mock.Anything).Return("some text to embed", nil)
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return(nil, errors.New("api down"))

	_, err := svc.Ingest(context.Background(), doc)

	assert.ErrorIs(t, err, domain.ErrAllChunksFailed)
	repo.AssertNotCalled(t, "InsertMany", mock.Anything, mock.Anything)
}

func TestIngest_InsertFailureSurfaces(t *testing.T) {
	repo := new(MockRecordRepository)
	extractor := new(MockExtractor)
	embedder := new(MockEmbeddingClient)
	svc := NewIngestService(repo, extractor, embedder)

	doc := testDocument()
	repo.On("FindByFingerprint", mock.Anything, mock.Anything, mock.Anything).Return(noRecords(), nil)
	repo.On("FindByName", mock.Anything, mock.Anything, mock.Anything).Return(noRecords(), nil)
	extractor.On("Extract", mock.Anything, mock.Anything).Return("some text to embed", nil)
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)
	repo.On("InsertMany", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	_, err := svc.Ingest(context.Background(), doc)

	require.Error(t, err)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeStore, domainErr.Code)
}

func TestIngest_ArchivesRawDocument(t *testing.T) {
	repo := new(MockRecordRepository)
	extractor := new(MockExtractor)
	embedder := new(MockEmbeddingClient)
	archive := new(MockArchiveStore)
	svc := NewIngestService(repo, extractor, embedder).WithArchive(archive)

	doc := testDocument()
	fingerprint := domain.Fingerprint(doc.Content)

	repo.On("FindByFingerprint", mock.Anything, mock.Anything, mock.Anything).Return(noRecords(), nil)
	repo.On("FindByName", mock.Anything, mock.Anything, mock.Anything).Return(noRecords(), nil)
	extractor.On("Extract", mock.Anything, mock.Anything).Return("some text to embed", nil)
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)
	repo.On("InsertMany", mock.Anything, mock.Anything).Return(nil)
	archive.On("Put", mock.Anything, "owner-1/"+fingerprint, doc.Content, "text/plain").Return(nil)

	_, err := svc.Ingest(context.Background(), doc)

	require.NoError(t, err)
	archive.AssertExpectations(t)
}

func TestIngest_ArchiveFailureIsNotFatal(t *testing.T) {
	repo := new(MockRecordRepository)
	extractor := new(MockExtractor)
	embedder := new(MockEmbeddingClient)
	archive := new(MockArchiveStore)
	svc := NewIngestService(repo, extractor, embedder).WithArchive(archive)

	repo.On("FindByFingerprint", mock.Anything, mock.Anything, mock.Anything).Return(noRecords(), nil)
	repo.On("FindByName", mock.Anything, mock.Anything, mock.Anything).Return(noRecords(), nil)
	extractor.On("Extract", mock.Anything, mock.Anything).Return("some text to embed", nil)
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)
	repo.On("InsertMany", mock.Anything, mock.Anything).Return(nil)
	archive.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bucket gone"))

	_, err := svc.Ingest(context.Background(), testDocument())

	assert.NoError(t, err)
}

func TestDelete_Success(t *testing.T) {
	repo := new(MockRecordRepository)
	archive := new(MockArchiveStore)
	svc := NewIngestService(repo, new(MockExtractor), new(MockEmbeddingClient)).WithArchive(archive)

	repo.On("FindByFingerprint", mock.Anything, "owner-1", "fp-1").
		Return([]*domain.KnowledgeRecord{{ID: "rec-1"}}, nil)
	repo.On("DeleteByFingerprint", mock.Anything, "owner-1", "fp-1").Return(nil)
	archive.On("Delete", mock.Anything, "owner-1/fp-1").Return(nil)

	err := svc.Delete(context.Background(), "owner-1", "fp-1")

	require.NoError(t, err)
	repo.AssertExpectations(t)
	archive.AssertExpectations(t)
}

func TestDelete_NotFound(t *testing.T) {
	repo := new(MockRecordRepository)
	svc := NewIngestService(repo, new(MockExtractor), new(MockEmbeddingClient))

	repo.On("FindByFingerprint", mock.Anything, "owner-1", "fp-unknown").Return(noRecords(), nil)

	err := svc.Delete(context.Background(), "owner-1", "fp-unknown")

	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	repo.AssertNotCalled(t, "DeleteByFingerprint", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearch_Success(t *testing.T) {
	repo := new(MockRecordRepository)
	embedder := new(MockEmbeddingClient)
	svc := NewIngestService(repo, new(MockExtractor), embedder)

	queryVec := []float32{0.3, 0.4}
	matches := []*domain.KnowledgeRecord{{ID: "rec-1", Content: "matched chunk"}}

	embedder.On("GenerateEmbedding", mock.Anything, "quarterly revenue").Return(queryVec, nil)
	repo.On("SearchSimilar", mock.Anything, "owner-1", queryVec, 5).Return(matches, nil)

	results, err := svc.Search(context.Background(), SearchInput{OwnerID: "owner-1", Query: "quarterly revenue", Limit: 5})

	require.NoError(t, err)
	assert.Equal(t, matches, results)
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc := NewIngestService(new(MockRecordRepository), new(MockExtractor), new(MockEmbeddingClient))

	_, err := svc.Search(context.Background(), SearchInput{OwnerID: "owner-1", Query: "  "})

	assert.Error(t, err)
}

func TestStats_Aggregation(t *testing.T) {
	repo := new(MockRecordRepository)
	svc := NewIngestService(repo, new(MockExtractor), new(MockEmbeddingClient))

	records := []*domain.KnowledgeRecord{
		{Fingerprint: "fp-a", FileName: "a.pdf", FileType: "application/pdf", FileSize: 100,
			Metadata: map[string]string{domain.MetaTokenCount: "10"}},
		{Fingerprint: "fp-a", FileName: "a.pdf", FileType: "application/pdf", FileSize: 100,
			Metadata: map[string]string{domain.MetaTokenCount: "15"}},
		{Fingerprint: "fp-b", FileName: "b.txt", FileType: "text/plain", FileSize: 50,
			Metadata: map[string]string{domain.MetaTokenCount: "5"}},
	}
	repo.On("SelectAllMetadata", mock.Anything, "owner-1").Return(records, nil)

	out, err := svc.Stats(context.Background(), "owner-1")

	require.NoError(t, err)
	assert.Equal(t, 2, out.DocumentCount)
	assert.Equal(t, 3, out.ChunkCount)
	assert.Equal(t, 30, out.TokenCount)
	require.Len(t, out.Documents, 2)
	assert.Equal(t, "a.pdf", out.Documents[0].FileName)
	assert.Equal(t, 2, out.Documents[0].ChunkCount)
	assert.Equal(t, 25, out.Documents[0].TokenCount)
}
