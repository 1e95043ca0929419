package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/corpora-ai/corpora/internal/domain"
	"github.com/corpora-ai/corpora/internal/telemetry"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// embedParallelism bounds concurrent embedding calls per document.
const embedParallelism = 4

// RecordRepositoryInterface defines the repository interface for knowledge record persistence
type RecordRepositoryInterface interface {
	FindByFingerprint(ctx context.Context, ownerID, fingerprint string) ([]*domain.KnowledgeRecord, error)
	FindByName(ctx context.Context, ownerID, fileName string) ([]*domain.KnowledgeRecord, error)
	InsertMany(ctx context.Context, records []*domain.KnowledgeRecord) error
	DeleteByFingerprint(ctx context.Context, ownerID, fingerprint string) error
	SelectAllMetadata(ctx context.Context, ownerID string) ([]*domain.KnowledgeRecord, error)
	SearchSimilar(ctx context.Context, ownerID string, embedding []float32, limit int) ([]*domain.KnowledgeRecord, error)
}

// TextExtractor defines the interface for converting document bytes to text
type TextExtractor interface {
	Extract(content []byte, mediaType string) (string, error)
}

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ArchiveStore defines the optional raw-file archival collaborator
type ArchiveStore interface {
	Put(ctx context.Context, key string, content []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// IngestService runs the document ingestion pipeline: validation, content
// hashing, duplicate detection, extraction, chunking, embedding and storage.
type IngestService struct {
	records   RecordRepositoryInterface
	extractor TextExtractor
	embedder  EmbeddingClient
	archive   ArchiveStore
	policy    ChunkingPolicy
	uuidGen   UUIDGenerator
}

// NewIngestService creates a new IngestService instance.
func NewIngestService(records RecordRepositoryInterface, extractor TextExtractor, embedder EmbeddingClient) *IngestService {
	return &IngestService{
		records:   records,
		extractor: extractor,
		embedder:  embedder,
		policy:    DefaultChunkingPolicy(),
		uuidGen:   &DefaultUUIDGenerator{},
	}
}

// WithArchive enables raw-file archival on the service.
func (s *IngestService) WithArchive(archive ArchiveStore) *IngestService {
	s.archive = archive
	return s
}

// WithChunkingPolicy overrides the default chunking policy.
func (s *IngestService) WithChunkingPolicy(policy ChunkingPolicy) *IngestService {
	s.policy = policy
	return s
}

// WithUUIDGen overrides the UUID generator (for testing).
func (s *IngestService) WithUUIDGen(gen UUIDGenerator) *IngestService {
	s.uuidGen = gen
	return s
}

// IngestResult summarizes one document's trip through the pipeline.
type IngestResult struct {
	Fingerprint string
	Duplicate   bool
	ChunkCount  int
	StoredCount int
	Records     []*domain.KnowledgeRecord
}

// Ingest runs the full pipeline for one document. A duplicate is a normal
// outcome signaled on the result, not an error. Extraction failure aborts
// the document; a chunk whose embedding fails is dropped and the rest
// proceed to storage.
func (s *IngestService) Ingest(ctx context.Context, doc domain.RawDocument) (*IngestResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.Ingest", telemetry.SpanAttributes{
		OwnerID:   doc.OwnerID,
		Operation: "ingest",
	})
	defer span.End()

	if doc.OwnerID == "" {
		return nil, domain.ErrMissingOwner
	}
	if len(doc.Content) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	size := doc.Size
	if size <= 0 {
		size = int64(len(doc.Content))
	}

	policy := domain.PolicyForOwnerKind(doc.OwnerKind)
	if err := domain.ValidateUpload(policy, doc.MediaType, size); err != nil {
		return nil, err
	}

	fingerprint := domain.Fingerprint(doc.Content)

	if s.isDuplicate(ctx, doc.OwnerID, fingerprint, doc.FileName) {
		return &IngestResult{Fingerprint: fingerprint, Duplicate: true}, nil
	}

	text, err := s.extractor.Extract(doc.Content, doc.MediaType)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	chunks := ChunkText(text, s.policy)
	if len(chunks) == 0 {
		return nil, domain.ErrNoExtractableText
	}

	doc.Size = size
	records := AssembleRecords(chunks, doc, fingerprint, time.Now().UTC())

	embedded := s.embedRecords(ctx, records)
	if len(embedded) == 0 {
		return nil, domain.ErrAllChunksFailed
	}

	for _, r := range embedded {
		r.ID = s.uuidGen.NewString()
	}

	if err := s.records.InsertMany(ctx, embedded); err != nil {
		span.SetError(err)
		return nil, domain.NewStoreError("insert", err)
	}

	if s.archive != nil {
		if err := s.archive.Put(ctx, archiveKey(doc.OwnerID, fingerprint), doc.Content, doc.MediaType); err != nil {
			// Archival is best-effort; the records are already stored.
			log.Printf("archive: failed to store raw document %s: %v", fingerprint, err)
		}
	}

	return &IngestResult{
		Fingerprint: fingerprint,
		ChunkCount:  len(chunks),
		StoredCount: len(embedded),
		Records:     embedded,
	}, nil
}

// isDuplicate checks for prior uploads of the same content (by fingerprint)
// or, failing that, the same file name within the owner scope. Lookup errors
// fail open: a transient store problem should not block uploads, at the cost
// of an occasional duplicate slipping through.
func (s *IngestService) isDuplicate(ctx context.Context, ownerID, fingerprint, fileName string) bool {
	existing, err := s.records.FindByFingerprint(ctx, ownerID, fingerprint)
	if err != nil {
		log.Printf("dedup: fingerprint lookup failed for owner %s, treating as new: %v", ownerID, err)
		return false
	}
	if len(existing) > 0 {
		return true
	}

	if fileName == "" {
		return false
	}

	byName, err := s.records.FindByName(ctx, ownerID, fileName)
	if err != nil {
		log.Printf("dedup: name lookup failed for owner %s, treating as new: %v", ownerID, err)
		return false
	}
	return len(byName) > 0
}

// embedRecords generates embeddings for all records, a bounded number at a
// time. Failed records are dropped; the survivors keep their source order
// and have their chunk numbering rewritten to stay contiguous.
func (s *IngestService) embedRecords(ctx context.Context, records []*domain.KnowledgeRecord) []*domain.KnowledgeRecord {
	embeddings := make([][]float32, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedParallelism)

	for i, record := range records {
		g.Go(func() error {
			vec, err := s.embedder.GenerateEmbedding(gctx, record.Content)
			if err != nil {
				log.Printf("embed: chunk %d/%d failed, skipping: %v", record.ChunkIndex, record.ChunkTotal, err)
				return nil
			}
			embeddings[i] = vec
			return nil
		})
	}
	// Goroutines never return errors; Wait only orders the writes.
	_ = g.Wait()

	survivors := make([]*domain.KnowledgeRecord, 0, len(records))
	for i, record := range records {
		if embeddings[i] == nil {
			continue
		}
		record.Embedding = embeddings[i]
		survivors = append(survivors, record)
	}
	return survivors
}

// Delete removes every stored chunk of a document and its archived raw copy.
func (s *IngestService) Delete(ctx context.Context, ownerID, fingerprint string) error {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.Delete", telemetry.SpanAttributes{
		OwnerID:     ownerID,
		Fingerprint: fingerprint,
		Operation:   "delete",
	})
	defer span.End()

	existing, err := s.records.FindByFingerprint(ctx, ownerID, fingerprint)
	if err != nil {
		return domain.NewStoreError("lookup", err)
	}
	if len(existing) == 0 {
		return domain.ErrDocumentNotFound
	}

	if err := s.records.DeleteByFingerprint(ctx, ownerID, fingerprint); err != nil {
		span.SetError(err)
		return domain.NewStoreError("delete", err)
	}

	if s.archive != nil {
		if err := s.archive.Delete(ctx, archiveKey(ownerID, fingerprint)); err != nil {
			log.Printf("archive: failed to delete raw document %s: %v", fingerprint, err)
		}
	}

	return nil
}

func archiveKey(ownerID, fingerprint string) string {
	return fmt.Sprintf("%s/%s", ownerID, fingerprint)
}
