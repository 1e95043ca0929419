package handlers

import (
	"context"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/corpora-ai/corpora/internal/api"
	"github.com/corpora-ai/corpora/internal/api/middleware"
	"github.com/corpora-ai/corpora/internal/domain"
	"github.com/corpora-ai/corpora/internal/service"
	"github.com/go-chi/chi/v5"
)

// maxMultipartMemory bounds the in-memory portion of multipart parsing;
// larger files spill to disk.
const maxMultipartMemory = 10 << 20

type DocumentService interface {
	Ingest(ctx context.Context, doc domain.RawDocument) (*service.IngestResult, error)
	Delete(ctx context.Context, ownerID, fingerprint string) error
	Stats(ctx context.Context, ownerID string) (*service.StatsOutput, error)
}

type DocumentHandler struct {
	svc DocumentService
}

func NewDocumentHandler(svc DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

type UploadResponse struct {
	Fingerprint string `json:"fingerprint"`
	FileName    string `json:"file_name"`
	ChunkCount  int    `json:"chunk_count"`
	StoredCount int    `json:"stored_count"`
}

type DocumentStatsResponse struct {
	Fingerprint string `json:"fingerprint"`
	FileName    string `json:"file_name"`
	FileType    string `json:"file_type"`
	FileSize    int64  `json:"file_size"`
	ChunkCount  int    `json:"chunk_count"`
	TokenCount  int    `json:"token_count"`
}

type StatsResponse struct {
	DocumentCount int                      `json:"document_count"`
	ChunkCount    int                      `json:"chunk_count"`
	TokenCount    int                      `json:"token_count"`
	Documents     []*DocumentStatsResponse `json:"documents"`
}

// Upload ingests a document submitted as the "file" field of a multipart
// form. A re-upload of already ingested content is a conflict.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		api.Error(w, http.StatusBadRequest, "owner id is required")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read file")
		return
	}

	doc := domain.RawDocument{
		Content:   content,
		FileName:  header.Filename,
		MediaType: uploadMediaType(header.Header.Get("Content-Type"), header.Filename, content),
		Size:      int64(len(content)),
		OwnerID:   ownerID,
		OwnerKind: middleware.GetOwnerKind(r.Context()),
	}

	result, err := h.svc.Ingest(r.Context(), doc)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if result.Duplicate {
		api.Error(w, http.StatusConflict, "document already ingested")
		return
	}

	api.Success(w, http.StatusCreated, UploadResponse{
		Fingerprint: result.Fingerprint,
		FileName:    doc.FileName,
		ChunkCount:  result.ChunkCount,
		StoredCount: result.StoredCount,
	})
}

// Delete removes every record of the document with the given fingerprint.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	fingerprint := chi.URLParam(r, "fingerprint")
	if fingerprint == "" {
		api.Error(w, http.StatusBadRequest, "fingerprint is required")
		return
	}

	if err := h.svc.Delete(r.Context(), ownerID, fingerprint); err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusNoContent, nil)
}

// Stats returns per-document and aggregate counts for the owner scope.
func (h *DocumentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())

	out, err := h.svc.Stats(r.Context(), ownerID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	docs := make([]*DocumentStatsResponse, 0, len(out.Documents))
	for _, d := range out.Documents {
		docs = append(docs, &DocumentStatsResponse{
			Fingerprint: d.Fingerprint,
			FileName:    d.FileName,
			FileType:    d.FileType,
			FileSize:    d.FileSize,
			ChunkCount:  d.ChunkCount,
			TokenCount:  d.TokenCount,
		})
	}

	api.Success(w, http.StatusOK, StatsResponse{
		DocumentCount: out.DocumentCount,
		ChunkCount:    out.ChunkCount,
		TokenCount:    out.TokenCount,
		Documents:     docs,
	})
}

// uploadMediaType resolves the media type of an upload, preferring the part
// header, then the file extension, then content sniffing.
func uploadMediaType(declared, fileName string, content []byte) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if byExt := mime.TypeByExtension(filepath.Ext(fileName)); byExt != "" {
		return byExt
	}
	return http.DetectContentType(content)
}
