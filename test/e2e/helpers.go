//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/corpora-ai/corpora/internal/api/handlers"
	"github.com/corpora-ai/corpora/internal/extract"
	"github.com/corpora-ai/corpora/internal/repository"
	"github.com/corpora-ai/corpora/internal/server"
	"github.com/corpora-ai/corpora/internal/service"
	"github.com/corpora-ai/corpora/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

const embeddingDim = 1536

// hashEmbedder produces deterministic embeddings from the text content, so
// semantically identical chunks always map to the same vector without
// calling a real embedding API.
type hashEmbedder struct{}

func (hashEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, embeddingDim)
	for i := range vec {
		word := binary.BigEndian.Uint32(sum[(i*4)%28 : (i*4)%28+4])
		vec[i] = float32(word%1000)/1000 - 0.5
	}
	return vec, nil
}

// Env holds all resources needed for end-to-end tests.
type Env struct {
	T         *testing.T
	Ctx       context.Context
	PostgresC *testutil.PostgresContainer
	Pool      *pgxpool.Pool
	Server    *httptest.Server
	Client    *http.Client
}

// Setup starts a postgres container, runs migrations and serves the full
// router backed by real repository and extractor.
func Setup(t *testing.T) *Env {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	svc := service.NewIngestService(
		repository.NewRecordRepository(pool),
		extract.New(),
		hashEmbedder{},
	)

	router := server.NewRouter(server.RouterConfig{
		DocumentHandler: handlers.NewDocumentHandler(svc),
		SearchHandler:   handlers.NewSearchHandler(svc),
	})

	srv := httptest.NewServer(router)

	return &Env{
		T:         t,
		Ctx:       ctx,
		PostgresC: pgC,
		Pool:      pool,
		Server:    srv,
		Client:    srv.Client(),
	}
}

// Cleanup releases all test resources.
func (e *Env) Cleanup() {
	e.Server.Close()
	e.Pool.Close()
	e.PostgresC.Terminate(e.Ctx)
}

// Response is a decoded API response.
type Response struct {
	Status int
	Data   json.RawMessage
	Error  string
}

func (e *Env) decode(resp *http.Response) (*Response, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	out := &Response{Status: resp.StatusCode}
	if len(body) == 0 {
		return out, nil
	}

	var envelope struct {
		Data  json.RawMessage `json:"data"`
		Error string          `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("invalid response body %q: %w", body, err)
	}
	out.Data = envelope.Data
	out.Error = envelope.Error
	return out, nil
}

// Upload posts a file to /documents under the given owner.
func (e *Env) Upload(owner, fileName, contentType string, content []byte) (*Response, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="file"; filename="` + fileName + `"`}
	header["Content-Type"] = []string{contentType}
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, e.Server.URL+"/documents", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-Owner-ID", owner)

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, err
	}
	return e.decode(resp)
}

// Get performs a GET request under the given owner.
func (e *Env) Get(owner, path string) (*Response, error) {
	req, err := http.NewRequest(http.MethodGet, e.Server.URL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Owner-ID", owner)

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, err
	}
	return e.decode(resp)
}

// Post sends a JSON body under the given owner.
func (e *Env) Post(owner, path string, body interface{}) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, e.Server.URL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Owner-ID", owner)

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, err
	}
	return e.decode(resp)
}

// Delete removes a document by fingerprint under the given owner.
func (e *Env) Delete(owner, fingerprint string) (*Response, error) {
	req, err := http.NewRequest(http.MethodDelete, e.Server.URL+"/documents/"+fingerprint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Owner-ID", owner)

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, err
	}
	return e.decode(resp)
}
