package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// OwnerKind selects the deployment variant an upload is validated under.
type OwnerKind string

const (
	OwnerKindWorkspace    OwnerKind = "workspace"
	OwnerKindOrganization OwnerKind = "organization"
)

// Size ceilings per owner kind.
const (
	MaxUploadBytesWorkspace    = 10 * 1024 * 1024
	MaxUploadBytesOrganization = 50 * 1024 * 1024
)

// ParseOwnerKind maps a header or flag value to an OwnerKind. Anything
// other than "organization" is treated as workspace.
func ParseOwnerKind(s string) OwnerKind {
	if strings.EqualFold(strings.TrimSpace(s), string(OwnerKindOrganization)) {
		return OwnerKindOrganization
	}
	return OwnerKindWorkspace
}

// RawDocument is the immutable input to the ingestion pipeline. It is created
// at the request boundary, consumed once, and never retained.
type RawDocument struct {
	Content   []byte
	FileName  string
	MediaType string
	Size      int64
	OwnerID   string
	OwnerKind OwnerKind
}

// supportedMediaTypes is the upload allow-list: text family, PDF, Word,
// Excel, PowerPoint and the OpenDocument family.
var supportedMediaTypes = map[string]bool{
	"text/plain":     true,
	"text/markdown":  true,
	"text/csv":       true,
	"application/json": true,
	"application/pdf":  true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   true,
	"application/vnd.ms-excel":                                                  true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         true,
	"application/vnd.ms-powerpoint":                                             true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
	"application/vnd.oasis.opendocument.text":                                   true,
	"application/vnd.oasis.opendocument.spreadsheet":                            true,
	"application/vnd.oasis.opendocument.presentation":                           true,
}

// ValidationPolicy parameterizes upload validation for a deployment variant.
type ValidationPolicy struct {
	MaxBytes     int64
	RejectImages bool
}

// PolicyForOwnerKind returns the validation variant for an owner kind.
// Workspaces get the tighter ceiling; organizations the relaxed one.
func PolicyForOwnerKind(kind OwnerKind) ValidationPolicy {
	if kind == OwnerKindOrganization {
		return ValidationPolicy{MaxBytes: MaxUploadBytesOrganization, RejectImages: true}
	}
	return ValidationPolicy{MaxBytes: MaxUploadBytesWorkspace, RejectImages: true}
}

// ValidateUpload checks the declared media type against the allow-list and
// enforces the policy's byte ceiling. Pure predicate, no side effects.
func ValidateUpload(policy ValidationPolicy, mediaType string, size int64) error {
	normalized := NormalizeMediaType(mediaType)

	if policy.RejectImages && strings.HasPrefix(normalized, "image/") {
		return ErrImageTypeRejected
	}

	if !supportedMediaTypes[normalized] && !strings.HasPrefix(normalized, "text/") {
		return ErrUnsupportedType
	}

	if policy.MaxBytes > 0 && size > policy.MaxBytes {
		return ErrFileTooLarge
	}

	return nil
}

// NormalizeMediaType lowercases the type and drops any parameters
// (e.g. "text/plain; charset=utf-8" -> "text/plain").
func NormalizeMediaType(mediaType string) string {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}

// Fingerprint computes the content digest used as the deduplication key.
// Identical bytes always produce the same fingerprint regardless of the
// declared file name or media type.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
