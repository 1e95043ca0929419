package domain

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUpload_Supported(t *testing.T) {
	policy := PolicyForOwnerKind(OwnerKindWorkspace)

	for _, mt := range []string{
		"text/plain",
		"text/plain; charset=utf-8",
		"application/pdf",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"application/vnd.oasis.opendocument.text",
	} {
		assert.NoError(t, ValidateUpload(policy, mt, 1024), "media type %s should be accepted", mt)
	}
}

func TestValidateUpload_UnsupportedType(t *testing.T) {
	policy := PolicyForOwnerKind(OwnerKindWorkspace)

	err := ValidateUpload(policy, "application/zip", 1024)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestValidateUpload_ImageRejected(t *testing.T) {
	policy := PolicyForOwnerKind(OwnerKindWorkspace)

	err := ValidateUpload(policy, "image/png", 1024)
	assert.ErrorIs(t, err, ErrImageTypeRejected)
}

func TestValidateUpload_TooLarge(t *testing.T) {
	workspace := PolicyForOwnerKind(OwnerKindWorkspace)
	org := PolicyForOwnerKind(OwnerKindOrganization)

	size := int64(20 * 1024 * 1024)

	assert.ErrorIs(t, ValidateUpload(workspace, "application/pdf", size), ErrFileTooLarge)
	assert.NoError(t, ValidateUpload(org, "application/pdf", size), "organization ceiling is 50MB")
}

func TestValidateUpload_SizeBoundary(t *testing.T) {
	policy := PolicyForOwnerKind(OwnerKindWorkspace)

	assert.NoError(t, ValidateUpload(policy, "text/plain", MaxUploadBytesWorkspace))
	assert.ErrorIs(t, ValidateUpload(policy, "text/plain", MaxUploadBytesWorkspace+1), ErrFileTooLarge)
}

func TestFingerprint_Deterministic(t *testing.T) {
	content := []byte("the same bytes every time")

	first := Fingerprint(content)
	second := Fingerprint(content)

	require.Len(t, first, 64, "sha256 hex digest is 64 characters")
	assert.Equal(t, first, second)
}

func TestFingerprint_ContentSensitive(t *testing.T) {
	a := Fingerprint([]byte("document one"))
	b := Fingerprint([]byte("document two"))

	assert.NotEqual(t, a, b)
}

func TestFingerprint_IgnoresNameAndType(t *testing.T) {
	content := bytes.Repeat([]byte{0x42}, 512)

	docA := RawDocument{Content: content, FileName: "a.txt", MediaType: "text/plain"}
	docB := RawDocument{Content: content, FileName: "b.pdf", MediaType: "application/pdf"}

	assert.Equal(t, Fingerprint(docA.Content), Fingerprint(docB.Content))
}

func TestNormalizeMediaType(t *testing.T) {
	assert.Equal(t, "text/plain", NormalizeMediaType("Text/Plain; charset=UTF-8"))
	assert.Equal(t, "application/pdf", NormalizeMediaType(" application/pdf "))
}
