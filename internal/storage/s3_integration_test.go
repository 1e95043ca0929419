//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/corpora-ai/corpora/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchive_PutHeadDelete(t *testing.T) {
	ctx := context.Background()
	rc := testutil.NewRustFSContainer(ctx, t)
	defer rc.Terminate(ctx)

	archive, err := NewArchive(ctx, ArchiveConfig{
		Endpoint:        rc.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "corpora-archive-test",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	require.NoError(t, archive.EnsureBucket(ctx))

	key := "owner-1/abc123"
	content := []byte("raw document bytes")

	require.NoError(t, archive.Put(ctx, key, content, "text/plain"))

	meta, err := archive.HeadObject(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), meta.ContentLength)
	assert.Equal(t, "text/plain", meta.ContentType)

	url, err := archive.GenerateDownloadURL(ctx, key)
	require.NoError(t, err)
	assert.Contains(t, url, key)

	require.NoError(t, archive.Delete(ctx, key))

	_, err = archive.HeadObject(ctx, key)
	assert.Error(t, err)
}
