package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	st, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	id := uuid.New()
	path, err := st.Upload(ctx, id, "my brief.pdf", strings.NewReader("content"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, id.String()[:2]+"/"))
	assert.True(t, strings.HasSuffix(path, "_my_brief.pdf"))

	rc, err := st.Download(ctx, path)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	require.NoError(t, st.Delete(ctx, path))
	_, err = st.Download(ctx, path)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting twice is not an error
	assert.NoError(t, st.Delete(ctx, path))
}

func TestLocalStorage_SaveOverwrites(t *testing.T) {
	st, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	exists, err := st.Exists(ctx, "docs/Document.docx")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, st.Save(ctx, "docs/Document.docx", strings.NewReader("v1")))
	require.NoError(t, st.Save(ctx, "docs/Document.docx", strings.NewReader("v2")))

	exists, err = st.Exists(ctx, "docs/Document.docx")
	require.NoError(t, err)
	assert.True(t, exists)

	rc, err := st.Download(ctx, "docs/Document.docx")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestLocalStorage_RejectsEscapingPaths(t *testing.T) {
	st, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, p := range []string{"../outside.txt", "a/../../outside.txt", "", "."} {
		assert.Error(t, st.Save(ctx, p, strings.NewReader("x")), p)
		_, err := st.Download(ctx, p)
		assert.Error(t, err, p)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "supabase")
	t.Setenv("SUPABASE_URL", "https://abc.supabase.co/")
	t.Setenv("SUPABASE_BUCKET", "")
	t.Setenv("SUPABASE_S3_ACCESS_KEY", "key")
	t.Setenv("SUPABASE_S3_SECRET_KEY", "secret")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, StorageTypeSupabase, cfg.Type)
	assert.Equal(t, "https://abc.supabase.co/storage/v1/s3", cfg.S3Endpoint)
	assert.Equal(t, "documents", cfg.S3Bucket)
	assert.Equal(t, "us-east-1", cfg.S3Region)
	assert.Equal(t, "key", cfg.AWSAccessKey)

	t.Setenv("SUPABASE_URL", "")
	_, err = ConfigFromEnv()
	assert.Error(t, err)

	t.Setenv("STORAGE_TYPE", "s3")
	t.Setenv("AWS_S3_BUCKET", "")
	_, err = ConfigFromEnv()
	assert.Error(t, err)

	t.Setenv("STORAGE_TYPE", "ftp")
	_, err = ConfigFromEnv()
	assert.Error(t, err)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentType("a.PDF"))
	assert.Equal(t, "application/rtf", ContentType("a.rtf"))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", ContentType("documents/a.docx"))
	assert.Equal(t, "application/octet-stream", ContentType("a"))
}
