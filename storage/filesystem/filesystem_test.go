package filesystem

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/kavos113/assistant-artifacts/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("x"), size), 0644))
	return path
}

func TestStorage_UploadAndList(t *testing.T) {
	ctx := context.Background()
	s, err := NewStorage(t.TempDir(), nil)
	require.NoError(t, err)

	src := writeFile(t, t.TempDir(), "jobs.tar", 100*1024)

	var reported int64
	err = s.UploadFile(ctx, "assistant_versions/1.0.0/jobs/1.0.0/jobs.tar", src, func(n int64) { reported += n })
	require.NoError(t, err)
	assert.Equal(t, int64(100*1024), reported)

	err = s.UploadFile(ctx, "assistant_versions/1.0.0/nlp_bert/2.0.0/model.bin", src, nil)
	require.NoError(t, err)

	keys, err := s.ListByPrefix(ctx, "assistant_versions/1.0.0/jobs/1.0.0/jobs.tar")
	require.NoError(t, err)
	assert.Equal(t, []string{"assistant_versions/1.0.0/jobs/1.0.0/jobs.tar"}, keys)

	keys, err = s.ListByPrefix(ctx, "assistant_versions/1.0.0/")
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	keys, err = s.ListByPrefix(ctx, "assistant_versions/2.0.0/")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestStorage_UploadMissingFile(t *testing.T) {
	s, err := NewStorage(t.TempDir(), nil)
	require.NoError(t, err)

	err = s.UploadFile(context.Background(), "a/b", filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)
}

func TestStorage_PresignGet(t *testing.T) {
	root := t.TempDir()
	s, err := NewStorage(root, nil)
	require.NoError(t, err)

	fixed := time.Unix(1700000000, 0)
	s.now = func() time.Time { return fixed }

	raw, err := s.PresignGet(context.Background(), "assistant_versions/1.0.0/jobs/1.0.0/jobs", 60*time.Second)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "file", u.Scheme)
	assert.Equal(t, filepath.ToSlash(filepath.Join(s.rootPath, "assistant_versions/1.0.0/jobs/1.0.0/jobs")), u.Path)
	assert.Equal(t, strconv.FormatInt(fixed.Unix()+60, 10), u.Query().Get("expires"))
}

func TestNewStorage_EmptyPath(t *testing.T) {
	_, err := NewStorage("", nil)
	assert.Error(t, err)
}

func TestStorage_UploadFailureLogsError(t *testing.T) {
	var buf bytes.Buffer
	root := t.TempDir()
	s, err := NewStorage(root, slog.New(slog.NewJSONHandler(&buf, nil)))
	require.NoError(t, err)

	// a regular file where the object dir should be
	require.NoError(t, os.WriteFile(filepath.Join(root, "assistant_versions"), []byte("x"), 0644))

	src := writeFile(t, t.TempDir(), "jobs.tar", 10)
	err = s.UploadFile(context.Background(), "assistant_versions/1.0.0/jobs/1.0.0/jobs.tar", src, nil)

	assert.True(t, errors.Is(err, storage.ErrStorageFail))
	assert.Contains(t, buf.String(), "failed to create object dir")
	assert.Contains(t, buf.String(), "assistant_versions/1.0.0/jobs/1.0.0/jobs.tar")
}

func TestStorage_ListCancelledLogsError(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewStorage(t.TempDir(), slog.New(slog.NewJSONHandler(&buf, nil)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.ListByPrefix(ctx, "assistant_versions/")
	assert.True(t, errors.Is(err, storage.ErrStorageFail))
	assert.Contains(t, buf.String(), "failed to walk storage dir")
}
