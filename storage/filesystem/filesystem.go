package filesystem

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kavos113/assistant-artifacts/storage"
)

const (
	chunkSize  = 32 * 1024
	partSuffix = ".part"
)

// Storage keeps objects as plain files under rootPath, one file per key.
type Storage struct {
	rootPath string
	now      func() time.Time
	logger   *slog.Logger
}

func NewStorage(rootPath string, logger *slog.Logger) (*Storage, error) {
	if rootPath == "" {
		return nil, fmt.Errorf("empty storage path: %w", storage.ErrStorageFail)
	}
	if err := os.MkdirAll(rootPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", storage.ErrStorageFail)
	}

	abs, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage dir: %w", storage.ErrStorageFail)
	}

	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	return &Storage{
		rootPath: abs,
		now:      time.Now,
		logger:   logger.With(slog.String("root", abs)),
	}, nil
}

func (s *Storage) objectPath(key string) string {
	return filepath.Join(s.rootPath, filepath.FromSlash(key))
}

func (s *Storage) ListByPrefix(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	err := filepath.WalkDir(s.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || strings.HasSuffix(path, partSuffix) {
			return nil
		}

		rel, err := filepath.Rel(s.rootPath, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to walk storage dir", slog.String("prefix", prefix), slog.Any("error", err))
		return nil, fmt.Errorf("failed to list objects: %w", storage.ErrStorageFail)
	}

	sort.Strings(keys)
	return keys, nil
}

func (s *Storage) UploadFile(ctx context.Context, key string, localPath string, onProgress storage.ProgressFunc) error {
	src, err := os.Open(localPath)
	if err != nil {
		if os.IsNotExist(err) {
			return storage.ErrNotFound
		}
		s.logger.Error("failed to open upload file", slog.String("path", localPath), slog.Any("error", err))
		return fmt.Errorf("failed to open upload file: %w", storage.ErrStorageFail)
	}
	defer src.Close()

	dstPath := s.objectPath(key)
	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		s.logger.Error("failed to create object dir", slog.String("key", key), slog.Any("error", err))
		return fmt.Errorf("failed to create object dir: %w", storage.ErrStorageFail)
	}

	tmpPath := dstPath + partSuffix
	dst, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		s.logger.Error("failed to open object file", slog.String("path", tmpPath), slog.Any("error", err))
		return fmt.Errorf("failed to open object file: %w", storage.ErrStorageFail)
	}

	if err := copyWithProgress(ctx, dst, src, onProgress); err != nil {
		dst.Close()
		os.Remove(tmpPath)
		s.logger.Error("failed to save content", slog.String("path", tmpPath), slog.Any("error", err))
		return fmt.Errorf("failed to save content: %w", storage.ErrStorageFail)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		s.logger.Error("failed to close object file", slog.String("path", tmpPath), slog.Any("error", err))
		return fmt.Errorf("failed to close object file: %w", storage.ErrStorageFail)
	}

	if err := os.Rename(tmpPath, dstPath); err != nil {
		s.logger.Error("failed to store object", slog.String("key", key), slog.Any("error", err))
		return fmt.Errorf("failed to store object: %w", storage.ErrStorageFail)
	}

	return nil
}

func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, onProgress storage.ProgressFunc) error {
	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
			if onProgress != nil {
				onProgress(int64(n))
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// PresignGet returns a file:// URL; the expiry is informational only.
func (s *Storage) PresignGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(s.objectPath(key)),
	}
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(s.now().Add(expiry).Unix(), 10))
	u.RawQuery = q.Encode()

	return u.String(), nil
}
