package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/kavos113/assistant-artifacts/domain"
	"github.com/kavos113/assistant-artifacts/storage"
	"github.com/kavos113/assistant-artifacts/store"
)

var ErrNoLedger = errors.New("upload ledger is not configured")

type Config struct {
	RootFolder string
	Services   []string
	// ProgressOutput receives the overwritten progress lines during uploads.
	ProgressOutput io.Writer
}

// ArtifactStore uploads service artifacts under canonical keys and issues
// download links for them. It keeps no mutable state between calls.
type ArtifactStore struct {
	root     string
	services []string
	out      io.Writer
	backend  storage.Backend
	ledger   store.Store
	logger   *slog.Logger
	now      func() time.Time
}

// NewArtifactStore builds the store. ledger may be nil.
func NewArtifactStore(cfg Config, backend storage.Backend, ledger store.Store, logger *slog.Logger) *ArtifactStore {
	root := cfg.RootFolder
	if root == "" {
		root = domain.DefaultRootFolder
	}
	services := cfg.Services
	if len(services) == 0 {
		services = domain.DefaultServices
	}
	out := cfg.ProgressOutput
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	return &ArtifactStore{
		root:     root,
		services: slices.Clone(services),
		out:      out,
		backend:  backend,
		ledger:   ledger,
		logger:   logger,
		now:      time.Now,
	}
}

func (a *ArtifactStore) Services() []string {
	return slices.Clone(a.services)
}

func (a *ArtifactStore) Validate(serviceName string, versions ...string) error {
	if err := domain.ValidateService(serviceName, a.services); err != nil {
		return err
	}
	return domain.ValidateVersions(versions...)
}

func (a *ArtifactStore) Key(assistantVersion, serviceName, serviceVersion, fileName string) string {
	return domain.BuildKey(a.root, assistantVersion, serviceName, serviceVersion, fileName)
}

func (a *ArtifactStore) Upload(ctx context.Context, req domain.UploadRequest) error {
	if err := a.Validate(req.ServiceName, req.AssistantVersion, req.ServiceVersion); err != nil {
		return err
	}

	st, err := os.Stat(req.LocalPath)
	if err != nil || st.IsDir() {
		return fmt.Errorf("%w: %s", domain.ErrLocalFileNotFound, req.LocalPath)
	}

	fileName := filepath.Base(req.LocalPath)
	key := a.Key(req.AssistantVersion, req.ServiceName, req.ServiceVersion, fileName)
	logger := a.logger.With(slog.String("key", key))

	existing, err := a.backend.ListByPrefix(ctx, key)
	if err != nil {
		return &domain.BackendError{Op: "list", Err: err}
	}
	if len(existing) > 0 {
		return fmt.Errorf("%w: path %s", domain.ErrRemoteFileAlreadyExists, key)
	}

	progress := domain.NewTransferProgress(req.LocalPath, st.Size(), a.out)
	err = a.backend.UploadFile(ctx, key, req.LocalPath, progress.Add)
	progress.Done()
	if err != nil {
		return &domain.BackendError{Op: "upload", Err: err}
	}

	logger.Info("artifact uploaded", slog.Int64("size", st.Size()))

	if a.ledger != nil {
		rec := domain.UploadRecord{
			Key:              key,
			AssistantVersion: req.AssistantVersion,
			ServiceName:      req.ServiceName,
			ServiceVersion:   req.ServiceVersion,
			FileName:         fileName,
			Size:             st.Size(),
			LocalPath:        req.LocalPath,
			UploadedAt:       a.now().UTC(),
		}
		if err := a.ledger.Record(rec); err != nil {
			logger.Warn("failed to record upload", slog.Any("error", err))
		}
	}

	return nil
}

// GenerateDownloadLink signs a GET link for the artifact whose leaf name is
// the service name itself. expiryInSec == 0 means seven days.
func (a *ArtifactStore) GenerateDownloadLink(ctx context.Context, assistantVersion, serviceName, serviceVersion string, expiryInSec int) (domain.DownloadLink, error) {
	return a.GenerateDownloadLinkForFile(ctx, assistantVersion, serviceName, serviceVersion, serviceName, expiryInSec)
}

// GenerateDownloadLinkForFile is GenerateDownloadLink with an explicit leaf
// name, for artifacts uploaded under a file name other than the service name.
func (a *ArtifactStore) GenerateDownloadLinkForFile(ctx context.Context, assistantVersion, serviceName, serviceVersion, fileName string, expiryInSec int) (domain.DownloadLink, error) {
	if err := a.Validate(serviceName, assistantVersion, serviceVersion); err != nil {
		return domain.DownloadLink{}, err
	}
	if expiryInSec < 0 {
		return domain.DownloadLink{}, fmt.Errorf("%w: %d seconds", domain.ErrInvalidExpiry, expiryInSec)
	}
	if expiryInSec == 0 {
		expiryInSec = domain.DefaultLinkExpiry
	}
	if fileName == "" {
		fileName = serviceName
	}

	key := a.Key(assistantVersion, serviceName, serviceVersion, fileName)
	url, err := a.backend.PresignGet(ctx, key, time.Duration(expiryInSec)*time.Second)
	if err != nil {
		return domain.DownloadLink{}, &domain.BackendError{Op: "presign", Err: err}
	}

	return domain.DownloadLink{
		URL:       url,
		Key:       key,
		ExpiresIn: expiryInSec,
	}, nil
}

func (a *ArtifactStore) History(prefix string) ([]domain.UploadRecord, error) {
	if a.ledger == nil {
		return nil, ErrNoLedger
	}
	if prefix == "" {
		prefix = a.root + "/"
	}
	return a.ledger.List(prefix)
}
