package s3

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/kavos113/assistant-artifacts/storage"
)

type Config struct {
	Bucket         string
	Region         string
	Endpoint       string
	PublicEndpoint string // endpoint embedded in presigned URLs, defaults to Endpoint
	AccessKey      string
	SecretKey      string
	PartSize       int64
	Concurrency    int
}

type Storage struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	uploader      *manager.Uploader
	bucket        string
	logger        *slog.Logger
}

func NewStorage(ctx context.Context, cfg Config, logger *slog.Logger) (*Storage, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, endpointOption(cfg.Endpoint))

	publicEndpoint := cfg.PublicEndpoint
	if publicEndpoint == "" {
		publicEndpoint = cfg.Endpoint
	}
	presignClient := s3.NewPresignClient(s3.NewFromConfig(awsCfg, endpointOption(publicEndpoint)))

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		if cfg.PartSize > 0 {
			u.PartSize = cfg.PartSize
		}
		if cfg.Concurrency > 0 {
			u.Concurrency = cfg.Concurrency
		}
	})

	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	return &Storage{
		client:        client,
		presignClient: presignClient,
		uploader:      uploader,
		bucket:        cfg.Bucket,
		logger:        logger.With(slog.String("bucket", cfg.Bucket)),
	}, nil
}

// endpointOption points the client at a custom (e.g. MinIO) endpoint.
// An empty endpoint keeps the regional AWS default.
func endpointOption(endpoint string) func(*s3.Options) {
	return func(o *s3.Options) {
		if endpoint == "" {
			return
		}
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	}
}

func (s *Storage) ListByPrefix(ctx context.Context, prefix string) ([]string, error) {
	output, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		s.logger.Error("failed to list objects", slog.String("prefix", prefix), slog.Any("error", err))
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	keys := make([]string, 0, len(output.Contents))
	for _, obj := range output.Contents {
		keys = append(keys, aws.ToString(obj.Key))
	}
	return keys, nil
}

func (s *Storage) UploadFile(ctx context.Context, key string, localPath string, onProgress storage.ProgressFunc) error {
	f, err := os.Open(localPath)
	if err != nil {
		s.logger.Error("failed to open upload file", slog.String("path", localPath), slog.Any("error", err))
		return fmt.Errorf("failed to open %s: %w", localPath, storage.ErrStorageFail)
	}
	defer f.Close()

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   newProgressBody(f, onProgress),
	})
	if err != nil {
		s.logger.Error("failed to upload object", slog.String("key", key), slog.Any("error", err))
		return fmt.Errorf("failed to upload object: %w", err)
	}

	s.logger.Info("uploaded object", slog.String("key", key))
	return nil
}

func (s *Storage) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return req.URL, nil
}
