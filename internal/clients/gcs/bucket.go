package gcs

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/siproka/siproka-backend/internal/platform/logger"
)

// BucketCategory selects which configured bucket a blob lives in. Plan files
// and activity attachments are kept apart so retention policies can differ.
type BucketCategory string

const (
	BucketCategoryPlan     BucketCategory = "plan"
	BucketCategoryActivity BucketCategory = "activity"
)

type bucketConfig struct {
	name      string
	cdnDomain string
}

// BlobStore is the durable home of every uploaded document. Uploads happen
// before the workflow transaction starts; the transaction only records the
// returned reference.
type BlobStore interface {
	Upload(ctx context.Context, category BucketCategory, key string, file io.Reader) (string, error)
	Download(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, category BucketCategory, key string) error
	PublicURL(category BucketCategory, key string) string
}

type blobStore struct {
	log            *logger.Logger
	storageClient  *storage.Client
	planBucket     bucketConfig
	activityBucket bucketConfig
}

func NewBlobStore(log *logger.Logger) (BlobStore, error) {
	serviceLog := log.With("service", "BlobStore")

	planBucketName := os.Getenv("PLAN_GCS_BUCKET_NAME")
	activityBucketName := os.Getenv("ACTIVITY_GCS_BUCKET_NAME")
	if planBucketName == "" {
		return nil, fmt.Errorf("missing env var PLAN_GCS_BUCKET_NAME")
	}
	if activityBucketName == "" {
		return nil, fmt.Errorf("missing env var ACTIVITY_GCS_BUCKET_NAME")
	}

	ctx := context.Background()
	opts := ClientOptionsFromEnv()
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	stClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &blobStore{
		log:           serviceLog,
		storageClient: stClient,
		planBucket: bucketConfig{
			name:      planBucketName,
			cdnDomain: os.Getenv("PLAN_CDN_DOMAIN"),
		},
		activityBucket: bucketConfig{
			name:      activityBucketName,
			cdnDomain: os.Getenv("ACTIVITY_CDN_DOMAIN"),
		},
	}, nil
}

func (bs *blobStore) getBucketConfig(category BucketCategory) (bucketConfig, error) {
	switch category {
	case BucketCategoryPlan:
		return bs.planBucket, nil
	case BucketCategoryActivity:
		return bs.activityBucket, nil
	default:
		return bucketConfig{}, fmt.Errorf("unknown bucket category: %s", category)
	}
}

// Upload writes the blob and returns its reference ("category/key"), the
// value workflow rows store as file_ref.
func (bs *blobStore) Upload(ctx context.Context, category BucketCategory, key string, file io.Reader) (string, error) {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := bs.storageClient.Bucket(cfg.name).Object(key).NewWriter(ctx)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return fmt.Sprintf("%s/%s", category, key), nil
}

func (bs *blobStore) Download(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error) {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return nil, err
	}
	r, err := bs.storageClient.Bucket(cfg.name).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open GCS object %q in bucket %q: %w", key, cfg.name, err)
	}
	return r, nil
}

func (bs *blobStore) Delete(ctx context.Context, category BucketCategory, key string) error {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := bs.storageClient.Bucket(cfg.name).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, cfg.name, err)
	}
	return nil
}

func (bs *blobStore) PublicURL(category BucketCategory, key string) string {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return ""
	}
	if cfg.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", cfg.cdnDomain, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", cfg.name, key)
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if s == "" {
		return ""
	}
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(s, ".doc"):
		return "application/msword"
	case strings.HasSuffix(s, ".docx"):
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case strings.HasSuffix(s, ".xls"):
		return "application/vnd.ms-excel"
	case strings.HasSuffix(s, ".xlsx"):
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".json"):
		return "application/json"
	default:
		return ""
	}
}
