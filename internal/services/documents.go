package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/siproka/siproka-backend/internal/clients/gcs"
	domainagg "github.com/siproka/siproka-backend/internal/domain/aggregates"
	"github.com/siproka/siproka-backend/internal/platform/logger"
)

// DocumentService stores uploaded files ahead of the workflow transaction.
// Callers first push the bytes here, then pass the returned reference to a
// submit or resubmit call; the workflow rows never carry blobs.
type DocumentService interface {
	Upload(ctx context.Context, category gcs.BucketCategory, filename string, file io.Reader) (ref string, url string, err error)
	Download(ctx context.Context, ref string) (io.ReadCloser, error)
}

type documentService struct {
	log   *logger.Logger
	blobs gcs.BlobStore
}

func NewDocumentService(baseLog *logger.Logger, blobs gcs.BlobStore) DocumentService {
	return &documentService{
		log:   baseLog.With("service", "DocumentService"),
		blobs: blobs,
	}
}

func (s *documentService) Upload(ctx context.Context, category gcs.BucketCategory, filename string, file io.Reader) (string, string, error) {
	filename = strings.TrimSpace(path.Base(filename))
	if filename == "" || filename == "." {
		return "", "", domainagg.NewError(domainagg.CodeValidation, "Document.Upload", "a filename is required", nil)
	}
	key := fmt.Sprintf("%s/%s-%s", time.Now().UTC().Format("2006/01"), uuid.New(), filename)

	ref, err := s.blobs.Upload(ctx, category, key, file)
	if err != nil {
		s.log.Error("blob upload failed", "category", category, "key", key, "error", err)
		return "", "", domainagg.NewError(domainagg.CodeStorageUnavailable, "Document.Upload", "document storage is unavailable", err)
	}
	return ref, s.blobs.PublicURL(category, key), nil
}

func (s *documentService) Download(ctx context.Context, ref string) (io.ReadCloser, error) {
	category, key, ok := strings.Cut(ref, "/")
	if !ok || key == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, "Document.Download", "malformed document reference", nil)
	}
	rc, err := s.blobs.Download(ctx, gcs.BucketCategory(category), key)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeStorageUnavailable, "Document.Download", "document storage is unavailable", err)
	}
	return rc, nil
}
