package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/siproka/siproka-backend/internal/clients/gcs"
	"github.com/siproka/siproka-backend/internal/http/response"
	"github.com/siproka/siproka-backend/internal/platform/logger"
	"github.com/siproka/siproka-backend/internal/services"
)

// 25 MiB, matching the upload cap enforced by the reverse proxy.
const maxUploadBytes = 25 << 20

type DocumentHandler struct {
	log       *logger.Logger
	documents services.DocumentService
}

func NewDocumentHandler(log *logger.Logger, documents services.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		log:       log.With("handler", "DocumentHandler"),
		documents: documents,
	}
}

// Upload stores a multipart file and returns the reference to attach on a
// later submit or resubmit call.
func (h *DocumentHandler) Upload(c *gin.Context) {
	category := gcs.BucketCategory(c.PostForm("category"))
	switch category {
	case gcs.BucketCategoryPlan, gcs.BucketCategoryActivity:
	default:
		response.RespondError(c, http.StatusBadRequest, "validation", errInvalidCategory)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	if fileHeader.Size > maxUploadBytes {
		response.RespondError(c, http.StatusBadRequest, "validation", errFileTooLarge)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	defer file.Close()

	ref, url, err := h.documents.Upload(c.Request.Context(), category, fileHeader.Filename, io.LimitReader(file, maxUploadBytes))
	if err != nil {
		response.RespondWorkflowError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"ref": ref, "url": url})
}

// Download streams a stored file back by its reference.
func (h *DocumentHandler) Download(c *gin.Context) {
	ref := c.Query("ref")
	rc, err := h.documents.Download(c.Request.Context(), ref)
	if err != nil {
		response.RespondWorkflowError(c, err)
		return
	}
	defer rc.Close()

	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		h.log.Warn("document stream interrupted", "ref", ref, "error", err)
	}
}

var (
	errInvalidCategory = errors.New("category must be plan or activity")
	errFileTooLarge    = errors.New("file exceeds the 25 MiB upload limit")
)
