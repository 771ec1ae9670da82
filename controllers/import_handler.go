package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	apperrors "storefront-service/common/errors"
	"storefront-service/importer"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ImportHandler handles catalog file uploads.
type ImportHandler struct {
	service   *services.ImportService
	queue     *services.ImportQueue
	validator *RequestValidator
}

// NewImportHandler builds the handler. A nil queue makes async requests run
// synchronously.
func NewImportHandler(service *services.ImportService, queue *services.ImportQueue, validator *RequestValidator) *ImportHandler {
	return &ImportHandler{service: service, queue: queue, validator: validator}
}

// Upload imports the file posted under field into entity.
func (h *ImportHandler) Upload(entity, field string, format importer.Format) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := h.validator.UploadFile(c, field, format)
		if err != nil {
			_ = c.Error(err)
			return
		}
		up, err := h.stage(c, file.Filename, file.Open)
		if err != nil {
			_ = c.Error(err)
			return
		}

		if strings.EqualFold(strings.TrimSpace(c.Query("async")), "true") && h.queue != nil {
			job, err := h.queue.Enqueue(c.Request.Context(), entity, format, up)
			if err != nil {
				_ = up.Release()
				_ = c.Error(apperrors.Internal("Failed to queue import job", err))
				return
			}
			c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID, "message": "Import queued for processing"})
			return
		}

		h.run(c, entity, format, up, false)
	}
}

// ValidateUpload dry runs the file posted under "file" against entity.
func (h *ImportHandler) ValidateUpload(entity string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header, err := c.FormFile("file")
		if err != nil {
			_ = c.Error(apperrors.BadRequest("No file uploaded", err))
			return
		}
		format, err := formatFromUpload(c, header)
		if err != nil {
			_ = c.Error(apperrors.BadRequest("Unsupported file format, expected csv or json", err))
			return
		}
		file, err := h.validator.UploadFile(c, "file", format)
		if err != nil {
			_ = c.Error(err)
			return
		}
		up, err := h.stage(c, file.Filename, file.Open)
		if err != nil {
			_ = c.Error(err)
			return
		}
		h.run(c, entity, format, up, true)
	}
}

// GetJob returns the status of an async import.
func (h *ImportHandler) GetJob(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if h.queue == nil || id == "" {
		_ = c.Error(apperrors.NotFound("Job not found"))
		return
	}

	job, err := h.queue.Get(c.Request.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		_ = c.Error(apperrors.NotFound("Job not found"))
		return
	}
	if err != nil {
		_ = c.Error(apperrors.Internal("Failed to retrieve job status", err))
		return
	}
	job.FilePath = ""
	c.JSON(http.StatusOK, job)
}

func (h *ImportHandler) stage(c *gin.Context, name string, open func() (multipart.File, error)) (*importer.Upload, error) {
	src, err := open()
	if err != nil {
		return nil, apperrors.Internal("Failed to open file", err)
	}
	defer src.Close()

	up, err := h.service.Stage(src, name)
	if err != nil {
		return nil, apperrors.Internal("Failed to store upload", err)
	}
	zap.L().Debug("Staged upload", zap.String("name", name), zap.String("path", up.Path), zap.String("request_id", c.GetString("request_id")))
	return up, nil
}

func (h *ImportHandler) run(c *gin.Context, entity string, format importer.Format, up *importer.Upload, dryRun bool) {
	sum, err := h.service.Import(c.Request.Context(), entity, format, up, importer.Options{DryRun: dryRun})
	if err != nil {
		_ = c.Error(apperrors.Internal("Error processing the "+format.Label()+" file", err))
		return
	}

	result := h.service.Result(entity, format, sum, dryRun)
	status := http.StatusCreated
	if dryRun {
		status = http.StatusOK
	}
	if !sum.OK() {
		status = http.StatusInternalServerError
		if services.IsClientError(sum.Err) {
			status = http.StatusBadRequest
		}
	}
	c.JSON(status, result)
}
