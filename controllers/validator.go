package controllers

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	apperrors "storefront-service/common/errors"
	"storefront-service/importer"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MaxUploadSize = 50 * 1024 * 1024 // 50MB

// Allowed upload types per import format
var (
	allowedExtensions = map[importer.Format]map[string]bool{
		importer.FormatCSV:  {".csv": true, ".txt": true},
		importer.FormatJSON: {".json": true, ".txt": true},
	}
	allowedContentTypes = map[importer.Format]map[string]bool{
		importer.FormatCSV:  {"text/csv": true, "application/csv": true, "text/plain": true, "application/vnd.ms-excel": true},
		importer.FormatJSON: {"application/json": true, "text/json": true, "text/plain": true},
	}
)

// RequestValidator handles all input validation
type RequestValidator struct {
	validate      *validator.Validate
	maxUploadSize int64
}

func NewRequestValidator(maxUploadSize int64) *RequestValidator {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	if maxUploadSize <= 0 {
		maxUploadSize = MaxUploadSize
	}
	return &RequestValidator{validate: v, maxUploadSize: maxUploadSize}
}

// BindJSON decodes the request body into dst and validates it.
func (rv *RequestValidator) BindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperrors.BadRequest("Invalid request body", err).With("details", err.Error())
	}
	if err := rv.validate.Struct(dst); err != nil {
		return apperrors.BadRequest("Validation failed", err).With("details", err.Error())
	}
	return nil
}

// UploadFile returns the multipart file under field after checking its type
// and size.
func (rv *RequestValidator) UploadFile(c *gin.Context, field string, format importer.Format) (*multipart.FileHeader, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return nil, apperrors.BadRequest("No file uploaded", err)
	}
	if !rv.IsValidImportFile(file, format) {
		return nil, apperrors.BadRequest(fmt.Sprintf("Invalid file type. Only %s files are allowed", format.Label()), nil)
	}
	if err := rv.ValidateFileSize(file); err != nil {
		return nil, apperrors.BadRequest(err.Error(), nil)
	}
	return file, nil
}

// IsValidImportFile accepts a file by extension or content type.
func (rv *RequestValidator) IsValidImportFile(file *multipart.FileHeader, format importer.Format) bool {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if allowedExtensions[format][ext] {
		return true
	}
	contentType := strings.TrimSpace(strings.Split(file.Header.Get("Content-Type"), ";")[0])
	return allowedContentTypes[format][contentType]
}

// ValidateFileSize checks if file size is within limits
func (rv *RequestValidator) ValidateFileSize(file *multipart.FileHeader) error {
	if file.Size > rv.maxUploadSize {
		return fmt.Errorf("file too large (max %dMB)", rv.maxUploadSize/(1024*1024))
	}
	return nil
}

// ParseObjectID reads the :id path parameter.
func ParseObjectID(c *gin.Context, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param("id")))
	if err != nil {
		return primitive.NilObjectID, apperrors.BadRequest(fmt.Sprintf("Invalid %s ID format", what), err)
	}
	return id, nil
}

// formatFromUpload picks the import format from ?format= or, failing that,
// the file extension.
func formatFromUpload(c *gin.Context, file *multipart.FileHeader) (importer.Format, error) {
	if q := c.Query("format"); q != "" {
		return importer.ParseFormat(q)
	}
	return importer.ParseFormat(strings.TrimPrefix(filepath.Ext(file.Filename), "."))
}
