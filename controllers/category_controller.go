package controllers

import (
	"context"
	"errors"
	"net/http"

	apperrors "storefront-service/common/errors"
	"storefront-service/models"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CategoryServiceAPI defines the interface for category service operations
type CategoryServiceAPI interface {
	CreateCategory(ctx context.Context, req services.CategoryRequest) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	UpdateCategory(ctx context.Context, id primitive.ObjectID, req services.CategoryRequest) (*models.Category, error)
	DeleteCategory(ctx context.Context, id primitive.ObjectID) error
}

type CategoryController struct {
	service   CategoryServiceAPI
	cache     *CacheManager
	validator *RequestValidator
}

func NewCategoryController(s CategoryServiceAPI, cache *CacheManager, validator *RequestValidator) *CategoryController {
	return &CategoryController{service: s, cache: cache, validator: validator}
}

func (ctrl *CategoryController) CreateCategory(c *gin.Context) {
	var req services.CategoryRequest
	if err := ctrl.validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	category, err := ctrl.service.CreateCategory(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyExists) {
			_ = c.Error(apperrors.Conflict("Category already exists"))
			return
		}
		_ = c.Error(apperrors.Internal("Failed to create category", err))
		return
	}
	ctrl.cache.invalidate(c.Request.Context(), services.EntityCategory)

	c.JSON(http.StatusCreated, gin.H{"message": "Category created successfully", "data": category})
}

func (ctrl *CategoryController) GetCategories(c *gin.Context) {
	var categories []models.Category
	version, hit := ctrl.cache.GetList(c.Request.Context(), services.EntityCategory, &categories)
	if hit {
		c.JSON(http.StatusCreated, gin.H{"data": categories, "message": "Category Listing"})
		return
	}

	categories, err := ctrl.service.ListCategories(c.Request.Context())
	if err != nil {
		_ = c.Error(apperrors.Internal("Failed to fetch categories", err))
		return
	}
	ctrl.cache.SetListAsync(services.EntityCategory, version, categories)

	c.JSON(http.StatusCreated, gin.H{"data": categories, "message": "Category Listing"})
}

func (ctrl *CategoryController) UpdateCategory(c *gin.Context) {
	id, err := ParseObjectID(c, "category")
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req services.CategoryRequest
	if err := ctrl.validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	category, err := ctrl.service.UpdateCategory(c.Request.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			_ = c.Error(apperrors.NotFound("Category not found"))
		case errors.Is(err, services.ErrAlreadyExists):
			_ = c.Error(apperrors.Conflict("Category already exists"))
		default:
			zap.L().Error("Service failed to update category", zap.Error(err), zap.String("id", id.Hex()))
			_ = c.Error(apperrors.Internal("Failed to update category", err))
		}
		return
	}
	ctrl.cache.invalidate(c.Request.Context(), services.EntityCategory)

	c.JSON(http.StatusOK, gin.H{"message": "Category updated successfully", "data": category})
}

func (ctrl *CategoryController) DeleteCategory(c *gin.Context) {
	id, err := ParseObjectID(c, "category")
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := ctrl.service.DeleteCategory(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			_ = c.Error(apperrors.NotFound("Category not found"))
			return
		}
		_ = c.Error(apperrors.Internal("Failed to delete category", err))
		return
	}
	ctrl.cache.invalidate(c.Request.Context(), services.EntityCategory)

	c.JSON(http.StatusCreated, gin.H{"message": "Category deleted successfully"})
}
