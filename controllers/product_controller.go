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
)

// ProductServiceAPI defines the interface for product service operations
type ProductServiceAPI interface {
	CreateProduct(ctx context.Context, req services.ProductRequest) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id primitive.ObjectID, req services.ProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error
}

type ProductController struct {
	service   ProductServiceAPI
	cache     *CacheManager
	validator *RequestValidator
}

func NewProductController(s ProductServiceAPI, cache *CacheManager, validator *RequestValidator) *ProductController {
	return &ProductController{service: s, cache: cache, validator: validator}
}

func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	var req services.ProductRequest
	if err := ctrl.validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	product, err := ctrl.service.CreateProduct(c.Request.Context(), req)
	if err != nil {
		handleProductError(c, err, "Failed to create product")
		return
	}
	ctrl.cache.invalidate(c.Request.Context(), services.EntityProduct)

	c.JSON(http.StatusCreated, gin.H{"message": "Product created successfully", "data": product})
}

func (ctrl *ProductController) GetProducts(c *gin.Context) {
	var products []models.Product
	version, hit := ctrl.cache.GetList(c.Request.Context(), services.EntityProduct, &products)
	if hit {
		c.JSON(http.StatusCreated, gin.H{"data": products, "message": "Product Listing"})
		return
	}

	products, err := ctrl.service.ListProducts(c.Request.Context())
	if err != nil {
		_ = c.Error(apperrors.Internal("Failed to fetch products", err))
		return
	}
	ctrl.cache.SetListAsync(services.EntityProduct, version, products)

	c.JSON(http.StatusCreated, gin.H{"data": products, "message": "Product Listing"})
}

func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	id, err := ParseObjectID(c, "product")
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req services.ProductRequest
	if err := ctrl.validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	product, err := ctrl.service.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		handleProductError(c, err, "Failed to update product")
		return
	}
	ctrl.cache.invalidate(c.Request.Context(), services.EntityProduct)

	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "data": product})
}

func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	id, err := ParseObjectID(c, "product")
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := ctrl.service.DeleteProduct(c.Request.Context(), id); err != nil {
		handleProductError(c, err, "Failed to delete product")
		return
	}
	ctrl.cache.invalidate(c.Request.Context(), services.EntityProduct)

	c.JSON(http.StatusCreated, gin.H{"message": "Product deleted successfully"})
}

// handleProductError maps common service errors to HTTP responses.
func handleProductError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		_ = c.Error(apperrors.NotFound("Product not found"))
	case errors.Is(err, services.ErrAlreadyExists):
		_ = c.Error(apperrors.Conflict("Product already exists"))
	default:
		_ = c.Error(apperrors.Internal(fallback, err))
	}
}
