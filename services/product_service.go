package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"storefront-service/importer"
	"storefront-service/models"
	"storefront-service/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ProductSchema = importer.Schema{
	Entity:   EntityProduct,
	Key:      "product_name",
	Required: []string{"product_name", "product_description", "product_category", "product_price", "product_stock"},
}

type ProductService struct {
	repo repository.ProductRepo
}

func NewProductService(repo repository.ProductRepo) *ProductService {
	return &ProductService{repo: repo}
}

func productFromRequest(req ProductRequest) *models.Product {
	p := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	return p
}

func (s *ProductService) CreateProduct(ctx context.Context, req ProductRequest) (*models.Product, error) {
	product := productFromRequest(req)

	exists, err := s.repo.ExistsByName(ctx, product.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check product: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("product %q %w", product.Name, ErrAlreadyExists)
	}

	if err := s.repo.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, fmt.Errorf("product %q %w", product.Name, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.FindAll(ctx)
}

func (s *ProductService) UpdateProduct(ctx context.Context, id primitive.ObjectID, req ProductRequest) (*models.Product, error) {
	product := productFromRequest(req)
	if err := s.repo.Update(ctx, id, product); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, err
		case errors.Is(err, repository.ErrDuplicateKey):
			return nil, fmt.Errorf("product %q %w", product.Name, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.Delete(ctx, id)
}

// ImportTarget adapts the product store to the import pipeline.
func (s *ProductService) ImportTarget() importer.Target {
	return productTarget{repo: s.repo}
}

type productTarget struct {
	repo repository.ProductRepo
}

func (t productTarget) Exists(ctx context.Context, name string) (bool, error) {
	return t.repo.ExistsByName(ctx, name)
}

// Commit fails when price or stock is not a number, the same way a schema
// cast error would.
func (t productTarget) Commit(ctx context.Context, rec importer.Record) error {
	price, err := parseNumber(rec, "product_price")
	if err != nil {
		return err
	}
	stock, err := parseNumber(rec, "product_stock")
	if err != nil {
		return err
	}

	err = t.repo.Create(ctx, &models.Product{
		Name:        rec.Get("product_name"),
		Description: rec.Get("product_description"),
		Price:       price,
		Category:    rec.Get("product_category"),
		Stock:       stock,
	})
	if errors.Is(err, repository.ErrDuplicateKey) {
		return importer.ErrDuplicate
	}
	return err
}

// parseNumber reads field as a finite number. NaN and Inf parse but cannot
// be rendered back as JSON.
func parseNumber(rec importer.Record, field string) (float64, error) {
	v, err := strconv.ParseFloat(rec.Get(field), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s %q is not a number", field, rec.Get(field))
	}
	return v, nil
}
