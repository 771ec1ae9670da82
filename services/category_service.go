package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront-service/importer"
	"storefront-service/models"
	"storefront-service/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	EntityCategory = "category"
	EntityProduct  = "product"
)

var CategorySchema = importer.Schema{
	Entity:   EntityCategory,
	Key:      "category_name",
	Required: []string{"category_name", "category_description"},
}

type CategoryService struct {
	repo repository.CategoryRepo
}

func NewCategoryService(repo repository.CategoryRepo) *CategoryService {
	return &CategoryService{repo: repo}
}

// CreateCategory inserts a category unless its name is taken. A lost race
// against a concurrent insert surfaces as ErrAlreadyExists too.
func (s *CategoryService) CreateCategory(ctx context.Context, req CategoryRequest) (*models.Category, error) {
	category := &models.Category{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
	}

	exists, err := s.repo.ExistsByName(ctx, category.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check category: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("category %q %w", category.Name, ErrAlreadyExists)
	}

	if err := s.repo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, fmt.Errorf("category %q %w", category.Name, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.repo.FindAll(ctx)
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id primitive.ObjectID, req CategoryRequest) (*models.Category, error) {
	category := &models.Category{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
	}
	if err := s.repo.Update(ctx, id, category); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, err
		case errors.Is(err, repository.ErrDuplicateKey):
			return nil, fmt.Errorf("category %q %w", category.Name, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return category, nil
}

func (s *CategoryService) DeleteCategory(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.Delete(ctx, id)
}

// ImportTarget adapts the category store to the import pipeline.
func (s *CategoryService) ImportTarget() importer.Target {
	return categoryTarget{repo: s.repo}
}

type categoryTarget struct {
	repo repository.CategoryRepo
}

func (t categoryTarget) Exists(ctx context.Context, name string) (bool, error) {
	return t.repo.ExistsByName(ctx, name)
}

func (t categoryTarget) Commit(ctx context.Context, rec importer.Record) error {
	err := t.repo.Create(ctx, &models.Category{
		Name:        rec.Get("category_name"),
		Description: rec.Get("category_description"),
	})
	if errors.Is(err, repository.ErrDuplicateKey) {
		return importer.ErrDuplicate
	}
	return err
}
