package repository

import (
	"context"
	"errors"

	"storefront-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateKey is returned when a write violates a unique index.
	ErrDuplicateKey = errors.New("duplicate key")
)

// CategoryRepo defines the operations used for category management.
type CategoryRepo interface {
	FindAll(ctx context.Context) ([]models.Category, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, id primitive.ObjectID, category *models.Category) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ProductRepo defines the operations used by the product listing.
type ProductRepo interface {
	FindAll(ctx context.Context) ([]models.Product, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, id primitive.ObjectID, product *models.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type UserRepo interface {
	FindAll(ctx context.Context) ([]models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByVerificationToken(ctx context.Context, tokenHash string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	MarkVerified(ctx context.Context, id primitive.ObjectID) error
}

// SubscriberRepo updates take plain field maps keyed by the stored field
// names ("name", "subscribedToChannel").
type SubscriberRepo interface {
	FindAll(ctx context.Context) ([]models.Subscriber, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Subscriber, error)
	Create(ctx context.Context, subscriber *models.Subscriber) error
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Subscriber, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}
