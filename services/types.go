package services

import (
	"errors"

	"storefront-service/repository"
)

var (
	ErrAlreadyExists = errors.New("already exists")
	ErrNotFound      = repository.ErrNotFound
)

// CategoryRequest is the body of category create and update calls.
type CategoryRequest struct {
	Name        string `json:"category_name" validate:"required,notblank"`
	Description string `json:"category_description" validate:"required,notblank"`
}

// ProductRequest is the body of product create and update calls.
type ProductRequest struct {
	Name        string   `json:"product_name" validate:"required,notblank"`
	Description string   `json:"product_description" validate:"required,notblank"`
	Price       *float64 `json:"product_price" validate:"required,gte=0"`
	Category    string   `json:"product_category" validate:"required,notblank"`
	Stock       *float64 `json:"product_stock" validate:"required,gte=0"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,notblank"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" validate:"required"`
	Username string `json:"username" validate:"required,notblank"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

type SubscriberRequest struct {
	Name                string `json:"name" validate:"required,notblank"`
	SubscribedToChannel string `json:"subscribedToChannel" validate:"required,notblank"`
}

// SubscriberPatch carries the fields of a partial update; nil fields are
// left unchanged.
type SubscriberPatch struct {
	Name                *string `json:"name"`
	SubscribedToChannel *string `json:"subscribedToChannel"`
}
