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

type SubscriberServiceAPI interface {
	ListSubscribers(ctx context.Context) ([]models.Subscriber, error)
	GetSubscriber(ctx context.Context, id primitive.ObjectID) (*models.Subscriber, error)
	CreateSubscriber(ctx context.Context, req services.SubscriberRequest) (*models.Subscriber, error)
	UpdateSubscriber(ctx context.Context, id primitive.ObjectID, patch services.SubscriberPatch) (*models.Subscriber, error)
	DeleteSubscriber(ctx context.Context, id primitive.ObjectID) error
}

type SubscriberController struct {
	service   SubscriberServiceAPI
	validator *RequestValidator
}

func NewSubscriberController(s SubscriberServiceAPI, validator *RequestValidator) *SubscriberController {
	return &SubscriberController{service: s, validator: validator}
}

func (ctrl *SubscriberController) List(c *gin.Context) {
	subs, err := ctrl.service.ListSubscribers(c.Request.Context())
	if err != nil {
		_ = c.Error(apperrors.Internal("Error fetching subscribers", err))
		return
	}
	c.JSON(http.StatusOK, subs)
}

func (ctrl *SubscriberController) Get(c *gin.Context) {
	id, err := ParseObjectID(c, "subscriber")
	if err != nil {
		_ = c.Error(err)
		return
	}
	sub, err := ctrl.service.GetSubscriber(c.Request.Context(), id)
	if err != nil {
		subscriberError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (ctrl *SubscriberController) Create(c *gin.Context) {
	var req services.SubscriberRequest
	if err := ctrl.validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	sub, err := ctrl.service.CreateSubscriber(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(apperrors.Internal("Error creating subscriber", err))
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (ctrl *SubscriberController) Update(c *gin.Context) {
	id, err := ParseObjectID(c, "subscriber")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var patch services.SubscriberPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		_ = c.Error(apperrors.BadRequest("Invalid request body", err).With("details", err.Error()))
		return
	}
	sub, err := ctrl.service.UpdateSubscriber(c.Request.Context(), id, patch)
	if err != nil {
		subscriberError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (ctrl *SubscriberController) Delete(c *gin.Context) {
	id, err := ParseObjectID(c, "subscriber")
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := ctrl.service.DeleteSubscriber(c.Request.Context(), id); err != nil {
		subscriberError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User Deleted"})
}

func subscriberError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrNotFound) {
		_ = c.Error(apperrors.NotFound("User Not Found."))
		return
	}
	_ = c.Error(apperrors.Internal("Subscriber request failed", err))
}
