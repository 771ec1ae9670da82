package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront-service/models"
	"storefront-service/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserService struct {
	users repository.UserRepo
}

func NewUserService(users repository.UserRepo) *UserService {
	return &UserService{users: users}
}

// ListUsers returns every user without credentials.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.FindAll(ctx)
}

func (s *UserService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	taken, err := s.users.ExistsByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return !taken, nil
}

type SubscriberService struct {
	repo repository.SubscriberRepo
	now  func() time.Time
}

func NewSubscriberService(repo repository.SubscriberRepo) *SubscriberService {
	return &SubscriberService{repo: repo, now: time.Now}
}

func (s *SubscriberService) ListSubscribers(ctx context.Context) ([]models.Subscriber, error) {
	return s.repo.FindAll(ctx)
}

func (s *SubscriberService) GetSubscriber(ctx context.Context, id primitive.ObjectID) (*models.Subscriber, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *SubscriberService) CreateSubscriber(ctx context.Context, req SubscriberRequest) (*models.Subscriber, error) {
	sub := &models.Subscriber{
		Name:                strings.TrimSpace(req.Name),
		SubscribedToChannel: strings.TrimSpace(req.SubscribedToChannel),
		SubscribeDate:       s.now().UTC(),
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to create subscriber: %w", err)
	}
	return sub, nil
}

// UpdateSubscriber applies the non-nil fields of patch.
func (s *SubscriberService) UpdateSubscriber(ctx context.Context, id primitive.ObjectID, patch SubscriberPatch) (*models.Subscriber, error) {
	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.SubscribedToChannel != nil {
		updates["subscribedToChannel"] = *patch.SubscribedToChannel
	}
	return s.repo.Update(ctx, id, updates)
}

func (s *SubscriberService) DeleteSubscriber(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.Delete(ctx, id)
}
