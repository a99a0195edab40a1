package service

import (
	"context"
	"log/slog"
	"strconv"

	"account-ledger/internal/cache"
	"account-ledger/internal/domain"
	"account-ledger/internal/events"
)

const userViewKeyPrefix = "user:view:"

// UserService keeps users in the store and mirrors single-user reads into
// the view cache.
type UserService struct {
	store     domain.UnitOfWork
	cache     cache.Cache[domain.User]
	publisher events.Publisher
	logger    *slog.Logger
}

func NewUserService(store domain.UnitOfWork, views cache.Cache[domain.User], publisher events.Publisher, logger *slog.Logger) *UserService {
	return &UserService{
		store:     store,
		cache:     views,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.store.User().ListUsers(ctx)
}

// GetUser reads the cache first and warms it on a miss.
func (s *UserService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	key := userKey(id)
	if user, ok := s.cache.Get(ctx, key); ok {
		return user, nil
	}

	user, err := s.store.User().GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, key, user)
	return user, nil
}

// SaveUser creates the user when it has no ID and updates it otherwise.
func (s *UserService) SaveUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.logger.Info("Saving user", "user_id", user.ID, "email", user.Email)

	if err := s.store.User().SaveUser(ctx, user); err != nil {
		return nil, err
	}

	s.cache.Set(ctx, userKey(user.ID), user)
	if err := s.publisher.Publish(ctx, events.UserEventsStream, events.UserSaved, events.UserSavedEvent{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	}); err != nil {
		s.logger.Warn("Failed to publish user event", "user_id", user.ID, "error", err)
	}
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.store.User().DeleteUser(ctx, id); err != nil {
		return err
	}

	s.cache.Delete(ctx, userKey(id))
	if err := s.publisher.Publish(ctx, events.UserEventsStream, events.UserDeleted, events.UserDeletedEvent{
		UserID: id,
	}); err != nil {
		s.logger.Warn("Failed to publish user event", "user_id", id, "error", err)
	}

	s.logger.Info("User deleted", "user_id", id)
	return nil
}

func userKey(id int64) string {
	return userViewKeyPrefix + strconv.FormatInt(id, 10)
}
