package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shareit/pkg/apperrors"
	"shareit/pkg/cache"
	"shareit/pkg/dto"
	"shareit/pkg/models"
	"shareit/pkg/storage"

	"github.com/rs/zerolog"
)

type UserService struct {
	users  storage.UserRepository
	cache  cache.UserCache
	logger *zerolog.Logger
}

func NewUserService(users storage.UserRepository, userCache cache.UserCache, logger *zerolog.Logger) *UserService {
	if userCache == nil {
		userCache = cache.Noop{}
	}
	return &UserService{users: users, cache: userCache, logger: logger}
}

func (s *UserService) Create(ctx context.Context, req dto.UserCreate) (dto.User, error) {
	s.logger.Info().Str("email", req.Email).Msg("creating user")

	email := strings.TrimSpace(req.Email)
	if err := s.ensureEmailFree(ctx, email, 0); err != nil {
		return dto.User{}, err
	}

	user := models.User{Name: strings.TrimSpace(req.Name), Email: email}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return dto.User{}, apperrors.Validationf("email %s is already in use", email)
		}
		return dto.User{}, err
	}
	return dto.FromUser(user), nil
}

func (s *UserService) Update(ctx context.Context, id int64, req dto.UserUpdate) (dto.User, error) {
	s.logger.Info().Int64("user_id", id).Msg("updating user")

	user, err := s.get(ctx, id)
	if err != nil {
		return dto.User{}, err
	}

	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if !strings.EqualFold(email, user.Email) {
			if err := s.ensureEmailFree(ctx, email, id); err != nil {
				return dto.User{}, err
			}
		}
		user.Email = email
	}
	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return dto.User{}, apperrors.Validationf("email %s is already in use", user.Email)
		}
		return dto.User{}, err
	}
	s.evict(ctx, id)
	return dto.FromUser(*user), nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	s.logger.Info().Int64("user_id", id).Msg("deleting user")

	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return userNotFound(id)
		}
		return err
	}
	s.evict(ctx, id)
	return nil
}

func (s *UserService) FindByID(ctx context.Context, id int64) (dto.User, error) {
	user, err := s.get(ctx, id)
	if err != nil {
		return dto.User{}, err
	}
	return dto.FromUser(*user), nil
}

func (s *UserService) FindAll(ctx context.Context) ([]dto.User, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return dto.FromUsers(users), nil
}

// get loads a user through the cache. Cache failures are logged and the
// database answers instead.
func (s *UserService) get(ctx context.Context, id int64) (*models.User, error) {
	cached, err := s.cache.Get(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", id).Msg("user cache lookup failed")
	}
	if cached != nil {
		return cached, nil
	}

	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, userNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}

	if err := s.cache.Set(ctx, user); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", id).Msg("user cache store failed")
	}
	return user, nil
}

func (s *UserService) evict(ctx context.Context, id int64) {
	if err := s.cache.Delete(ctx, id); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", id).Msg("user cache eviction failed")
	}
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string, excludeID int64) error {
	taken, err := s.users.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return apperrors.Validationf("email %s is already in use", email)
	}
	return nil
}

func userNotFound(id int64) error {
	return apperrors.NotFoundf("user with id %d not found", id)
}
