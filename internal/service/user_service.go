package service

import (
	"context"
	"fmt"
	"time"

	"bank-card-service/internal/core/domain"
	"bank-card-service/internal/core/ports"
	"bank-card-service/pkg/apperror"

	"github.com/rs/zerolog"
)

// UserServiceImpl implements ports.UserService.
type UserServiceImpl struct {
	userRepo ports.UserRepository
	cardRepo ports.CardRepository
	hashSvc  ports.HashService
	log      zerolog.Logger
}

// NewUserService creates a new UserServiceImpl.
func NewUserService(
	userRepo ports.UserRepository,
	cardRepo ports.CardRepository,
	hashSvc ports.HashService,
	log zerolog.Logger,
) *UserServiceImpl {
	return &UserServiceImpl{
		userRepo: userRepo,
		cardRepo: cardRepo,
		hashSvc:  hashSvc,
		log:      log,
	}
}

// List returns a page of users.
func (s *UserServiceImpl) List(ctx context.Context, page, size int) ([]domain.User, error) {
	users, err := s.userRepo.List(ctx, page, size)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list users: %w", err))
	}
	return users, nil
}

// Create registers a new user with a hashed password.
func (s *UserServiceImpl) Create(ctx context.Context, req ports.CreateUserRequest) (*domain.User, error) {
	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check email: %w", err))
	}
	if existing != nil {
		return nil, apperror.Conflict("Email already taken")
	}

	hash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	roles := req.Roles
	if roles == "" {
		roles = domain.RoleUser
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create user: %w", err))
	}

	s.log.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("User created")
	return user, nil
}

// Update applies a partial update to a user. Nil fields are left unchanged.
func (s *UserServiceImpl) Update(ctx context.Context, req ports.UpdateUserRequest) error {
	user, err := s.userRepo.GetByID(ctx, req.ID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		return apperror.NotFound("User", fmt.Sprintf("id: %d", req.ID))
	}

	if req.Email != nil && *req.Email != user.Email {
		existing, err := s.userRepo.GetByEmail(ctx, *req.Email)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("check email: %w", err))
		}
		if existing != nil {
			return apperror.Conflict("Email already taken")
		}
		user.Email = *req.Email
	}
	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Password != nil {
		hash, err := s.hashSvc.Hash(*req.Password)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("hash password: %w", err))
		}
		user.PasswordHash = hash
	}
	if req.Roles != nil {
		user.Roles = *req.Roles
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return apperror.InternalError(fmt.Errorf("update user: %w", err))
	}
	return nil
}

// Delete removes a user.
func (s *UserServiceImpl) Delete(ctx context.Context, id int64) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		return apperror.NotFound("User", fmt.Sprintf("id: %d", id))
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return apperror.InternalError(fmt.Errorf("delete user: %w", err))
	}

	s.log.Info().Int64("user_id", id).Msg("User deleted")
	return nil
}

// ReadOwnCards returns a page of the caller's own cards.
func (s *UserServiceImpl) ReadOwnCards(ctx context.Context, email string, page, size int) ([]domain.Card, error) {
	cards, err := s.cardRepo.ListByOwner(ctx, email, page, size)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list own cards: %w", err))
	}
	return cards, nil
}

// ReadOwnCard returns one of the caller's own cards. A card belonging to a
// different user is reported as not found, not as forbidden.
func (s *UserServiceImpl) ReadOwnCard(ctx context.Context, email string, cardID int64) (*domain.Card, error) {
	card, err := s.cardRepo.GetByOwnerAndID(ctx, email, cardID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get own card: %w", err))
	}
	if card == nil {
		return nil, apperror.NotFound("Card", fmt.Sprintf("id: %d", cardID))
	}
	return card, nil
}
