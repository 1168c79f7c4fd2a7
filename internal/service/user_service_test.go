package service

import (
	"context"
	"testing"

	"bank-card-service/internal/core/domain"
	"bank-card-service/internal/core/ports"
	"bank-card-service/internal/core/ports/mocks"
	"bank-card-service/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type userTestDeps struct {
	svc      *UserServiceImpl
	userRepo *mocks.MockUserRepository
	cardRepo *mocks.MockCardRepository
	hashSvc  *mocks.MockHashService
	ctrl     *gomock.Controller
}

func setupUserService(t *testing.T) *userTestDeps {
	ctrl := gomock.NewController(t)
	d := &userTestDeps{
		userRepo: mocks.NewMockUserRepository(ctrl),
		cardRepo: mocks.NewMockCardRepository(ctrl),
		hashSvc:  mocks.NewMockHashService(ctrl),
		ctrl:     ctrl,
	}
	d.svc = NewUserService(d.userRepo, d.cardRepo, d.hashSvc, zerolog.Nop())
	return d
}

func TestUserService_Create_Success(t *testing.T) {
	d := setupUserService(t)
	defer d.ctrl.Finish()

	d.userRepo.EXPECT().GetByEmail(gomock.Any(), "alice@example.com").Return(nil, nil)
	d.hashSvc.EXPECT().Hash("secret").Return("hashed", nil)
	d.userRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *domain.User) error {
			assert.Equal(t, "hashed", u.PasswordHash)
			assert.Equal(t, domain.RoleUser, u.Roles) // default role
			u.ID = 7
			return nil
		})

	user, err := d.svc.Create(context.Background(), ports.CreateUserRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
}

func TestUserService_Create_EmailTaken(t *testing.T) {
	d := setupUserService(t)
	defer d.ctrl.Finish()

	d.userRepo.EXPECT().GetByEmail(gomock.Any(), "alice@example.com").
		Return(&domain.User{ID: 1, Email: "alice@example.com"}, nil)

	_, err := d.svc.Create(context.Background(), ports.CreateUserRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret",
	})
	require.Error(t, err)

	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "CARD_005", appErr.Code)
	assert.Equal(t, "Email already taken", appErr.Message)
}

func TestUserService_Update_Password(t *testing.T) {
	d := setupUserService(t)
	defer d.ctrl.Finish()

	user := &domain.User{ID: 7, Username: "alice", Email: "alice@example.com", PasswordHash: "old"}
	newPassword := "new-secret"

	d.userRepo.EXPECT().GetByID(gomock.Any(), int64(7)).Return(user, nil)
	d.hashSvc.EXPECT().Hash("new-secret").Return("new-hash", nil)
	d.userRepo.EXPECT().Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *domain.User) error {
			assert.Equal(t, "new-hash", u.PasswordHash)
			return nil
		})

	err := d.svc.Update(context.Background(), ports.UpdateUserRequest{ID: 7, Password: &newPassword})
	assert.NoError(t, err)
}

func TestUserService_Delete_NotFound(t *testing.T) {
	d := setupUserService(t)
	defer d.ctrl.Finish()

	d.userRepo.EXPECT().GetByID(gomock.Any(), int64(404)).Return(nil, nil)

	err := d.svc.Delete(context.Background(), 404)
	require.Error(t, err)

	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "CARD_001", appErr.Code)
}

func TestUserService_ReadOwnCards(t *testing.T) {
	d := setupUserService(t)
	defer d.ctrl.Finish()

	cards := []domain.Card{*activeCard(1, numberA, 7, "10"), *activeCard(2, numberB, 7, "20")}

	d.cardRepo.EXPECT().ListByOwner(gomock.Any(), "alice@example.com", 0, 20).Return(cards, nil)

	result, err := d.svc.ReadOwnCards(context.Background(), "alice@example.com", 0, 20)
	require.NoError(t, err)
	assert.Len(t, result, 2)
}

func TestUserService_ReadOwnCard_NotOwned(t *testing.T) {
	d := setupUserService(t)
	defer d.ctrl.Finish()

	// A card owned by someone else looks exactly like a missing card.
	d.cardRepo.EXPECT().GetByOwnerAndID(gomock.Any(), "alice@example.com", int64(9)).Return(nil, nil)

	_, err := d.svc.ReadOwnCard(context.Background(), "alice@example.com", 9)
	require.Error(t, err)

	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "CARD_001", appErr.Code)
}
