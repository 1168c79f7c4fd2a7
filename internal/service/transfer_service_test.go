package service

import (
	"context"
	"testing"
	"time"

	"bank-card-service/internal/core/domain"
	"bank-card-service/internal/core/ports"
	"bank-card-service/internal/core/ports/mocks"
	"bank-card-service/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	numberA = "1111 1111 1111 1111"
	numberB = "2222 2222 2222 2222"
)

type transferTestDeps struct {
	svc        *TransferServiceImpl
	cardRepo   *mocks.MockCardRepository
	userRepo   *mocks.MockUserRepository
	transactor *mocks.MockDBTransactor
	ctrl       *gomock.Controller
}

func setupTransferService(t *testing.T) *transferTestDeps {
	ctrl := gomock.NewController(t)
	d := &transferTestDeps{
		cardRepo:   mocks.NewMockCardRepository(ctrl),
		userRepo:   mocks.NewMockUserRepository(ctrl),
		transactor: mocks.NewMockDBTransactor(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewTransferService(d.cardRepo, d.userRepo, d.transactor, zerolog.Nop())
	return d
}

// mockTx implements pgx.Tx for testing
type mockTx struct{ pgx.Tx }

func (m *mockTx) Rollback(_ context.Context) error { return nil }
func (m *mockTx) Commit(_ context.Context) error   { return nil }

func activeCard(id int64, number string, userID int64, balance string) *domain.Card {
	return &domain.Card{
		ID:             id,
		Number:         number,
		UserID:         userID,
		ExpirationDate: time.Date(2029, 12, 31, 0, 0, 0, 0, time.UTC),
		Status:         domain.CardStatusActive,
		Balance:        decimal.RequireFromString(balance),
	}
}

func transferReq(amount string) ports.TransferRequest {
	return ports.TransferRequest{
		FromNumber:  numberA,
		ToNumber:    numberB,
		Amount:      decimal.RequireFromString(amount),
		CallerEmail: "alice@example.com",
	}
}

func TestTransferService_Transfer_Success(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	tx := &mockTx{}
	from := activeCard(1, numberA, 7, "100.00")
	to := activeCard(2, numberB, 7, "50.00")

	d.userRepo.EXPECT().GetByEmail(gomock.Any(), "alice@example.com").
		Return(&domain.User{ID: 7, Email: "alice@example.com"}, nil)
	d.transactor.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	d.cardRepo.EXPECT().GetByNumberForUpdate(gomock.Any(), tx, numberA).Return(from, nil)
	d.cardRepo.EXPECT().GetByNumberForUpdate(gomock.Any(), tx, numberB).Return(to, nil)
	d.cardRepo.EXPECT().UpdateBalance(gomock.Any(), tx, int64(1), decimal.RequireFromString("70.00")).Return(nil)
	d.cardRepo.EXPECT().UpdateBalance(gomock.Any(), tx, int64(2), decimal.RequireFromString("80.00")).Return(nil)

	err := d.svc.Transfer(context.Background(), transferReq("30.00"))
	assert.NoError(t, err)
}

func TestTransferService_Transfer_LocksInCanonicalOrder(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	tx := &mockTx{}
	from := activeCard(1, numberA, 7, "100.00")
	to := activeCard(2, numberB, 7, "50.00")

	// Transfer in the reverse direction: the source card sorts second.
	req := ports.TransferRequest{
		FromNumber:  numberB,
		ToNumber:    numberA,
		Amount:      decimal.NewFromInt(10),
		CallerEmail: "alice@example.com",
	}

	d.userRepo.EXPECT().GetByEmail(gomock.Any(), "alice@example.com").
		Return(&domain.User{ID: 7}, nil)
	d.transactor.EXPECT().Begin(gomock.Any()).Return(tx, nil)

	// Lock order must be numberA before numberB regardless of direction.
	gomock.InOrder(
		d.cardRepo.EXPECT().GetByNumberForUpdate(gomock.Any(), tx, numberA).Return(from, nil),
		d.cardRepo.EXPECT().GetByNumberForUpdate(gomock.Any(), tx, numberB).Return(to, nil),
	)

	d.cardRepo.EXPECT().UpdateBalance(gomock.Any(), tx, int64(2), gomock.Any()).Return(nil)
	d.cardRepo.EXPECT().UpdateBalance(gomock.Any(), tx, int64(1), gomock.Any()).Return(nil)

	err := d.svc.Transfer(context.Background(), req)
	assert.NoError(t, err)
}

func TestTransferService_Transfer_SameCard(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	req := ports.TransferRequest{
		FromNumber:  numberA,
		ToNumber:    numberA,
		Amount:      decimal.NewFromInt(10),
		CallerEmail: "alice@example.com",
	}

	err := d.svc.Transfer(context.Background(), req)
	require.Error(t, err)

	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "CARD_002", appErr.Code)
	assert.Equal(t, "Card number must be different", appErr.Message)
}

func TestTransferService_Transfer_NonPositiveAmount(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	for _, amount := range []string{"0", "-5"} {
		err := d.svc.Transfer(context.Background(), transferReq(amount))
		require.Error(t, err, "amount %s", amount)

		appErr, ok := err.(*apperror.AppError)
		require.True(t, ok)
		assert.Equal(t, "CARD_002", appErr.Code)
	}
}

func TestTransferService_Transfer_InsufficientBalance(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	tx := &mockTx{}
	from := activeCard(1, numberA, 7, "10.00")
	to := activeCard(2, numberB, 7, "0")

	d.userRepo.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(&domain.User{ID: 7}, nil)
	d.transactor.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	d.cardRepo.EXPECT().GetByNumberForUpdate(gomock.Any(), tx, numberA).Return(from, nil)
	d.cardRepo.EXPECT().GetByNumberForUpdate(gomock.Any(), tx, numberB).Return(to, nil)

	err := d.svc.Transfer(context.Background(), transferReq("10.01"))
	require.Error(t, err)

	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "CARD_003", appErr.Code)
	assert.Equal(t, "On balance not enough money for transfer", appErr.Message)
}

func TestTransferService_Transfer_ExactBalanceAllowed(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	tx := &mockTx{}
	from := activeCard(1, numberA, 7, "10.00")
	to := activeCard(2, numberB, 7, "0")

	d.userRepo.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(&domain.User{ID: 7}, nil)
	d.transactor.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	d.cardRepo.EXPECT().GetByNumberForUpdate(gomock.Any(), tx, numberA).Return(from, nil)
	d.cardRepo.EXPECT().GetByNumberForUpdate(gomock.Any(), tx, numberB).Return(to, nil)
	d.cardRepo.EXPECT().UpdateBalance(gomock.Any(), tx, int64(1), decimal.RequireFromString("0.00")).Return(nil)
	d.cardRepo.EXPECT().UpdateBalance(gomock.Any(), tx, int64(2), decimal.RequireFromString("10.00")).Return(nil)

	err := d.svc.Transfer(context.Background(), transferReq("10.00"))
	assert.NoError(t, err)
}

func TestTransferService_Transfer_SourceNotActive(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	tx := &mockTx{}
	from := activeCard(1, numberA, 7, "100.00")
	from.Status = domain.CardStatusBlocked
	to := activeCard(2, numberB, 7, "0")

	d.userRepo.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(&domain.User{ID: 7}, nil)
	d.transactor.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	d.cardRepo.EXPECT().GetByNumberForUpdate(gomock.Any(), tx, numberA).Return(from, nil)
	d.cardRepo.EXPECT().GetByNumberForUpdate(gomock.Any(), tx, numberB).Return(to, nil)

	err := d.svc.Transfer(context.Background(), transferReq("1"))
	require.Error(t, err)

	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "CARD_004", appErr.Code)
	assert.Equal(t, "Card status must be ACTIVE", appErr.Message)
}

func TestTransferService_Transfer_DestinationExpired(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	tx := &mockTx{}
	from := activeCard(1, numberA, 7, "100.00")
	to := activeCard(2, numberB, 7, "0")
	to.Status = domain.CardStatusExpired

	d.userRepo.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(&domain.User{ID: 7}, nil)
	d.transactor.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	d.cardRepo.EXPECT().GetByNumberForUpdate(gomock.Any(), tx, numberA).Return(from, nil)
	d.cardRepo.EXPECT().GetByNumberForUpdate(gomock.Any(), tx, numberB).Return(to, nil)

	err := d.svc.Transfer(context.Background(), transferReq("1"))
	require.Error(t, err)

	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "CARD_004", appErr.Code)
}

func TestTransferService_Transfer_NotOwner(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	tx := &mockTx{}
	from := activeCard(1, numberA, 7, "100.00")
	to := activeCard(2, numberB, 8, "0") // belongs to someone else

	d.userRepo.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(&domain.User{ID: 7}, nil)
	d.transactor.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	d.cardRepo.EXPECT().GetByNumberForUpdate(gomock.Any(), tx, numberA).Return(from, nil)
	d.cardRepo.EXPECT().GetByNumberForUpdate(gomock.Any(), tx, numberB).Return(to, nil)

	err := d.svc.Transfer(context.Background(), transferReq("1"))
	require.Error(t, err)

	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "AUTH_003", appErr.Code)
}

func TestTransferService_Transfer_CardNotFound(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	tx := &mockTx{}

	d.userRepo.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(&domain.User{ID: 7}, nil)
	d.transactor.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	d.cardRepo.EXPECT().GetByNumberForUpdate(gomock.Any(), tx, numberA).Return(nil, nil)

	err := d.svc.Transfer(context.Background(), transferReq("1"))
	require.Error(t, err)

	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "CARD_001", appErr.Code)
	assert.Contains(t, appErr.Message, "Card not found by Card Number")
}
