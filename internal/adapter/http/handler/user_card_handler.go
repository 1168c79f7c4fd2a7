package handler

import (
	"bank-card-service/internal/adapter/http/dto"
	"bank-card-service/internal/adapter/http/middleware"
	"bank-card-service/internal/core/ports"
	"bank-card-service/pkg/apperror"
	"bank-card-service/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserCardHandler handles the cardholder-facing endpoints: own-card views,
// transfers and the block-request workflow.
type UserCardHandler struct {
	userSvc     ports.UserService
	transferSvc ports.TransferService
	blockSvc    ports.BlockService
}

// NewUserCardHandler creates a new UserCardHandler.
func NewUserCardHandler(userSvc ports.UserService, transferSvc ports.TransferService, blockSvc ports.BlockService) *UserCardHandler {
	return &UserCardHandler{
		userSvc:     userSvc,
		transferSvc: transferSvc,
		blockSvc:    blockSvc,
	}
}

func callerEmail(c *gin.Context) (string, bool) {
	email := c.GetString(middleware.CtxEmail)
	if email == "" {
		response.Error(c, apperror.ErrInvalidToken())
		return "", false
	}
	return email, true
}

// List handles GET /api/v1/user_cards. Card numbers are always masked.
func (h *UserCardHandler) List(c *gin.Context) {
	email, ok := callerEmail(c)
	if !ok {
		return
	}
	page, size := parsePage(c)

	cards, err := h.userSvc.ReadOwnCards(c.Request.Context(), email, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.MaskedCardResponse, 0, len(cards))
	for i := range cards {
		out = append(out, dto.ToMaskedCardResponse(&cards[i]))
	}
	response.OK(c, out)
}

// Get handles GET /api/v1/user_cards/:id.
func (h *UserCardHandler) Get(c *gin.Context) {
	email, ok := callerEmail(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	card, err := h.userSvc.ReadOwnCard(c.Request.Context(), email, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToMaskedCardResponse(card))
}

// Transfer handles POST /api/v1/user_cards/transfer.
func (h *UserCardHandler) Transfer(c *gin.Context) {
	email, ok := callerEmail(c)
	if !ok {
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	err := h.transferSvc.Transfer(c.Request.Context(), ports.TransferRequest{
		FromNumber:  req.FromNumber,
		ToNumber:    req.ToNumber,
		Amount:      req.Amount,
		CallerEmail: email,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"status": "completed"})
}

// RequestBlock handles POST /api/v1/user_cards/block.
func (h *UserCardHandler) RequestBlock(c *gin.Context) {
	email, ok := callerEmail(c)
	if !ok {
		return
	}

	var req dto.BlockCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	id, err := h.blockSvc.RequestBlock(c.Request.Context(), req.CardID, email)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{"request_id": id})
}

// ListBlockRequests handles GET /api/v1/user_cards/block-requests (ADMIN).
func (h *UserCardHandler) ListBlockRequests(c *gin.Context) {
	page, size := parsePage(c)

	reqs, err := h.blockSvc.ListPending(c.Request.Context(), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.BlockRequestResponse, 0, len(reqs))
	for i := range reqs {
		out = append(out, dto.ToBlockRequestResponse(&reqs[i]))
	}
	response.OK(c, out)
}

// ApproveBlock handles POST /api/v1/user_cards/block-requests (ADMIN).
// Approval is idempotent: approving an already-processed request succeeds.
func (h *UserCardHandler) ApproveBlock(c *gin.Context) {
	var req dto.ApproveBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.blockSvc.ApproveBlock(c.Request.Context(), req.RequestID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"status": "approved"})
}
