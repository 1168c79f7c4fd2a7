package handler

import (
	"strconv"

	"bank-card-service/internal/adapter/http/dto"
	"bank-card-service/internal/core/domain"
	"bank-card-service/internal/core/ports"
	"bank-card-service/pkg/apperror"
	"bank-card-service/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CardHandler handles the administrative card management endpoints.
type CardHandler struct {
	cardSvc ports.CardService
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cardSvc ports.CardService) *CardHandler {
	return &CardHandler{cardSvc: cardSvc}
}

// parsePage reads page/size query params with defaults and caps.
func parsePage(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ = strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(defaultPageSize)))
	if page < 0 {
		page = 0
	}
	if size < 1 || size > maxPageSize {
		size = defaultPageSize
	}
	return page, size
}

// parseIDParam reads the :id path parameter.
func parseIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		response.Error(c, apperror.InvalidArgument("Invalid id"))
		return 0, false
	}
	return id, true
}

// List handles GET /api/v1/cards.
func (h *CardHandler) List(c *gin.Context) {
	page, size := parsePage(c)

	cards, err := h.cardSvc.List(c.Request.Context(), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.CardResponse, 0, len(cards))
	for i := range cards {
		out = append(out, dto.ToCardResponse(&cards[i]))
	}
	response.OK(c, out)
}

// Create handles POST /api/v1/cards.
func (h *CardHandler) Create(c *gin.Context) {
	var req dto.CreateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	card, err := h.cardSvc.Create(c.Request.Context(), ports.CreateCardRequest{
		Number:         req.Number,
		UserID:         req.UserID,
		ExpirationDate: req.ExpirationDate,
		Status:         domain.CardStatus(req.Status),
		Balance:        req.Balance,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToCardResponse(card))
}

// Update handles PATCH /api/v1/cards/:id.
func (h *CardHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req dto.UpdateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	update := ports.UpdateCardRequest{
		ID:             id,
		Number:         req.Number,
		UserID:         req.UserID,
		ExpirationDate: req.ExpirationDate,
		Balance:        req.Balance,
	}
	if req.Status != nil {
		status := domain.CardStatus(*req.Status)
		update.Status = &status
	}

	if err := h.cardSvc.Update(c.Request.Context(), update); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Delete handles DELETE /api/v1/cards/:id.
func (h *CardHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.cardSvc.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
