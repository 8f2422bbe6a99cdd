package public

import (
	"strings"
	"time"

	"github.com/freightlane/internal/http/handlers/shared"
	"github.com/freightlane/internal/http/response"
	"github.com/freightlane/internal/models"
	"github.com/freightlane/internal/repository"
	"github.com/freightlane/internal/service"

	"github.com/gin-gonic/gin"
)

type createBidPayload struct {
	Amount          models.Money `json:"amount"`
	Notes           string       `json:"notes"`
	EstimatedPickup *time.Time   `json:"estimated_pickup"`
}

type counterBidPayload struct {
	CounterAmount models.Money `json:"counter_amount"`
	Notes         string       `json:"notes"`
}

type notesPayload struct {
	Notes string `json:"notes"`
}

// CreateBid 承运方出价
func (h *Handler) CreateBid(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	loadID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req createBidPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.amount_invalid", nil)
		return
	}
	bid, err := h.BidService.CreateBid(actor, service.CreateBidInput{
		LoadID:          loadID,
		Amount:          req.Amount,
		Notes:           req.Notes,
		EstimatedPickup: req.EstimatedPickup,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, bid)
}

// ListLoadBids 货源下的报价
func (h *Handler) ListLoadBids(c *gin.Context) {
	loadID, ok := parseID(c, "id")
	if !ok {
		return
	}
	h.listBids(c, loadID)
}

// ListBids 报价列表（承运方仅见自己的报价）
func (h *Handler) ListBids(c *gin.Context) {
	h.listBids(c, shared.ParseOptionalUintQuery(c, "load_id"))
}

func (h *Handler) listBids(c *gin.Context, loadID uint) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	page, pageSize := shared.PaginationFromQuery(c)
	filter := repository.BidListFilter{
		Page:     page,
		PageSize: pageSize,
		LoadID:   loadID,
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		filter.Statuses = strings.Split(raw, ",")
	}
	bids, total, err := h.BidService.ListBids(actor, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, bids, shared.BuildPagination(page, pageSize, total))
}

// AcceptBid 货主接受报价
func (h *Handler) AcceptBid(c *gin.Context) {
	h.award(c, h.BidService.AcceptBid)
}

// AcceptCounter 承运方接受还价
func (h *Handler) AcceptCounter(c *gin.Context) {
	h.award(c, h.BidService.AcceptCounter)
}

func (h *Handler) award(c *gin.Context, fn func(service.Actor, uint) (*service.AwardResult, error)) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	bidID, ok := parseID(c, "id")
	if !ok {
		return
	}
	result, err := fn(actor, bidID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// CounterBid 货主还价
func (h *Handler) CounterBid(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	bidID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req counterBidPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.amount_invalid", nil)
		return
	}
	bid, err := h.BidService.CounterBid(actor, bidID, req.CounterAmount, req.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, bid)
}

// RejectBid 货主拒绝报价
func (h *Handler) RejectBid(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	bidID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req notesPayload
	_ = c.ShouldBindJSON(&req)
	bid, err := h.BidService.RejectBid(actor, bidID, req.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, bid)
}

// RejectCounter 承运方拒绝还价
func (h *Handler) RejectCounter(c *gin.Context) {
	h.closeBid(c, h.BidService.RejectCounter)
}

// WithdrawBid 承运方撤回报价
func (h *Handler) WithdrawBid(c *gin.Context) {
	h.closeBid(c, h.BidService.WithdrawBid)
}

func (h *Handler) closeBid(c *gin.Context, fn func(service.Actor, uint) (*models.Bid, error)) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	bidID, ok := parseID(c, "id")
	if !ok {
		return
	}
	bid, err := fn(actor, bidID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, bid)
}
