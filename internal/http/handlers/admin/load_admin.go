package admin

import (
	"strings"

	"github.com/freightlane/internal/http/handlers/shared"
	"github.com/freightlane/internal/http/response"
	"github.com/freightlane/internal/models"
	"github.com/freightlane/internal/repository"
	"github.com/freightlane/internal/service"

	"github.com/gin-gonic/gin"
)

type priceLoadPayload struct {
	Price models.Money `json:"price"`
}

// PriceLoad 管理员定价
func (h *Handler) PriceLoad(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	loadID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req priceLoadPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.price_invalid", nil)
		return
	}
	load, err := h.LoadService.PriceLoad(actor, loadID, req.Price)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, load)
}

// PostLoad 推送给承运方
func (h *Handler) PostLoad(c *gin.Context) {
	h.loadAction(c, h.LoadService.PostLoad)
}

// OpenLoadForBids 开放报价
func (h *Handler) OpenLoadForBids(c *gin.Context) {
	h.loadAction(c, h.LoadService.OpenLoadForBids)
}

// CloseLoad 关闭已送达货源
func (h *Handler) CloseLoad(c *gin.Context) {
	h.loadAction(c, h.LoadService.CloseLoad)
}

func (h *Handler) loadAction(c *gin.Context, fn func(service.Actor, uint) (*models.Load, error)) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	loadID, ok := parseID(c, "id")
	if !ok {
		return
	}
	load, err := fn(actor, loadID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, load)
}

// ListTransitionHistory 状态流转审计日志
func (h *Handler) ListTransitionHistory(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	page, pageSize := shared.PaginationFromQuery(c)
	logs, total, err := h.LoadService.ListHistory(actor, repository.TransitionLogListFilter{
		Page:       page,
		PageSize:   pageSize,
		EntityType: strings.TrimSpace(c.Query("entity_type")),
		EntityID:   shared.ParseOptionalUintQuery(c, "entity_id"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, logs, shared.BuildPagination(page, pageSize, total))
}
