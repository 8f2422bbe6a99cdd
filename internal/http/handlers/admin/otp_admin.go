package admin

import (
	"strings"

	"github.com/freightlane/internal/constants"
	"github.com/freightlane/internal/http/handlers/shared"
	"github.com/freightlane/internal/http/response"
	"github.com/freightlane/internal/repository"
	"github.com/freightlane/internal/service"

	"github.com/gin-gonic/gin"
)

type issueOtpPayload struct {
	ValidityMinutes int `json:"validity_minutes"`
}

type rejectOtpPayload struct {
	Notes string `json:"notes"`
}

// ListOtpRequests 验证码申请列表，默认仅待处理
func (h *Handler) ListOtpRequests(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	page, pageSize := shared.PaginationFromQuery(c)
	status := strings.TrimSpace(c.DefaultQuery("status", constants.OtpRequestStatusPending))
	if status == "all" {
		status = ""
	}
	requests, total, err := h.OtpService.ListOtpRequests(actor, repository.OtpRequestListFilter{
		Page:        page,
		PageSize:    pageSize,
		ShipmentID:  shared.ParseOptionalUintQuery(c, "shipment_id"),
		RequestType: strings.TrimSpace(c.Query("request_type")),
		Status:      status,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, requests, shared.BuildPagination(page, pageSize, total))
}

// ApproveOtp 批准申请并签发验证码，明文仅返回给当前管理员
func (h *Handler) ApproveOtp(c *gin.Context) {
	h.issueOtp(c, h.OtpService.ApproveOtp)
}

// RegenerateOtp 重新签发验证码
func (h *Handler) RegenerateOtp(c *gin.Context) {
	h.issueOtp(c, h.OtpService.RegenerateOtp)
}

func (h *Handler) issueOtp(c *gin.Context, fn func(service.Actor, uint, int) (*service.IssuedOtp, error)) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	requestID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req issueOtpPayload
	_ = c.ShouldBindJSON(&req)
	issued, err := fn(actor, requestID, req.ValidityMinutes)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_otp_issued",
		"admin_id", actor.ID,
		"otp_request_id", requestID,
		"valid_until", issued.ValidUntil,
	)
	c.Header("Cache-Control", "no-store")
	response.Success(c, issued)
}

// RejectOtp 拒绝验证码申请
func (h *Handler) RejectOtp(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	requestID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req rejectOtpPayload
	_ = c.ShouldBindJSON(&req)
	request, err := h.OtpService.RejectOtp(actor, requestID, req.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, request)
}
