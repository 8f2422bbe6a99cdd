package public

import (
	"strings"
	"time"

	"github.com/freightlane/internal/http/handlers/shared"
	"github.com/freightlane/internal/http/response"
	"github.com/freightlane/internal/service"

	"github.com/gin-gonic/gin"
)

type registerDocumentPayload struct {
	OwnerType    string     `json:"owner_type" binding:"required"`
	OwnerID      uint       `json:"owner_id" binding:"required"`
	DocumentType string     `json:"document_type" binding:"required"`
	DocumentNo   string     `json:"document_no"`
	FileURL      string     `json:"file_url"`
	ExpiryDate   *time.Time `json:"expiry_date"`
}

// RegisterDocument 登记合规证件
func (h *Handler) RegisterDocument(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req registerDocumentPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.document_input_invalid", nil)
		return
	}
	doc, err := h.DocumentService.RegisterDocument(c.Request.Context(), actor, service.RegisterDocumentInput{
		OwnerType:    req.OwnerType,
		OwnerID:      req.OwnerID,
		DocumentType: req.DocumentType,
		DocumentNo:   req.DocumentNo,
		FileURL:      req.FileURL,
		ExpiryDate:   req.ExpiryDate,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, doc)
}

// ListDocuments 证件列表
func (h *Handler) ListDocuments(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	ownerType := strings.TrimSpace(c.Query("owner_type"))
	ownerID := shared.ParseOptionalUintQuery(c, "owner_id")
	docs, err := h.DocumentService.ListDocuments(actor, ownerType, ownerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, docs)
}

// GetComplianceRecord 承运方合规概览（仅提示，不参与判定）
func (h *Handler) GetComplianceRecord(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	carrierID, ok := parseID(c, "id")
	if !ok {
		return
	}
	record, err := h.DocumentService.ComplianceRecord(c.Request.Context(), actor, carrierID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, record)
}
