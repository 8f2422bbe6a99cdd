package public

import (
	"github.com/freightlane/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetInvoice 账单详情
func (h *Handler) GetInvoice(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	invoiceID, ok := parseID(c, "id")
	if !ok {
		return
	}
	invoice, err := h.InvoiceService.GetInvoice(actor, invoiceID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, invoice)
}

// AcknowledgeInvoice 货主确认账单
func (h *Handler) AcknowledgeInvoice(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	invoiceID, ok := parseID(c, "id")
	if !ok {
		return
	}
	invoice, err := h.InvoiceService.AcknowledgeInvoice(actor, invoiceID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, invoice)
}
