package admin

import (
	"github.com/freightlane/internal/http/response"
	"github.com/freightlane/internal/models"
	"github.com/freightlane/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateInvoice 为已成交货源开具账单
func (h *Handler) CreateInvoice(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	loadID, ok := parseID(c, "id")
	if !ok {
		return
	}
	invoice, err := h.InvoiceService.CreateInvoice(actor, loadID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, invoice)
}

// SendInvoice 发送账单
func (h *Handler) SendInvoice(c *gin.Context) {
	h.invoiceAction(c, h.InvoiceService.SendInvoice)
}

// MarkInvoicePaid 标记账单已付
func (h *Handler) MarkInvoicePaid(c *gin.Context) {
	h.invoiceAction(c, h.InvoiceService.MarkInvoicePaid)
}

func (h *Handler) invoiceAction(c *gin.Context, fn func(service.Actor, uint) (*models.Invoice, error)) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	invoiceID, ok := parseID(c, "id")
	if !ok {
		return
	}
	invoice, err := fn(actor, invoiceID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, invoice)
}
