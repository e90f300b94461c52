package handlers

import (
	"github.com/gin-gonic/gin"

	"posada/internal/domain/stays"
	"posada/internal/infrastructure/http/v1/dto"
)

// StaysHandler serves stay lookup, invoice preview, and checkout.
type StaysHandler struct {
	BaseHandler
	service *stays.Service
}

func NewStaysHandler(service *stays.Service) *StaysHandler {
	return &StaysHandler{service: service}
}

// Get returns the full stay snapshot with charges and payments.
//
// GET /api/v1/stays/:id
func (h *StaysHandler) Get(c *gin.Context) {
	stayID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	snapshot, err := h.service.GetSnapshot(c.Request.Context(), stayID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, snapshot)
}

// InvoicePreview computes a what-if invoice without touching the stay.
// Reception uses it to answer "what would the bill be if the guest
// leaves today" and to try overrides before committing.
//
// GET /api/v1/stays/:id/invoice-preview
func (h *StaysHandler) InvoicePreview(c *gin.Context) {
	stayID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var query dto.InvoicePreviewQuery
	if !h.BindQuery(c, &query) {
		return
	}

	opts, err := query.ToPreviewOptions()
	if err != nil {
		h.Error(c, err)
		return
	}

	inv, err := h.service.InvoicePreview(c.Request.Context(), stayID, opts)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, inv)
}

// Checkout closes the stay and persists the final invoice.
//
// POST /api/v1/stays/:id/checkout
func (h *StaysHandler) Checkout(c *gin.Context) {
	stayID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var body dto.CheckoutRequest
	if !h.BindJSON(c, &body) {
		return
	}

	req, err := body.ToCheckoutRequest()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.Checkout(c.Request.Context(), stayID, req)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}
