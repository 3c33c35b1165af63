package handler

import (
	"github.com/gin-gonic/gin"
	invoiceapp "github.com/invoicer/backend/internal/application/invoice"
)

const invoiceNotFound = "Invoice not found"

// InvoiceHandler handles the invoice ledger of the current seller
type InvoiceHandler struct {
	BaseHandler
	invoiceService  InvoiceService
	documentService DocumentService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService InvoiceService, documentService DocumentService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService:  invoiceService,
		documentService: documentService,
	}
}

// List godoc
// @Summary      List invoices
// @Description  Paginated invoices with optional month, client and status filters
// @Tags         invoices
// @Produce      json
// @Param        month query string false "Month filter (YYYY-MM)"
// @Param        client_id query string false "Client ID" format(uuid)
// @Param        status query string false "Status" Enums(draft, sent, paid, overdue)
// @Param        sort_by query string false "Sort field" Enums(invoice_date, total, number, client_name) default(invoice_date)
// @Param        sort_dir query string false "Sort direction" Enums(asc, desc) default(desc)
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]invoice.InvoiceResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var q invoiceapp.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.invoiceService.List(c.Request.Context(), ownerID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Months godoc
// @Summary      Invoice months
// @Description  Distinct YYYY-MM months that have invoices, newest first
// @Tags         invoices
// @Produce      json
// @Success      200 {object} dto.Response{data=[]string}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/months [get]
func (h *InvoiceHandler) Months(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}

	months, err := h.invoiceService.Months(c.Request.Context(), ownerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, months)
}

// Unpaid godoc
// @Summary      Unpaid invoices
// @Description  Invoices not yet paid, earliest due date first
// @Tags         invoices
// @Produce      json
// @Success      200 {object} dto.Response{data=[]invoice.InvoiceResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/unpaid [get]
func (h *InvoiceHandler) Unpaid(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}

	invoices, err := h.invoiceService.Unpaid(c.Request.Context(), ownerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoices)
}

// Create godoc
// @Summary      Create invoice
// @Description  Reserve the next number of the seller's series and store the invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body invoice.InvoiceRequest true "Invoice data"
// @Success      201 {object} dto.Response{data=invoice.InvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req invoiceapp.InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	inv, err := h.invoiceService.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, inv)
}

// GetByID godoc
// @Summary      Get invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=invoice.InvoiceResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id", invoiceNotFound)
	if !ok {
		return
	}

	inv, err := h.invoiceService.Get(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, inv)
}

// Update godoc
// @Summary      Update invoice
// @Description  Replace header fields and the whole item set. Series and number never change.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body invoice.InvoiceRequest true "Invoice data"
// @Success      200 {object} dto.Response{data=invoice.InvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id} [put]
func (h *InvoiceHandler) Update(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id", invoiceNotFound)
	if !ok {
		return
	}

	var req invoiceapp.InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	inv, err := h.invoiceService.Update(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, inv)
}

// UpdateStatus godoc
// @Summary      Change invoice status
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body invoice.StatusRequest true "New status"
// @Success      200 {object} dto.Response{data=invoice.InvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id}/status [post]
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id", invoiceNotFound)
	if !ok {
		return
	}

	var req invoiceapp.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	inv, err := h.invoiceService.UpdateStatus(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, inv)
}

// Delete godoc
// @Summary      Delete invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=dto.MessageData}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id", invoiceNotFound)
	if !ok {
		return
	}

	if err := h.invoiceService.Delete(c.Request.Context(), ownerID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Message(c, "Invoice deleted successfully")
}

// PDFLink godoc
// @Summary      Issue a PDF download link
// @Description  Returns a short-lived URL that downloads the invoice PDF without a bearer header
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=document.LinkResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id}/pdf-link [post]
func (h *InvoiceHandler) PDFLink(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id", invoiceNotFound)
	if !ok {
		return
	}
	sessionID, err := getSessionID(c)
	if err != nil {
		h.Unauthorized(c, "Unauthenticated.")
		return
	}

	link, err := h.documentService.Link(c.Request.Context(), ownerID, sessionID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, link)
}
