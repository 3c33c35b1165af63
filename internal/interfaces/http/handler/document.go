package handler

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/invoicer/backend/internal/application/document"
)

// DocumentHandler serves rendered invoice documents. It sits outside the
// bearer group: the only credential it accepts is a document token.
type DocumentHandler struct {
	BaseHandler
	documentService DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documentService DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// DownloadPDF godoc
// @Summary      Download invoice PDF
// @Description  Render the invoice as a PDF attachment. Authenticated by the document token from /invoices/{id}/pdf-link.
// @Tags         invoices
// @Produce      application/pdf
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        token query string true "Document token"
// @Success      200 {file} binary
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invoices/{id}/pdf [get]
func (h *DocumentHandler) DownloadPDF(c *gin.Context) {
	principal, err := h.documentService.Authorize(c.Request.Context(), c.Query("token"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	id, ok := h.parseID(c, "id", document.ErrNotFound.Message)
	if !ok {
		return
	}

	file, err := h.documentService.Render(c.Request.Context(), principal, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	c.Header("Content-Length", strconv.Itoa(len(file.Data)))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
