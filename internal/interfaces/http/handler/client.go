package handler

import (
	"github.com/gin-gonic/gin"
	clientapp "github.com/invoicer/backend/internal/application/client"
)

const clientNotFound = "Client not found"

// ClientHandler handles the buyer registry of the current seller
type ClientHandler struct {
	BaseHandler
	clientService ClientService
}

// NewClientHandler creates a new ClientHandler
func NewClientHandler(clientService ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

// List godoc
// @Summary      List clients
// @Description  All clients of the current seller ordered by name
// @Tags         clients
// @Produce      json
// @Success      200 {object} dto.Response{data=[]client.ClientResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /clients [get]
func (h *ClientHandler) List(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}

	clients, err := h.clientService.List(c.Request.Context(), ownerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, clients)
}

// Create godoc
// @Summary      Create client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        request body client.ClientRequest true "Client data"
// @Success      201 {object} dto.Response{data=client.ClientResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /clients [post]
func (h *ClientHandler) Create(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req clientapp.ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	client, err := h.clientService.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, client)
}

// GetByID godoc
// @Summary      Get client
// @Tags         clients
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Success      200 {object} dto.Response{data=client.ClientResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /clients/{id} [get]
func (h *ClientHandler) GetByID(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id", clientNotFound)
	if !ok {
		return
	}

	client, err := h.clientService.Get(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, client)
}

// Update godoc
// @Summary      Update client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Param        request body client.ClientRequest true "Client data"
// @Success      200 {object} dto.Response{data=client.ClientResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /clients/{id} [put]
func (h *ClientHandler) Update(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id", clientNotFound)
	if !ok {
		return
	}

	var req clientapp.ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	client, err := h.clientService.Update(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, client)
}

// Delete godoc
// @Summary      Delete client
// @Description  Clients that still have invoices cannot be deleted
// @Tags         clients
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Success      200 {object} dto.Response{data=dto.MessageData}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /clients/{id} [delete]
func (h *ClientHandler) Delete(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id", clientNotFound)
	if !ok {
		return
	}

	if err := h.clientService.Delete(c.Request.Context(), ownerID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Message(c, "Client deleted successfully")
}

// Stats godoc
// @Summary      Client statistics
// @Description  Invoice count and totals per client
// @Tags         stats
// @Produce      json
// @Success      200 {object} dto.Response{data=[]client.ClientStatsResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stats/clients [get]
func (h *ClientHandler) Stats(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}

	stats, err := h.clientService.Stats(c.Request.Context(), ownerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}
