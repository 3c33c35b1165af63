package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	identityapp "github.com/invoicer/backend/internal/application/identity"
)

// signatureFormField is the multipart field carrying the signature image
const signatureFormField = "signature"

// maxSignatureUpload bounds how much of an upload is read. The service
// enforces the real 2MB limit; one extra byte lets it see the overflow.
const maxSignatureUpload = identityapp.MaxSignatureSize + 1

// ProfileHandler handles the seller profile and signature
type ProfileHandler struct {
	BaseHandler
	profileService ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// GetProfile godoc
// @Summary      Get profile
// @Description  Seller details printed on invoices
// @Tags         profile
// @Produce      json
// @Success      200 {object} dto.Response{data=identity.UserResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	user, err := h.profileService.Get(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// UpdateProfile godoc
// @Summary      Update profile
// @Description  Update the allow-listed seller fields
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        request body identity.ProfileRequest true "Profile fields"
// @Success      200 {object} dto.Response{data=identity.UserResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /profile [put]
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req identityapp.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	user, err := h.profileService.Update(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// UploadSignature godoc
// @Summary      Upload signature
// @Description  Replace the signature image printed on invoices. PNG only, at most 2MB.
// @Tags         profile
// @Accept       multipart/form-data
// @Produce      json
// @Param        signature formData file true "PNG signature"
// @Success      200 {object} dto.Response{data=identity.SignatureResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /profile/signature [post]
func (h *ProfileHandler) UploadSignature(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile(signatureFormField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			h.HandleError(c, identityapp.ErrSignatureEmpty)
			return
		}
		h.BadRequest(c, "Invalid multipart form")
		return
	}
	if fileHeader.Size > identityapp.MaxSignatureSize {
		h.HandleError(c, identityapp.ErrSignatureTooLarge)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.InternalError(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSignatureUpload))
	if err != nil {
		h.InternalError(c, err)
		return
	}

	resp, err := h.profileService.UploadSignature(c.Request.Context(), userID, data)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// DeleteSignature godoc
// @Summary      Delete signature
// @Tags         profile
// @Produce      json
// @Success      200 {object} dto.Response{data=dto.MessageData}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /profile/signature [delete]
func (h *ProfileHandler) DeleteSignature(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	if err := h.profileService.DeleteSignature(c.Request.Context(), userID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Message(c, "Signature deleted successfully")
}
