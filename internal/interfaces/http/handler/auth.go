package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	identityapp "github.com/invoicer/backend/internal/application/identity"
	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// deviceName names the new session after the request or the user agent
func deviceName(c *gin.Context, requested string) string {
	if requested != "" {
		return requested
	}
	ua := c.Request.UserAgent()
	if len(ua) > 255 {
		ua = ua[:255]
	}
	return ua
}

// Register godoc
// @Summary      Register a seller
// @Description  Create a seller account and open its first session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration data"
// @Success      201 {object} dto.Response{data=AuthResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.authService.Register(c.Request.Context(), identityapp.RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		DeviceName: deviceName(c, req.DeviceName),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toAuthResponse(result))
}

// Login godoc
// @Summary      User login
// @Description  Authenticate with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} dto.Response{data=AuthResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), identityapp.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		DeviceName: deviceName(c, req.DeviceName),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toAuthResponse(result))
}

// Logout godoc
// @Summary      User logout
// @Description  End the current session and revoke its token
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=dto.MessageData}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	sessionID, err := getSessionID(c)
	if err != nil {
		h.Unauthorized(c, "Unauthenticated.")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), userID, sessionID, remainingTokenTTL(c)); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Message(c, "Logged out successfully")
}

// LogoutAll godoc
// @Summary      Logout from all devices
// @Description  End every session of the current user
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=dto.MessageData}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	if err := h.authService.LogoutAll(c.Request.Context(), userID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Message(c, "Logged out from all devices successfully")
}

// GetCurrentUser godoc
// @Summary      Get current user
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=identity.UserResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/user [get]
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	user, err := h.authService.Me(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// ListSessions godoc
// @Summary      List sessions
// @Description  List the login sessions of the current user, most recently used first
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=[]identity.SessionResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/sessions [get]
func (h *AuthHandler) ListSessions(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	sessionID, _ := getSessionID(c)

	sessions, err := h.authService.Sessions(c.Request.Context(), userID, sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sessions)
}

// DeleteSession godoc
// @Summary      Delete a session
// @Description  End another session of the current user
// @Tags         auth
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Success      200 {object} dto.Response{data=dto.MessageData}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/sessions/{id} [delete]
func (h *AuthHandler) DeleteSession(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id", "Session not found")
	if !ok {
		return
	}
	sessionID, _ := getSessionID(c)

	if err := h.authService.DeleteSession(c.Request.Context(), userID, sessionID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Message(c, "Session deleted successfully")
}

// ChangePassword godoc
// @Summary      Change password
// @Description  Change the password, end every session and return a new token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ChangePasswordRequest true "Password change"
// @Success      200 {object} dto.Response{data=AuthResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.authService.ChangePassword(c.Request.Context(), identityapp.ChangePasswordInput{
		UserID:          userID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.Password,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toAuthResponse(result))
}

// remainingTokenTTL is how long the presented token would still be accepted
func remainingTokenTTL(c *gin.Context) time.Duration {
	if claims := middleware.GetJWTClaims(c); claims != nil {
		if ttl := claims.GetRemainingTTL(); ttl > 0 {
			return ttl
		}
	}
	return identity.SessionLifetime
}
