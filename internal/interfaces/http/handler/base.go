package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// internalErrorMessage is the only text a 500 response ever carries
const internalErrorMessage = "An internal error occurred"

// BaseHandler writes the response envelopes shared by every handler
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	return c.GetString(middleware.RequestIDContextKey)
}

var errNotAuthenticated = errors.New("request is not authenticated")

func getUserID(c *gin.Context) (uuid.UUID, error) {
	return authUUID(middleware.GetJWTUserID(c))
}

func getSessionID(c *gin.Context) (uuid.UUID, error) {
	return authUUID(middleware.GetJWTSessionID(c))
}

func authUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, errNotAuthenticated
	}
	return uuid.Parse(raw)
}

func (h *BaseHandler) respond(c *gin.Context, status int, body dto.Response) {
	c.JSON(status, body)
}

func (h *BaseHandler) Success(c *gin.Context, data any) {
	h.respond(c, http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta answers with one page of total rows
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	h.respond(c, http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

func (h *BaseHandler) Created(c *gin.Context, data any) {
	h.respond(c, http.StatusCreated, dto.NewSuccessResponse(data))
}

// Message confirms an action that has nothing else to return
func (h *BaseHandler) Message(c *gin.Context, message string) {
	h.Success(c, dto.MessageData{Message: message})
}

// Error answers with code and message, tagged with the request id
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	h.respond(c, statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// InternalError logs err and hides it behind the generic 500 body
func (h *BaseHandler) InternalError(c *gin.Context, err error) {
	logger.GetGinLogger(c).Error("Request failed", zap.String("route", c.FullPath()), zap.Error(err))
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, internalErrorMessage)
}

func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	h.respond(c, http.StatusBadRequest,
		dto.NewValidationErrorResponse("Request validation failed", getRequestID(c), details))
}

// BindError answers a failed ShouldBind call. Field errors become details;
// malformed bodies get a single message.
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	if details := middleware.ValidationDetails(err); len(details) > 0 {
		h.ValidationError(c, details)
		return
	}
	h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, "Malformed request body")
}

// HandleError maps domain errors to their status and code. Anything else is
// logged and answered with a generic 500 so storage details never leak.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	switch {
	case err == nil:
	case !errors.As(err, &domainErr):
		h.InternalError(c, err)
	case dto.GetHTTPStatus(domainErr.Code) >= http.StatusInternalServerError:
		h.InternalError(c, err)
	default:
		h.Error(c, dto.GetHTTPStatus(domainErr.Code), domainErr.Code, domainErr.Message)
	}
}

// parseID reads a UUID path parameter. A malformed id cannot name any row,
// so it is answered like a missing one.
func (h *BaseHandler) parseID(c *gin.Context, param, notFound string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		h.NotFound(c, notFound)
		return uuid.Nil, false
	}
	return id, true
}

// currentUser reads the authenticated user or answers 401
func (h *BaseHandler) currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Unauthenticated.")
		return uuid.Nil, false
	}
	return userID, true
}
