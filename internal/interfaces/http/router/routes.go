package router

import (
	"github.com/gin-gonic/gin"
	"github.com/invoicer/backend/internal/interfaces/http/handler"
)

// Handlers are the HTTP handlers mounted under /api/v1
type Handlers struct {
	System   *handler.SystemHandler
	Auth     *handler.AuthHandler
	Profile  *handler.ProfileHandler
	Client   *handler.ClientHandler
	Invoice  *handler.InvoiceHandler
	Document *handler.DocumentHandler
	Report   *handler.ReportHandler
}

// Guards are the middleware that protect route groups. A nil guard is skipped.
type Guards struct {
	// Authenticate validates the bearer token of every protected route
	Authenticate gin.HandlerFunc
	// Credentials throttles register and login per client
	Credentials gin.HandlerFunc
}

func chain(guard gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	if guard == nil {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{guard, h}
}

// RegisterAPI registers every public and bearer-protected route group and
// returns the routes that sit behind authentication
func RegisterAPI(r *Router, h Handlers, g Guards) []Route {
	system := NewDomainGroup("system", "")
	system.GET("/health", h.System.Health)
	system.GET("/system/info", h.System.GetSystemInfo)

	// Public: credentials and the token-in-query document download
	authPublic := NewDomainGroup("auth", "/auth")
	authPublic.POST("/register", chain(g.Credentials, h.Auth.Register)...)
	authPublic.POST("/login", chain(g.Credentials, h.Auth.Login)...)

	documents := NewDomainGroup("documents", "/invoices")
	documents.GET("/:id/pdf", h.Document.DownloadPDF)

	r.Register(system).
		Register(authPublic).
		Register(documents)

	// Everything below requires a bearer token
	protected := NewDomainGroup("protected", "")
	if g.Authenticate != nil {
		protected.Use(g.Authenticate)
	}

	auth := protected.Group("auth", "/auth")
	auth.POST("/logout", h.Auth.Logout)
	auth.POST("/logout-all", h.Auth.LogoutAll)
	auth.GET("/user", h.Auth.GetCurrentUser)
	auth.GET("/sessions", h.Auth.ListSessions)
	auth.DELETE("/sessions/:id", h.Auth.DeleteSession)
	auth.PUT("/password", h.Auth.ChangePassword)

	profile := protected.Group("profile", "/profile")
	profile.GET("", h.Profile.GetProfile)
	profile.PUT("", h.Profile.UpdateProfile)
	profile.POST("/signature", h.Profile.UploadSignature)
	profile.DELETE("/signature", h.Profile.DeleteSignature)

	clients := protected.Group("clients", "/clients")
	clients.GET("", h.Client.List)
	clients.POST("", h.Client.Create)
	clients.GET("/:id", h.Client.GetByID)
	clients.PUT("/:id", h.Client.Update)
	clients.DELETE("/:id", h.Client.Delete)

	invoices := protected.Group("invoices", "/invoices")
	invoices.GET("", h.Invoice.List)
	invoices.GET("/months", h.Invoice.Months)
	invoices.GET("/unpaid", h.Invoice.Unpaid)
	invoices.POST("", h.Invoice.Create)
	invoices.GET("/:id", h.Invoice.GetByID)
	invoices.PUT("/:id", h.Invoice.Update)
	invoices.DELETE("/:id", h.Invoice.Delete)
	invoices.POST("/:id/status", h.Invoice.UpdateStatus)
	invoices.POST("/:id/pdf-link", h.Invoice.PDFLink)

	stats := protected.Group("stats", "/stats")
	stats.GET("", h.Report.Stats)
	stats.GET("/clients", h.Client.Stats)

	protected.GET("/activity", h.Report.Activity)

	r.Register(protected)
	return protected.Routes()
}
