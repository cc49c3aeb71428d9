package handlers

import (
	"context"
	"net/http"

	"go-pos-terminal/internal/ai"
	"go-pos-terminal/internal/app"
	"go-pos-terminal/internal/auth"
	"go-pos-terminal/internal/backup"
	"go-pos-terminal/internal/cart"
	"go-pos-terminal/internal/catalog"
	"go-pos-terminal/internal/database"
	"go-pos-terminal/internal/middleware"
	"go-pos-terminal/internal/models"
	"go-pos-terminal/internal/reports"
	"go-pos-terminal/internal/sales"
	"go-pos-terminal/internal/settings"
	"go-pos-terminal/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// UsageFunc reports how much room the store is using.
type UsageFunc func(ctx context.Context) (*database.StorageUsage, error)

// Server holds what the HTTP handlers need.
type Server struct {
	app            *app.App
	auth           *auth.Manager
	agent          *ai.Agent
	usage          UsageFunc
	maxUploadBytes int64
}

type Options struct {
	Agent          *ai.Agent
	Usage          UsageFunc
	MaxUploadBytes int64
}

func NewServer(a *app.App, m *auth.Manager, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 5 << 20
	}
	return &Server{app: a, auth: m, agent: opts.Agent, usage: opts.Usage, maxUploadBytes: opts.MaxUploadBytes}
}

// Register mounts every route on r.
func (s *Server) Register(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "online"}) })
	r.POST("/login", s.Login)
	r.GET("/api/system/status", s.GetSystemStatus)

	api := r.Group("/api")
	{
		api.GET("/products", s.GetProducts)
		api.GET("/products/:id", s.GetProduct)
		api.GET("/products/:id/addons", s.GetAddons)
		api.GET("/categories", s.GetCategories)

		api.GET("/cart", s.GetCart)
		api.POST("/cart/items", s.AddCartItem)
		api.PATCH("/cart/items/:index", s.ChangeCartQuantity)
		api.DELETE("/cart/items/:index", s.RemoveCartItem)
		api.DELETE("/cart", s.ClearCart)
		api.POST("/cart/reopen", s.ReopenLastSale)
		api.POST("/checkout", s.Checkout)

		api.GET("/sales", s.GetSales)
		api.GET("/sales/:id", s.GetSale)
		api.PUT("/sales/:id", s.EditSale)
		api.DELETE("/sales/:id", s.DeleteSale)
		api.POST("/sales/:id/print", s.ReprintSale)

		api.GET("/reports/dashboard", s.GetDashboard)
		api.GET("/reports/export", s.ExportSales)

		api.GET("/notifications", s.GetNotifications)
		api.POST("/notifications/read", s.MarkNotificationsRead)
		api.DELETE("/notifications", s.ClearNotifications)

		api.GET("/settings", s.GetSettings)
		api.PUT("/settings", s.UpdateSettings)

		// ADMIN ONLY
		admin := api.Group("")
		admin.Use(middleware.AuthMiddleware(s.auth), middleware.RequireRole(auth.RoleAdmin))
		{
			admin.POST("/products", s.AddProduct)
			admin.PUT("/products/:id", s.UpdateProduct)
			admin.PATCH("/products/:id/availability", s.SetAvailability)
			admin.DELETE("/products/:id", s.DeleteProduct)

			admin.POST("/categories", s.AddCategory)
			admin.DELETE("/categories/:id", s.DeleteCategory)

			admin.GET("/backup", s.ExportBackup)
			admin.POST("/backup", s.ImportBackup)
			admin.DELETE("/sales", s.ClearSales)
			admin.POST("/system/reset", s.ResetSystem)

			admin.POST("/ask", s.AskAI)
		}
	}
}

var notFound = []error{
	catalog.ErrProductNotFound,
	catalog.ErrCategoryNotFound,
	sales.ErrSaleNotFound,
	sales.ErrItemNotFound,
	cart.ErrLineNotFound,
	app.ErrNothingToReopen,
}

var invalid = []error{
	models.ErrInvalidProduct,
	models.ErrInvalidOrderType,
	models.ErrInvalidPaymentMethod,
	catalog.ErrInvalidCategory,
	catalog.ErrInvalidImage,
	cart.ErrOutOfStock,
	cart.ErrInactiveProduct,
	cart.ErrUnknownAddon,
	sales.ErrEmptyCart,
	sales.ErrLastItem,
	sales.ErrInvalidQuantity,
	app.ErrInvalidEdit,
	app.ErrUnknownFormat,
	reports.ErrInvalidRange,
	settings.ErrInvalidDevice,
	backup.ErrInvalidBackup,
}

var conflict = []error{
	catalog.ErrDuplicateCategory,
	app.ErrCartNotEmpty,
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// statusFor maps a domain error to its HTTP status.
func statusFor(err error) int {
	switch {
	case storage.IsWriteError(err):
		return http.StatusInsufficientStorage
	case isAny(err, notFound):
		return http.StatusNotFound
	case isAny(err, invalid):
		return http.StatusBadRequest
	case isAny(err, conflict):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidPIN):
		return http.StatusUnauthorized
	case errors.Is(err, app.ErrNoPrinter), errors.Is(err, ai.ErrNotConfigured):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error": "..."}. Storage and server failures
// get a fixed message; the details go to the log.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusInsufficientStorage:
		msg = "Could not save, storage may be full"
		log.WithError(err).Error("storage write failed")
	case http.StatusInternalServerError:
		msg = "Internal server error"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
