package handlers

import (
	"net/http"
	"strconv"

	"go-pos-terminal/internal/app"
	"go-pos-terminal/internal/cart"
	"go-pos-terminal/internal/models"
	"go-pos-terminal/internal/reports"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, s.app.Cart())
}

type AddItemRequest struct {
	ProductID int64            `json:"productId" binding:"required"`
	Addons    []cart.Selection `json:"addons"`
}

// AddCartItem adds one of a product. The same product with the same
// add-ons bumps the existing line.
func (s *Server) AddCartItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "productId is required")
		return
	}
	view, err := s.app.AddToCart(c.Request.Context(), req.ProductID, req.Addons)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type QuantityRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// ChangeCartQuantity moves a line's quantity by delta; a line that drops
// below one is removed.
func (s *Server) ChangeCartQuantity(c *gin.Context) {
	i, ok := indexParam(c)
	if !ok {
		return
	}
	var req QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "delta is required")
		return
	}
	view, err := s.app.ChangeQuantity(i, req.Delta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) RemoveCartItem(c *gin.Context) {
	i, ok := indexParam(c)
	if !ok {
		return
	}
	view, err := s.app.RemoveLine(i)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) ClearCart(c *gin.Context) {
	c.JSON(http.StatusOK, s.app.ClearCart())
}

// ReopenLastSale moves the newest sale back into the empty cart.
func (s *Server) ReopenLastSale(c *gin.Context) {
	view, err := s.app.ReopenLastSale(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type CheckoutRequest struct {
	OrderType     string `json:"orderType"`
	PaymentMethod string `json:"paymentMethod"`
}

// Checkout records the cart as a sale. Warnings in the receipt name the
// follow-up steps that failed after the sale was saved.
func (s *Server) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request body")
			return
		}
	}
	orderType, err := models.ParseOrderType(req.OrderType)
	if err != nil {
		respondError(c, err)
		return
	}
	payment, err := models.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		respondError(c, err)
		return
	}

	receipt, err := s.app.Checkout(c.Request.Context(), orderType, payment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

// GetSales lists sales, optionally limited with ?range=today|week|month|all
// or ?range=custom&start=YYYY-MM-DD&end=YYYY-MM-DD.
func (s *Server) GetSales(c *gin.Context) {
	if c.Query("range") == "" {
		c.JSON(http.StatusOK, s.app.Sales(c.Request.Context()))
		return
	}
	r, ok := s.rangeQuery(c, "today")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.app.SalesIn(c.Request.Context(), r))
}

func (s *Server) GetSale(c *gin.Context) {
	sale, err := s.app.Sale(c.Request.Context(), models.SaleID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

type EditRequest struct {
	Ops []app.EditOp `json:"ops" binding:"required"`
}

// EditSale applies a batch of line and field changes to a recorded sale.
func (s *Server) EditSale(c *gin.Context) {
	var req EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "ops are required")
		return
	}
	sale, err := s.app.EditSale(c.Request.Context(), models.SaleID(c.Param("id")), req.Ops)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

func (s *Server) DeleteSale(c *gin.Context) {
	if err := s.app.DeleteSale(c.Request.Context(), models.SaleID(c.Param("id"))); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted"})
}

func (s *Server) ReprintSale(c *gin.Context) {
	if err := s.app.Reprint(c.Request.Context(), models.SaleID(c.Param("id"))); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Receipt sent to printer"})
}

func indexParam(c *gin.Context) (int, bool) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil || i < 0 {
		badRequest(c, "Invalid line index")
		return 0, false
	}
	return i, true
}

// rangeQuery reads ?range=, ?start= and ?end= and answers 400 when they
// do not form a period.
func (s *Server) rangeQuery(c *gin.Context, defaultKind string) (reports.Range, bool) {
	kind := c.DefaultQuery("range", defaultKind)
	r, err := reports.ParseRange(kind, c.Query("start"), c.Query("end"), s.app.Location())
	if err != nil {
		respondError(c, err)
		return reports.Range{}, false
	}
	return r, true
}
