package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"go-pos-terminal/internal/app"
	"go-pos-terminal/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// --- GET: List products ---
// ?category= narrows to one category ("All" or empty means every one),
// ?q= searches names and ?active=true hides products off the menu.
func (s *Server) GetProducts(c *gin.Context) {
	filter := app.ProductFilter{
		Category:   c.Query("category"),
		Query:      c.Query("q"),
		ActiveOnly: c.Query("active") == "true",
	}
	products, err := s.app.Products(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (s *Server) GetProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	p, err := s.app.Product(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetAddons returns the add-on menu offered with a product; empty when it
// takes none.
func (s *Server) GetAddons(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	options, err := s.app.Addons(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, options)
}

// --- POST: Add a new product ---
// Accepts JSON or multipart/form-data with an optional "file" image.
func (s *Server) AddProduct(c *gin.Context) {
	s.saveProduct(c, 0)
}

// --- PUT: Replace a product ---
func (s *Server) UpdateProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if _, err := s.app.Product(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	s.saveProduct(c, id)
}

func (s *Server) saveProduct(c *gin.Context, id int64) {
	var (
		p     models.Product
		image []byte
		err   error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		p, image, err = s.productFromForm(c)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
	} else if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	p.ID = id

	saved, err := s.app.SaveProduct(c.Request.Context(), p, image)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	c.JSON(status, saved)
}

type formError string

func (e formError) Error() string { return string(e) }

// productFromForm reads the product fields and the optional upload of a
// multipart request. Missing flags default to true.
func (s *Server) productFromForm(c *gin.Context) (models.Product, []byte, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(c.PostForm("price")))
	if err != nil {
		return models.Product{}, nil, formError("price must be a number")
	}
	p := models.Product{
		Name:        c.PostForm("name"),
		Price:       price,
		Category:    c.PostForm("category"),
		Description: c.PostForm("description"),
		Image:       c.PostForm("image"),
		Active:      c.DefaultPostForm("active", "true") != "false",
		InStock:     c.DefaultPostForm("inStock", "true") != "false",
	}

	file, err := c.FormFile("file")
	if err != nil {
		return p, nil, nil
	}
	if file.Size > s.maxUploadBytes {
		return models.Product{}, nil, formError("image is too large")
	}
	f, err := file.Open()
	if err != nil {
		return models.Product{}, nil, formError("could not read the uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.maxUploadBytes+1))
	if err != nil {
		return models.Product{}, nil, formError("could not read the uploaded file")
	}
	if int64(len(data)) > s.maxUploadBytes {
		return models.Product{}, nil, formError("image is too large")
	}
	return p, data, nil
}

type AvailabilityRequest struct {
	Active  *bool `json:"active"`
	InStock *bool `json:"inStock"`
}

// --- PATCH: Toggle menu visibility or stock ---
func (s *Server) SetAvailability(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.Active == nil && req.InStock == nil) {
		badRequest(c, "active or inStock is required")
		return
	}
	p, err := s.app.SetAvailability(c.Request.Context(), id, req.Active, req.InStock)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// --- DELETE: Remove a product ---
func (s *Server) DeleteProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := s.app.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

func (s *Server) GetCategories(c *gin.Context) {
	cats, err := s.app.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) AddCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Category name is required")
		return
	}
	cat, err := s.app.AddCategory(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (s *Server) DeleteCategory(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := s.app.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

// idParam reads the numeric :id and answers 400 when it is not one.
func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "Invalid ID")
		return 0, false
	}
	return id, true
}
