package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetDashboard returns every dashboard figure for ?range= (default today).
func (s *Server) GetDashboard(c *gin.Context) {
	r, ok := s.rangeQuery(c, "today")
	if !ok {
		return
	}
	dash, err := s.app.Dashboard(c.Request.Context(), r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

// ExportSales downloads the sales inside ?range= as ?format=csv|xlsx|pdf.
// Without a range every sale is exported.
func (s *Server) ExportSales(c *gin.Context) {
	r, ok := s.rangeQuery(c, "all")
	if !ok {
		return
	}

	var buf bytes.Buffer
	contentType, fileName, err := s.app.ExportSales(c.Request.Context(), &buf, c.Query("format"), r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (s *Server) GetNotifications(c *gin.Context) {
	list, unread := s.app.Notifications(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"notifications": list, "unread": unread})
}

func (s *Server) MarkNotificationsRead(c *gin.Context) {
	if err := s.app.MarkNotificationsRead(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": 0})
}

func (s *Server) ClearNotifications(c *gin.Context) {
	if err := s.app.ClearNotifications(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notifications cleared"})
}

func (s *Server) GetSettings(c *gin.Context) {
	settings, err := s.app.Settings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// SettingsRequest changes only the fields it carries. ForgetPrinter wins
// over PrinterDevice.
type SettingsRequest struct {
	DarkMode      *bool           `json:"darkMode"`
	PrinterDevice json.RawMessage `json:"thermalPrinterDevice"`
	ForgetPrinter bool            `json:"forgetPrinter"`
}

func (s *Server) UpdateSettings(c *gin.Context) {
	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	ctx := c.Request.Context()

	if req.DarkMode != nil {
		if err := s.app.SetDarkMode(ctx, *req.DarkMode); err != nil {
			respondError(c, err)
			return
		}
	}
	switch {
	case req.ForgetPrinter:
		if err := s.app.ForgetPrinter(ctx); err != nil {
			respondError(c, err)
			return
		}
	case len(req.PrinterDevice) > 0:
		if err := s.app.SetPrinterDevice(ctx, req.PrinterDevice); err != nil {
			respondError(c, err)
			return
		}
	}
	s.GetSettings(c)
}
