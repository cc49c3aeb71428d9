package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// GetSystemStatus reports the terminal id, record counts and, when the
// store can tell, how much room it is using.
func (s *Server) GetSystemStatus(c *gin.Context) {
	status, err := s.app.Status(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{"status": status}
	if s.usage != nil {
		usage, err := s.usage(c.Request.Context())
		if err != nil {
			log.WithError(err).Warn("storage usage unavailable")
		} else {
			body["storage"] = usage
		}
	}
	c.JSON(http.StatusOK, body)
}

// ClearSales wipes the sales history and restarts the daily counter.
func (s *Server) ClearSales(c *gin.Context) {
	if err := s.app.ClearSales(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All sales cleared"})
}

// ResetSystem erases every stored record and reseeds the default menu.
func (s *Server) ResetSystem(c *gin.Context) {
	if err := s.app.Reset(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	log.Warn("terminal data reset by admin")
	c.JSON(http.StatusOK, gin.H{"message": "System reset"})
}

// ExportBackup downloads every store as one JSON document.
func (s *Server) ExportBackup(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.app.WriteBackup(c.Request.Context(), &buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+s.app.BackupFileName()+`"`)
	c.Data(http.StatusOK, "application/json", buf.Bytes())
}

// ImportBackup restores a backup sent as the "file" form field or as the
// raw request body.
func (s *Server) ImportBackup(c *gin.Context) {
	body := c.Request.Body
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			badRequest(c, "Could not read the uploaded file")
			return
		}
		defer f.Close()
		body = f
	}

	if err := s.app.RestoreBackup(c.Request.Context(), body); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Backup restored"})
}
