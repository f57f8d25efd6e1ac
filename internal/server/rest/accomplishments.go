package rest

import (
	"net/http"

	"github.com/dmitrijs2005/accountability/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (s *Server) listAccomplishments(c *gin.Context) {
	entries, err := s.svc.Accomplishments.Personal(c.Request.Context(),
		c.Query("user"), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) saveAccomplishment(c *gin.Context) {
	var req services.SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	a, created, err := s.svc.Accomplishments.Save(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, a)
}

func (s *Server) dashboard(c *gin.Context) {
	rows, err := s.svc.Dashboard.Dashboard(c.Request.Context(), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) exportDashboard(c *gin.Context) {
	res, err := s.svc.Export.ExportDashboard(c.Request.Context(), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}
