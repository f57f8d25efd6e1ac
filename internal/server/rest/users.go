package rest

import (
	"net/http"

	"github.com/dmitrijs2005/accountability/internal/server/models"
	"github.com/dmitrijs2005/accountability/internal/server/services"
	"github.com/gin-gonic/gin"
)

type authRequest struct {
	Token string `json:"token"`
}

type currentUser struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
}

type listUsersResponse struct {
	CurrentUser currentUser    `json:"currentUser"`
	Users       []*models.User `json:"users"`
}

type createUserRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Alert           bool   `json:"alert"`
	AlertTime       string `json:"alertTime"`
	BackgroundColor string `json:"backgroundColor"`
}

func (s *Server) authenticate(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		badRequest(c, "token not supplied")
		return
	}

	res, err := s.svc.Users.Authenticate(c.Request.Context(), req.Token)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) listUsers(c *gin.Context) {
	users, err := s.svc.Users.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}

	claims := claimsFrom(c)
	c.JSON(http.StatusOK, listUsersResponse{
		CurrentUser: currentUser{ID: claims.UserID, FirstName: claims.FirstName},
		Users:       users,
	})
}

func (s *Server) getUser(c *gin.Context) {
	u, err := s.svc.Users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	u, err := s.svc.Users.Create(c.Request.Context(), &models.User{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Phone:           req.Phone,
		Alert:           req.Alert,
		AlertTime:       req.AlertTime,
		BackgroundColor: req.BackgroundColor,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (s *Server) updateUser(c *gin.Context) {
	var patch services.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	u, err := s.svc.Users.Update(c.Request.Context(), claimsFrom(c).UserID, c.Param("id"), patch)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) deleteUser(c *gin.Context) {
	if err := s.svc.Users.Delete(c.Request.Context(), claimsFrom(c).UserID, c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deleted user"})
}
