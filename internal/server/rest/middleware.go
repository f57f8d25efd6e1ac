package rest

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/accountability/internal/common"
	"github.com/dmitrijs2005/accountability/internal/server/auth"
	"github.com/gin-gonic/gin"
)

const (
	accessTokenHeader = common.AccessTokenHeaderName
	claimsKey         = "claims"
)

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}

// bearerToken extracts the session token from "Authorization: Bearer <jwt>"
// or, failing that, from the x-access-token header.
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return c.GetHeader(accessTokenHeader)
}

func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortWithError(c, common.ErrUnauthorized)
			return
		}

		claims, err := auth.ParseToken(token, s.jwtSecret)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func claimsFrom(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return &auth.Claims{}
	}
	claims, _ := v.(*auth.Claims)
	if claims == nil {
		return &auth.Claims{}
	}
	return claims
}
