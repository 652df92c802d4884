package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/branchd-dev/adminconsole/internal/auth"
	"github.com/branchd-dev/adminconsole/internal/models"
)

const sessionKey = "session"

var errNoBearer = errors.New("no bearer token")

// bearerToken returns the token of an "Authorization: Bearer <token>" header
func bearerToken(header string) (string, error) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" {
		return "", errNoBearer
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errNoBearer
	}
	return token, nil
}

// sessionFrom returns the session stored by requireSession
func sessionFrom(c *gin.Context) (*auth.SessionData, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	session, ok := v.(*auth.SessionData)
	return session, ok
}

func deny(c *gin.Context, log zerolog.Logger, status int, reason error, message string) {
	log.Warn().Err(reason).Str("path", c.Request.URL.Path).Int("status", status).Msg("Request denied")
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// requireSession rejects requests without a valid token. The role comes from
// the users table so a demotion applies to tokens already issued.
func requireSession(db *gorm.DB, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			deny(c, log, http.StatusUnauthorized, err, "Missing or malformed bearer token")
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			deny(c, log, http.StatusUnauthorized, err, "Invalid token")
			return
		}

		var user models.User
		if err := models.FindByID(db, claims.UserID, &user); err != nil {
			deny(c, log, http.StatusUnauthorized, err, "Unknown user")
			return
		}

		c.Set(sessionKey, &auth.SessionData{
			UserID: user.ID,
			Email:  user.Email,
			Role:   user.Role,
		})
		c.Next()
	}
}

// requireAdmin lets only admins through; it must run after requireSession
func requireAdmin(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := sessionFrom(c)
		if !ok {
			deny(c, log, http.StatusUnauthorized, errors.New("no session"), "Unauthorized")
			return
		}
		if !session.IsAdmin() {
			deny(c, log, http.StatusForbidden, errors.New("role "+session.Role), "Admin access required")
			return
		}
		c.Next()
	}
}
