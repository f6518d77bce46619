// Package control implements the HTTP control surface: the request-
// addressable remote control described in spec §6, built on gin the same
// way the teacher wires its own API surface.
package control

import (
	"net/http"

	"github.com/arung-agamani/denpa-radio/internal/catalog"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// SuperuserAuth gates the destructive resources (schedule/playlist writes,
// the /sql passthrough) behind an operator credential stored in the
// catalog's superusers table, checked with bcrypt the way the teacher's
// internal/auth checks DJ credentials.
type SuperuserAuth struct {
	store *catalog.Store
}

// NewSuperuserAuth builds a SuperuserAuth backed by store.
func NewSuperuserAuth(store *catalog.Store) *SuperuserAuth {
	return &SuperuserAuth{store: store}
}

// Require is gin middleware: it demands HTTP Basic credentials matching a
// row in the superusers table, or responds 401 and aborts the chain.
func (a *SuperuserAuth) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="control"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "error": "superuser credentials required"})
			return
		}

		su, err := a.store.FetchSuperuser(username)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "error": "invalid credentials"})
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(su.PasswordHash), []byte(password)) != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "error": "invalid credentials"})
			return
		}

		c.Set("remote_user", username)
		c.Next()
	}
}

// HashPassword bcrypt-hashes a cleartext password for UpsertSuperuser, the
// same cost the teacher's internal/auth uses for DJ passwords.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
