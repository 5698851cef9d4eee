package middleware

import (
	"log"
	"net/http"
	"net/url"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	adapter "github.com/gwatts/gin-adapter"
)

// HostJWT validates Auth0-issued host tokens.
func HostJWT(domain, audience string) (gin.HandlerFunc, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
	)
	if err != nil {
		return nil, err
	}

	mw := jwtmiddleware.New(jwtValidator.ValidateToken)
	return adapter.Wrap(mw.CheckJWT), nil
}

// GetHostAuth0ID extracts the host identity (sub claim) from the validated
// JWT in the request context.
func GetHostAuth0ID(c *gin.Context) (string, bool) {
	claims, exists := c.Request.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
	if !exists {
		log.Printf("No host claims found in context")
		return "", false
	}
	return claims.RegisteredClaims.Subject, true
}

// GuestSessionHeader identifies an anonymous guest session.
const GuestSessionHeader = "X-Guest-Session"

const guestSessionKey = "guest_session"

// GuestSession requires the guest session header on guest-facing routes.
func GuestSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := c.GetHeader(GuestSessionHeader)
		if session == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "Guest session required"})
			return
		}
		c.Set(guestSessionKey, session)
		c.Next()
	}
}

func GetGuestSession(c *gin.Context) (string, bool) {
	session, exists := c.Get(guestSessionKey)
	if !exists {
		return "", false
	}
	return session.(string), true
}

// CronSecretHeader authenticates the external scheduled trigger.
const CronSecretHeader = "X-Cron-Secret"

// CronSecret gates the scheduled-job endpoints behind a shared secret.
func CronSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" || c.GetHeader(CronSecretHeader) != secret {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "Authentication required"})
			return
		}
		c.Next()
	}
}
