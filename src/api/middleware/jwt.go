package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Identity is read from the Bearer token only. The request body is
// never trusted for user identity.

func userID(c *gin.Context, secret []byte) string {
	bearer := c.GetHeader("Authorization")
	if !strings.HasPrefix(bearer, "Bearer ") {
		return ""
	}
	token, err := jwt.Parse(bearer[7:], func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return ""
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}

// JWT rejects requests without a valid token.
func JWT(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := userID(c, secret)
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"err": "authentication required"})
			return
		}
		c.Set("uid", uid)
		c.Next()
	}
}

// OptionalJWT resolves identity when a token is present and leaves it
// empty otherwise. Anonymous prediction and quiz play are allowed.
func OptionalJWT(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := userID(c, secret); uid != "" {
			c.Set("uid", uid)
		}
		c.Next()
	}
}
