package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/IMPACT-HRIS/IM-Chat/internal/utils"
)

// ClaimsKey is the gin context key holding *utils.Claims for authenticated requests.
const ClaimsKey = "claims"

// TokenCookie is read when neither the Authorization header nor the token query parameter is set.
const TokenCookie = "im_chat_token"

// AuthMiddleware verifies a JWT from the Authorization header, the "token" query
// parameter (browsers cannot set headers on WebSocket upgrades) or the token cookie.
// With required unset, requests without a token pass through anonymously; a
// token that is present but invalid is always rejected.
func AuthMiddleware(secret string, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		token, ok := tokenFromRequest(c)
		if !ok {
			if required {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization is required"})
				c.Abort()
				return
			}
			c.Next()
			return
		}

		claims, err := utils.ParseToken([]byte(secret), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) (string, bool) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" && strings.TrimSpace(parts[1]) != "" {
			return strings.TrimSpace(parts[1]), true
		}
		return "", false
	}
	if token := strings.TrimSpace(c.Query("token")); token != "" {
		return token, true
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil && strings.TrimSpace(cookie) != "" {
		return strings.TrimSpace(cookie), true
	}
	return "", false
}

// Claims returns the verified claims of the request, if any.
func Claims(c *gin.Context) (*utils.Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*utils.Claims)
	return claims, ok
}
