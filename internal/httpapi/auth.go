package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const ownerContextKey = "owner_id"

// bearerAuth validates an HS256 bearer token and stores the token subject as
// the owner id for downstream handlers.
func bearerAuth(signingKey []byte, issuer string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		rawToken, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(rawToken) == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing bearer token"))
			return
		}
		claims := jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(rawToken, &claims, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return signingKey, nil
		}, jwt.WithIssuer(issuer), jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", "invalid token"))
			return
		}
		if strings.TrimSpace(claims.Subject) == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", "token has no subject"))
			return
		}
		ctx.Set(ownerContextKey, claims.Subject)
		ctx.Next()
	}
}

func ownerFromContext(ctx *gin.Context) string {
	value, ok := ctx.Get(ownerContextKey)
	if !ok {
		return ""
	}
	owner, _ := value.(string)
	return owner
}
