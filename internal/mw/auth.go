package mw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are issued by the external identity system.
type Claims struct {
	HotelID    int64  `json:"hotelId"`
	EmployeeID int64  `json:"employeeId"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the caller of a request, resolved from its bearer token.
type Principal struct {
	HotelID    int64
	EmployeeID int64
	Role       string
}

const principalKey = "principal"

func abortProblem(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{
		"title":  http.StatusText(status),
		"detail": detail,
		"status": status,
	})
}

// Auth verifies an HS256 bearer token and stores its Principal in the
// context.
func Auth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(strings.ToLower(auth), "bearer ") {
			abortProblem(c, http.StatusUnauthorized, "missing or invalid authorization header")
			return
		}
		tokenStr := strings.TrimSpace(auth[len("Bearer "):])

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			abortProblem(c, http.StatusUnauthorized, "invalid token")
			return
		}
		if claims.HotelID <= 0 {
			abortProblem(c, http.StatusUnauthorized, "token carries no hotel")
			return
		}

		c.Set(principalKey, Principal{HotelID: claims.HotelID, EmployeeID: claims.EmployeeID, Role: claims.Role})
		c.Next()
	}
}

// PrincipalFrom returns the caller set by Auth.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// RequireRoles lets the request through only for the given roles. admin
// passes every gate.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			abortProblem(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		if _, ok := allowed[p.Role]; !ok && p.Role != "admin" {
			abortProblem(c, http.StatusForbidden, "role "+p.Role+" may not perform this action")
			return
		}
		c.Next()
	}
}
