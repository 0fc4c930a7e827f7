package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/MHGanainy/mvp-backend-sub001/internal/dto"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// ContextStudentID is the gin context key holding the authenticated student's ID.
	ContextStudentID = "student_id"
	// ContextPrivileged is the gin context key marking privileged (admin/test) callers.
	ContextPrivileged = "privileged"
)

// Auth validates the bearer token and stores the caller's identity in the
// request context. Tokens are HS256 with "student_id" and an optional
// "privileged" claim.
func Auth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Missing bearer token"})
			return
		}

		token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return key, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Invalid or expired token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Invalid token claims"})
			return
		}
		studentID, ok := claims["student_id"].(float64)
		if !ok || studentID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Token is missing a student identity"})
			return
		}

		privileged, _ := claims["privileged"].(bool)
		c.Set(ContextStudentID, uint(studentID))
		c.Set(ContextPrivileged, privileged)
		c.Next()
	}
}

// RequirePrivileged guards admin endpoints. It must run after Auth.
func RequirePrivileged() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(ContextPrivileged) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{Message: "Privileged access required"})
			return
		}
		c.Next()
	}
}

// StudentID reads the authenticated student's ID set by Auth.
func StudentID(c *gin.Context) uint {
	v, _ := c.Get(ContextStudentID)
	id, _ := v.(uint)
	return id
}

// Privileged reports whether the caller carries the privileged claim.
func Privileged(c *gin.Context) bool {
	return c.GetBool(ContextPrivileged)
}
