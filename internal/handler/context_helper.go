package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-api/internal/middleware"
	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// subjectUserID resolves whose records a request targets. Students may only
// target themselves; other roles must name the user unless fallbackToSelf is set.
func subjectUserID(c *gin.Context, requested string, fallbackToSelf bool) (string, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return "", appErrors.ErrUnauthorized
	}
	requested = strings.TrimSpace(requested)
	if claims.Role == models.RoleStudent {
		if requested != "" && requested != claims.UserID {
			return "", appErrors.Clone(appErrors.ErrForbidden, "students may only access their own records")
		}
		return claims.UserID, nil
	}
	if requested == "" {
		if fallbackToSelf {
			return claims.UserID, nil
		}
		return "", appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}
	return requested, nil
}
