package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

// Meta carries response metadata such as counts or the resolved target user.
type Meta map[string]interface{}

// Envelope is the body of every JSON response. Exactly one of Data or Error is set.
type Envelope struct {
	Data  interface{}      `json:"data,omitempty"`
	Error *appErrors.Error `json:"error,omitempty"`
	Meta  Meta             `json:"meta,omitempty"`
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}

// JSON writes data with an optional meta block. Eligibility answers depend on
// live standing, so responses are never cacheable.
func JSON(c *gin.Context, status int, data interface{}, meta Meta) {
	noStore(c)
	c.JSON(status, Envelope{Data: data, Meta: meta})
}

// OK responds with HTTP 200.
func OK(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, data, nil)
}

// Created responds with HTTP 201.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// Error converts err to the typed error contract. Internal failures are
// recorded on the gin context so the request logger sees the wrapped cause,
// which is never serialised.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	noStore(c)
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
