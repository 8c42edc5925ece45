package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const MaxLimit = 1000

// Query holds parsed continuation parameters.
type Query struct {
	Token string
	// Limit is 0 when the caller did not ask for a page size.
	Limit int
}

// FromContext reads pageToken (or nextKey) and limit from the request.
func FromContext(c *gin.Context) Query {
	token := c.Query("pageToken")
	if token == "" {
		token = c.Query("nextKey")
	}
	limit := parseIntOr(c.Query("limit"), 0)
	if limit < 0 {
		limit = 0
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Query{Token: token, Limit: limit}
}

func parseIntOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}
