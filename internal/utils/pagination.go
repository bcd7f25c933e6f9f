package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

// Pagination carries the normalized page window for list queries.
type Pagination struct {
	Page   int
	Limit  int
	Offset int
}

// ParsePagination normalizes the page and limit query params. Out-of-range
// values fall back to the defaults, and limit is capped at maxLimit.
func ParsePagination(c *fiber.Ctx) Pagination {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = defaultPage
	}

	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return Pagination{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}
