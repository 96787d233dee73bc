package model

import (
	"fmt"
	"strings"
)

type (
	// AuthToken identifies the signed-in account against the remote API.
	AuthToken struct {
		AccountPk int
		Token     string
	}

	// FilterField is a blog list field the ordered blog query sorts by.
	FilterField string

	// OrderDirection prefixes a FilterField: "" for ascending, "-" for descending.
	OrderDirection string
)

const (
	BlogFilterUsername    FilterField = "username"
	BlogFilterDateUpdated FilterField = "date_updated"

	BlogOrderAsc  OrderDirection = ""
	BlogOrderDesc OrderDirection = "-"

	// DefaultFilterAndOrder is used when no (or an unknown) selector is set.
	DefaultFilterAndOrder = string(BlogOrderDesc) + string(BlogFilterDateUpdated)
)

// Header returns the Authorization header value.
func (t AuthToken) Header() string {
	return "Token " + t.Token
}

// Validate checks the token is usable for an API request.
func (t AuthToken) Validate() error {
	if strings.TrimSpace(t.Token) == "" {
		return fmt.Errorf("%s: empty", "token")
	}

	return nil
}

// FilterAndOrder builds the "ordering" selector shared by the API and the cache query.
func FilterAndOrder(order OrderDirection, filter FilterField) string {
	return string(order) + string(filter)
}

// ParseFilterAndOrder splits the selector, falling back to DefaultFilterAndOrder on unknown input.
func ParseFilterAndOrder(filterAndOrder string) (OrderDirection, FilterField) {
	order := BlogOrderAsc
	raw := strings.TrimSpace(filterAndOrder)
	if strings.HasPrefix(raw, string(BlogOrderDesc)) {
		order = BlogOrderDesc
		raw = strings.TrimPrefix(raw, string(BlogOrderDesc))
	}

	switch filter := FilterField(raw); filter {
	case BlogFilterUsername, BlogFilterDateUpdated:
		return order, filter
	}

	return BlogOrderDesc, BlogFilterDateUpdated
}
