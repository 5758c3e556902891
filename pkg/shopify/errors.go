package shopify

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a non-2xx response from the Admin API.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("shopify request failed with status %d: %s", e.StatusCode, e.Body)
}

// IsNotFound checks if the error represents a 404 Not Found response.
func IsNotFound(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}
