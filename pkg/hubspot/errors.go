package hubspot

import "fmt"

// Error represents a non-2xx response from the CRM API.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("crm request failed with status %d: %s", e.StatusCode, e.Body)
}
