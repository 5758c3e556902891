// Package identity confirms a webhook's partial identity hints against the
// source shop before any loyalty data is fetched or written.
package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/EpicMarks/epicmarks-loyalty-sync/pkg/shopify"
)

// CustomerDirectory is the read-only slice of the Shopify client the resolver
// needs.
type CustomerDirectory interface {
	CustomerByID(ctx context.Context, id int64) (*shopify.Customer, error)
	SearchCustomerByEmail(ctx context.Context, email string) (*shopify.Customer, error)
}

// Hint carries the partial identity extracted from a webhook payload. Either
// field may be empty; neither is authoritative until resolved.
type Hint struct {
	Email      string
	CustomerID int64
}

// Identity is a confirmed (email, customer id) pair. Email is always non-empty
// and lowercased; CustomerID may be zero when the shop has no matching
// customer record.
type Identity struct {
	Email      string
	CustomerID int64
}

// MissingError reports that no usable identity could be derived from the
// webhook payload. It carries the topic for diagnostics.
type MissingError struct {
	Topic string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("no customer email or id resolvable for topic %q", e.Topic)
}

// Resolver fills in whichever half of the identity the webhook left out.
type Resolver struct {
	directory CustomerDirectory
}

func NewResolver(directory CustomerDirectory) *Resolver {
	return &Resolver{directory: directory}
}

// Resolve derives the missing half of the hint via read-only shop lookups.
// Emails are lowercased before any comparison or outbound use so duplicate
// detection stays deterministic regardless of input casing.
func (r *Resolver) Resolve(ctx context.Context, topic string, hint Hint) (Identity, error) {
	email := strings.ToLower(strings.TrimSpace(hint.Email))
	customerID := hint.CustomerID

	if customerID != 0 && email == "" {
		customer, err := r.directory.CustomerByID(ctx, customerID)
		if err != nil && !shopify.IsNotFound(err) {
			return Identity{}, fmt.Errorf("lookup customer %d: %w", customerID, err)
		}
		if customer != nil {
			email = strings.ToLower(strings.TrimSpace(customer.Email))
		}
	}

	if email != "" && customerID == 0 {
		customer, err := r.directory.SearchCustomerByEmail(ctx, email)
		if err != nil {
			return Identity{}, fmt.Errorf("search customer by email: %w", err)
		}
		if customer != nil {
			customerID = customer.ID
		}
	}

	// Email is the reconciliation key; an identity without one is unusable
	// even when a customer id is present.
	if email == "" {
		return Identity{}, &MissingError{Topic: topic}
	}

	return Identity{Email: email, CustomerID: customerID}, nil
}
