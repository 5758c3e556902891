// Package loyalty retrieves a customer's raw loyalty record from the shop's
// metafield storage and normalizes it into a fixed-shape profile.
package loyalty

import (
	"context"
	"fmt"

	"github.com/EpicMarks/epicmarks-loyalty-sync/pkg/shopify"
)

// MetafieldSource is the slice of the Shopify client the fetcher needs.
type MetafieldSource interface {
	CustomerMetafield(ctx context.Context, customerID int64, namespace, key string) (map[string]interface{}, error)
	SearchCustomerByEmail(ctx context.Context, email string) (*shopify.Customer, error)
}

// Result is the outcome of one loyalty fetch. CustomerID reports the id the
// record was actually read from, which may differ from the webhook's id after
// the stale-id fallback. Found=false with an empty Raw map is a valid outcome
// meaning the customer has no loyalty data yet.
type Result struct {
	Found      bool
	CustomerID int64
	Raw        map[string]interface{}
}

// Fetcher reads the loyalty metafield with a single stale-id fallback: when
// the primary fetch reports not-found, the customer id is re-resolved once by
// email search and the fetch retried with the new id. At most one retry,
// keyed on the not-found condition only.
type Fetcher struct {
	source    MetafieldSource
	namespace string
	key       string
}

func NewFetcher(source MetafieldSource, namespace, key string) *Fetcher {
	return &Fetcher{source: source, namespace: namespace, key: key}
}

// Fetch retrieves the raw loyalty record for the customer. Transport failures
// other than not-found are surfaced; not-found after the fallback yields an
// empty result, not an error.
func (f *Fetcher) Fetch(ctx context.Context, customerID int64, email string) (Result, error) {
	if customerID != 0 {
		raw, err := f.source.CustomerMetafield(ctx, customerID, f.namespace, f.key)
		if err == nil {
			return Result{Found: true, CustomerID: customerID, Raw: raw}, nil
		}
		if !shopify.IsNotFound(err) {
			return Result{}, fmt.Errorf("fetch loyalty metafield for customer %d: %w", customerID, err)
		}
	}

	// The webhook's id may point at a stale or merged customer record.
	// Re-resolve by email and retry once.
	if email == "" {
		return Result{CustomerID: customerID, Raw: map[string]interface{}{}}, nil
	}
	customer, err := f.source.SearchCustomerByEmail(ctx, email)
	if err != nil {
		return Result{}, fmt.Errorf("re-resolve customer by email: %w", err)
	}
	if customer == nil || customer.ID == customerID {
		return Result{CustomerID: customerID, Raw: map[string]interface{}{}}, nil
	}

	raw, err := f.source.CustomerMetafield(ctx, customer.ID, f.namespace, f.key)
	if err != nil {
		if shopify.IsNotFound(err) {
			return Result{CustomerID: customer.ID, Raw: map[string]interface{}{}}, nil
		}
		return Result{}, fmt.Errorf("fetch loyalty metafield for re-resolved customer %d: %w", customer.ID, err)
	}
	return Result{Found: true, CustomerID: customer.ID, Raw: raw}, nil
}
