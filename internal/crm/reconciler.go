// Package crm reconciles a customer's loyalty profile against the CRM's
// contact records, tolerating duplicate contacts that share one email.
package crm

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/EpicMarks/epicmarks-loyalty-sync/internal/config"
	"github.com/EpicMarks/epicmarks-loyalty-sync/internal/loyalty"
	"github.com/EpicMarks/epicmarks-loyalty-sync/pkg/hubspot"
)

// ContactStore is the slice of the CRM client the reconciler needs.
type ContactStore interface {
	SearchContactsByEmail(ctx context.Context, email string, limit int) ([]hubspot.Contact, error)
	CreateContact(ctx context.Context, email string) (*hubspot.Contact, error)
	UpdateContactProperties(ctx context.Context, id string, properties map[string]string) error
}

// Outcome classifies a reconciliation.
type Outcome string

const (
	// OutcomeCreated means no contact matched and a new one was created.
	OutcomeCreated Outcome = "created"
	// OutcomeUpdated means a single contact was written.
	OutcomeUpdated Outcome = "updated"
	// OutcomeDuplicatesUpdated means every duplicate contact was written.
	OutcomeDuplicatesUpdated Outcome = "duplicatesUpdated"
)

// Result reports which contacts were written and which duplicates were
// detected but deliberately left untouched.
type Result struct {
	Outcome    Outcome
	ContactIDs []string
	Duplicates []string
}

// Reconciler applies the configured duplicate policy when upserting loyalty
// properties onto contacts.
type Reconciler struct {
	store       ContactStore
	policy      config.DuplicatePolicy
	searchLimit int
}

func NewReconciler(store ContactStore, policy config.DuplicatePolicy, searchLimit int) *Reconciler {
	if searchLimit <= 0 {
		searchLimit = 20
	}
	return &Reconciler{store: store, policy: policy, searchLimit: searchLimit}
}

// Reconcile upserts the properties onto every contact the policy selects.
// The caller supplies an already-lowercased email. Any write failure aborts
// the whole reconciliation; there is no partial success.
func (r *Reconciler) Reconcile(ctx context.Context, email string, properties map[string]string) (Result, error) {
	contacts, err := r.store.SearchContactsByEmail(ctx, email, r.searchLimit)
	if err != nil {
		return Result{}, fmt.Errorf("search contacts: %w", err)
	}

	switch {
	case len(contacts) == 0:
		contact, err := r.store.CreateContact(ctx, email)
		if err != nil {
			return Result{}, fmt.Errorf("create contact: %w", err)
		}
		if err := r.store.UpdateContactProperties(ctx, contact.ID, properties); err != nil {
			return Result{}, fmt.Errorf("update created contact %s: %w", contact.ID, err)
		}
		return Result{Outcome: OutcomeCreated, ContactIDs: []string{contact.ID}}, nil

	case len(contacts) == 1:
		if err := r.store.UpdateContactProperties(ctx, contacts[0].ID, properties); err != nil {
			return Result{}, fmt.Errorf("update contact %s: %w", contacts[0].ID, err)
		}
		return Result{Outcome: OutcomeUpdated, ContactIDs: []string{contacts[0].ID}}, nil
	}

	if r.policy == config.UpdateNewestOnly {
		// Search results are newest first; only the head is written.
		newest := contacts[0]
		if err := r.store.UpdateContactProperties(ctx, newest.ID, properties); err != nil {
			return Result{}, fmt.Errorf("update contact %s: %w", newest.ID, err)
		}
		duplicates := make([]string, 0, len(contacts)-1)
		for _, contact := range contacts[1:] {
			duplicates = append(duplicates, contact.ID)
		}
		return Result{Outcome: OutcomeUpdated, ContactIDs: []string{newest.ID}, Duplicates: duplicates}, nil
	}

	// update-all: fan the writes out concurrently and fail the group on the
	// first error.
	g, gctx := errgroup.WithContext(ctx)
	ids := make([]string, len(contacts))
	for i, contact := range contacts {
		contact := contact
		ids[i] = contact.ID
		g.Go(func() error {
			if err := r.store.UpdateContactProperties(gctx, contact.ID, properties); err != nil {
				return fmt.Errorf("update contact %s: %w", contact.ID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return Result{Outcome: OutcomeDuplicatesUpdated, ContactIDs: ids}, nil
}

// LoyaltyProperties maps a normalized profile onto the CRM's loyalty contact
// properties. Only these properties are ever written.
func LoyaltyProperties(profile loyalty.Profile) map[string]string {
	return map[string]string{
		"loyalty_enabled":       strconv.FormatBool(profile.Enabled),
		"loyalty_points":        strconv.Itoa(profile.Points),
		"loyalty_referral_link": profile.ReferralLink,
		"loyalty_vip_tier":      profile.VIPTier,
	}
}
