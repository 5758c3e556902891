// Package shopify dispatches inbound Shopify webhook events through the
// loyalty sync pipeline: classify, resolve identity, fetch loyalty data,
// normalize, reconcile against the CRM.
package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/EpicMarks/epicmarks-loyalty-sync/internal/crm"
	"github.com/EpicMarks/epicmarks-loyalty-sync/internal/identity"
	"github.com/EpicMarks/epicmarks-loyalty-sync/internal/loyalty"
)

const (
	// TopicHeader names the webhook event family.
	TopicHeader = "X-Shopify-Topic"

	maxPayloadBytes = 1 << 20
)

type identityResolver interface {
	Resolve(ctx context.Context, topic string, hint identity.Hint) (identity.Identity, error)
}

type loyaltyFetcher interface {
	Fetch(ctx context.Context, customerID int64, email string) (loyalty.Result, error)
}

type contactReconciler interface {
	Reconcile(ctx context.Context, email string, properties map[string]string) (crm.Result, error)
}

// Handler sequences the sync pipeline for one webhook request.
type Handler struct {
	resolver    identityResolver
	fetcher     loyaltyFetcher
	reconciler  contactReconciler
	secret      string
	allowBypass bool
	log         *slog.Logger
}

// NewHandler constructs the dispatcher. An empty secret disables signature
// verification; allowBypass honors the ?skip_verification flag and must only
// be set outside production.
func NewHandler(resolver identityResolver, fetcher loyaltyFetcher, reconciler contactReconciler, secret string, allowBypass bool, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		resolver:    resolver,
		fetcher:     fetcher,
		reconciler:  reconciler,
		secret:      secret,
		allowBypass: allowBypass,
		log:         log,
	}
}

// Handle processes one webhook request end to end. Non-POST requests get a
// plain-text liveness ack so senders probing the endpoint never see an error.
func (h *Handler) Handle(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return c.String(http.StatusOK, "ok")
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxPayloadBytes))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}

	if h.secret != "" && !h.verificationSkipped(c) {
		if !VerifySignature(h.secret, body, c.Request().Header.Get(SignatureHeader)) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid webhook signature"})
		}
	}

	topic := strings.TrimSpace(c.Request().Header.Get(TopicHeader))
	hint, recognized, err := extractHint(topic, body)
	if !recognized {
		return c.JSON(http.StatusOK, echo.Map{"ignored": true, "topic": topic})
	}
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "topic": topic})
	}

	ctx := c.Request().Context()

	id, err := h.resolver.Resolve(ctx, topic, hint)
	if err != nil {
		var missing *identity.MissingError
		if errors.As(err, &missing) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": missing.Error(), "topic": topic})
		}
		return h.fail(c, topic, "resolve identity", err)
	}

	fetched, err := h.fetcher.Fetch(ctx, id.CustomerID, id.Email)
	if err != nil {
		return h.fail(c, topic, "fetch loyalty record", err)
	}

	profile := loyalty.Normalize(fetched.Raw)

	result, err := h.reconciler.Reconcile(ctx, id.Email, crm.LoyaltyProperties(profile))
	if err != nil {
		return h.fail(c, topic, "reconcile contact", err)
	}

	h.log.Info("webhook synced",
		"topic", topic,
		"email", id.Email,
		"outcome", string(result.Outcome),
		"contacts", result.ContactIDs,
	)

	response := echo.Map{
		"ok":      true,
		"email":   id.Email,
		"topic":   topic,
		"loyalty": profile,
	}
	switch result.Outcome {
	case crm.OutcomeCreated:
		response["created"] = result.ContactIDs[0]
	case crm.OutcomeUpdated:
		response["updated"] = result.ContactIDs[0]
		if len(result.Duplicates) > 0 {
			response["duplicates"] = result.Duplicates
		}
	case crm.OutcomeDuplicatesUpdated:
		response["duplicatesUpdated"] = result.ContactIDs
	}
	if isTruthyFlag(c.QueryParam("debug")) {
		response["debug"] = echo.Map{
			"customerIdUsed": fetched.CustomerID,
			"found":          fetched.Found,
			"raw":            fetched.Raw,
		}
	}
	return c.JSON(http.StatusOK, response)
}

func (h *Handler) fail(c echo.Context, topic, stage string, err error) error {
	h.log.Error("webhook sync failed", "topic", topic, "stage", stage, "error", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
}

func (h *Handler) verificationSkipped(c echo.Context) bool {
	return h.allowBypass && isTruthyFlag(c.QueryParam("skip_verification"))
}

func isTruthyFlag(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

type customerPayload struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type orderPayload struct {
	Email    string          `json:"email"`
	Customer customerPayload `json:"customer"`
}

// extractHint pulls the identity hints out of the payload for the recognized
// topic families. customers/* events carry id and email at the top level;
// orders/* events nest them under customer, with a top-level email fallback.
// A recognized topic with a malformed body reports a parse error so it is not
// mistaken for a payload that simply lacks identity hints.
func extractHint(topic string, body []byte) (identity.Hint, bool, error) {
	switch {
	case strings.HasPrefix(topic, "customers/"):
		var payload customerPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return identity.Hint{}, true, fmt.Errorf("parse customer payload: %w", err)
		}
		return identity.Hint{Email: payload.Email, CustomerID: payload.ID}, true, nil
	case strings.HasPrefix(topic, "orders/"):
		var payload orderPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return identity.Hint{}, true, fmt.Errorf("parse order payload: %w", err)
		}
		email := payload.Customer.Email
		if email == "" {
			email = payload.Email
		}
		return identity.Hint{Email: email, CustomerID: payload.Customer.ID}, true, nil
	default:
		return identity.Hint{}, false, nil
	}
}
