package loyalty

import (
	"math"
	"strconv"
	"strings"
)

// Profile is the fixed-shape result of normalizing a raw loyalty record.
// All fields are always populated; zero values are the documented defaults.
type Profile struct {
	Enabled      bool   `json:"enabled"`
	Points       int    `json:"points"`
	ReferralLink string `json:"referralLink"`
	VIPTier      string `json:"vipTier"`
}

// Alias tables, current naming first. When several aliases are present at once
// the earliest one wins, so precedence stays auditable.
var (
	enabledAliases  = []string{"enabled", "loyalty_enabled", "is_enrolled"}
	pointsAliases   = []string{"points_balance", "points", "loyalty_points", "rewards_balance"}
	referralAliases = []string{"referral_link", "referral_url", "referral"}
	tierAliases     = []string{"vip_tier", "loyalty_tier", "tier"}
)

// Keys for deriving a balance when no points alias is set.
const (
	pointsApprovedKey = "points_approved"
	pointsSpentKey    = "points_spent"
)

// Normalize converts a raw loyalty record into a Profile. It is pure and
// total: it never fails and every field gets a deterministic default when the
// record lacks it.
func Normalize(raw map[string]interface{}) Profile {
	return Profile{
		Enabled:      normalizeEnabled(raw),
		Points:       normalizePoints(raw),
		ReferralLink: firstString(raw, referralAliases),
		VIPTier:      firstString(raw, tierAliases),
	}
}

func normalizeEnabled(raw map[string]interface{}) bool {
	if value, ok := firstDefined(raw, enabledAliases); ok {
		return coerceBool(value)
	}
	// No explicit flag: presence of any loyalty data implies membership.
	return len(raw) > 0
}

func normalizePoints(raw map[string]interface{}) int {
	if value, ok := firstDefined(raw, pointsAliases); ok {
		if n, ok := coerceNumber(value); ok {
			return n
		}
		return 0
	}

	approved, okApproved := coerceNumber(raw[pointsApprovedKey])
	spent, okSpent := coerceNumber(raw[pointsSpentKey])
	if okApproved && okSpent {
		return approved - spent
	}
	return 0
}

// firstDefined returns the value of the first alias that is present and
// non-nil.
func firstDefined(raw map[string]interface{}, aliases []string) (interface{}, bool) {
	for _, key := range aliases {
		if value, ok := raw[key]; ok && value != nil {
			return value, true
		}
	}
	return nil, false
}

func firstString(raw map[string]interface{}, aliases []string) string {
	value, ok := firstDefined(raw, aliases)
	if !ok {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}

// coerceBool treats true, "true", 1, and "1" as true and everything else as
// false.
func coerceBool(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		return s == "true" || s == "1"
	case float64:
		return v == 1
	case int:
		return v == 1
	default:
		return false
	}
}

// coerceNumber parses a raw value into an integer point count. Numeric strings
// may carry thousands separators. Non-finite and unparseable values report
// false so callers fall back to the default.
func coerceNumber(value interface{}) (int, bool) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		s := strings.TrimSpace(v)
		s = strings.ReplaceAll(s, ",", "")
		s = strings.ReplaceAll(s, " ", "")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int(f), true
	default:
		return 0, false
	}
}
