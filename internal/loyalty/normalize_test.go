package loyalty

import "testing"

func TestNormalizeDefaultsForEmptyRecord(t *testing.T) {
	t.Parallel()

	profile := Normalize(map[string]interface{}{})

	if profile.Enabled {
		t.Fatal("empty record must not be enabled")
	}
	if profile.Points != 0 || profile.ReferralLink != "" || profile.VIPTier != "" {
		t.Fatalf("expected zero defaults, got %+v", profile)
	}
}

func TestNormalizePresenceImpliesMembership(t *testing.T) {
	t.Parallel()

	profile := Normalize(map[string]interface{}{"points": float64(10)})
	if !profile.Enabled {
		t.Fatal("non-empty record without explicit flag must be enabled")
	}
}

func TestNormalizeEnabledCoercion(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		value interface{}
		want  bool
	}{
		{"bool true", true, true},
		{"string true", "true", true},
		{"number one", float64(1), true},
		{"string one", "1", true},
		{"bool false", false, false},
		{"string false", "false", false},
		{"number zero", float64(0), false},
		{"garbage", "yes please", false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			profile := Normalize(map[string]interface{}{"enabled": tc.value})
			if profile.Enabled != tc.want {
				t.Fatalf("enabled=%v: got %v, want %v", tc.value, profile.Enabled, tc.want)
			}
		})
	}
}

func TestNormalizePoints(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  map[string]interface{}
		want int
	}{
		{"number", map[string]interface{}{"points": float64(42)}, 42},
		{"thousands separator", map[string]interface{}{"points": "1,234"}, 1234},
		{"unparseable string", map[string]interface{}{"points": "abc"}, 0},
		{"nil value", map[string]interface{}{"points": nil}, 0},
		{"absent", map[string]interface{}{"referral_link": "x"}, 0},
		{"derived from approved minus spent", map[string]interface{}{
			"points_approved": float64(500),
			"points_spent":    float64(120),
		}, 380},
		{"derivation needs both legs", map[string]interface{}{
			"points_approved": float64(500),
		}, 0},
		{"alias beats derivation", map[string]interface{}{
			"points_balance":  float64(7),
			"points_approved": float64(500),
			"points_spent":    float64(120),
		}, 7},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			profile := Normalize(tc.raw)
			if profile.Points != tc.want {
				t.Fatalf("got %d points, want %d", profile.Points, tc.want)
			}
		})
	}
}

func TestNormalizeAliasPrecedence(t *testing.T) {
	t.Parallel()

	profile := Normalize(map[string]interface{}{
		"points_balance": float64(100),
		"points":         float64(999),
		"loyalty_points": float64(1),
	})
	if profile.Points != 100 {
		t.Fatalf("current alias must win, got %d", profile.Points)
	}

	profile = Normalize(map[string]interface{}{
		"vip_tier": "gold",
		"tier":     "bronze",
	})
	if profile.VIPTier != "gold" {
		t.Fatalf("current tier alias must win, got %q", profile.VIPTier)
	}
}

func TestNormalizeReferralAndTierDefaults(t *testing.T) {
	t.Parallel()

	profile := Normalize(map[string]interface{}{
		"referral_url": "https://shop.example/ref/abc",
		"loyalty_tier": "silver",
	})
	if profile.ReferralLink != "https://shop.example/ref/abc" {
		t.Fatalf("unexpected referral link %q", profile.ReferralLink)
	}
	if profile.VIPTier != "silver" {
		t.Fatalf("unexpected tier %q", profile.VIPTier)
	}

	// Non-string values fall back to the empty default.
	profile = Normalize(map[string]interface{}{"referral_link": float64(5)})
	if profile.ReferralLink != "" {
		t.Fatalf("expected empty referral link, got %q", profile.ReferralLink)
	}
}
