package domain

import (
	"encoding/json"
	"fmt"
)

// Tier is the access level of an assessment, unlocked by payment. Levels are
// ordered and monotonically non-decreasing over an assessment's life: the
// store only ever applies strictly-higher upgrades.
//
// The integer backing makes the monotonic guard a single SQL comparison
// (tier < ?); the wire form is the string enum ("tier1".."tier3").
type Tier int

const (
	Tier1 Tier = 1
	Tier2 Tier = 2
	Tier3 Tier = 3
)

// Valid reports whether t is one of the defined tiers.
func (t Tier) Valid() bool { return t >= Tier1 && t <= Tier3 }

// String returns the wire form, e.g. "tier2".
func (t Tier) String() string {
	if !t.Valid() {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return fmt.Sprintf("tier%d", int(t))
}

// MarshalJSON encodes the tier as its string enum.
func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts the string enum form.
func (t *Tier) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTier converts the string enum to a Tier.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "tier1":
		return Tier1, nil
	case "tier2":
		return Tier2, nil
	case "tier3":
		return Tier3, nil
	}
	return 0, fmt.Errorf("unknown tier %q", s)
}
