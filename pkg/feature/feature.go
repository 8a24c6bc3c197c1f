package feature

import (
	"slices"
	"strings"
)

// Key identifies an optional product feature that a plan can unlock.
type Key string

const (
	Ordering           Key = "ordering"
	Delivery           Key = "delivery"
	MultiWhatsApp      Key = "multiwhatsapp"
	POS                Key = "pos"
	StockManagement    Key = "stockmanagement"
	CaptainOrdering    Key = "captainordering"
	PurchaseManagement Key = "purchasemanagement"
)

// canonical is the fixed token order of the flags string. Changing it breaks every stored
// partner record, so new keys may only be appended.
var canonical = []Key{
	Ordering,
	Delivery,
	MultiWhatsApp,
	POS,
	StockManagement,
	CaptainOrdering,
	PurchaseManagement,
}

const (
	tokenSeparator = ","
	enabledSuffix  = "-true"
	disabledSuffix = "-false"
)

// Keys returns the canonical feature keys in flags-string order.
func Keys() []Key {
	return slices.Clone(canonical)
}

// ParseKey converts a raw name into a canonical Key.
func ParseKey(name string) (Key, error) {
	k := Key(strings.ToLower(strings.TrimSpace(name)))
	if !slices.Contains(canonical, k) {
		return "", ErrUnknownKey
	}
	return k, nil
}

// Derive builds the canonical flags string from a plan's feature map.
func Derive(enabled map[string]bool) string {
	var b strings.Builder
	for i, k := range canonical {
		if i > 0 {
			b.WriteString(tokenSeparator)
		}
		b.WriteString(string(k))
		// Missing keys read as false from a nil or partial map.
		if enabled[string(k)] {
			b.WriteString(enabledSuffix)
		} else {
			b.WriteString(disabledSuffix)
		}
	}
	return b.String()
}

// Set is the decoded form of a flags string.
type Set map[Key]bool

// Parse decodes a flags string produced by Derive.
func Parse(flags string) Set {
	set := make(Set, len(canonical))
	for _, k := range canonical {
		set[k] = false
	}

	for token := range strings.SplitSeq(flags, tokenSeparator) {
		token = strings.TrimSpace(token)
		switch {
		case strings.HasSuffix(token, enabledSuffix):
			if k, err := ParseKey(strings.TrimSuffix(token, enabledSuffix)); err == nil {
				set[k] = true
			}
		case strings.HasSuffix(token, disabledSuffix):
			if k, err := ParseKey(strings.TrimSuffix(token, disabledSuffix)); err == nil {
				set[k] = false
			}
		}
	}

	return set
}

// Enabled reports whether the feature is unlocked.
func (s Set) Enabled(k Key) bool {
	return s[k]
}

// String re-encodes the set in canonical order.
func (s Set) String() string {
	m := make(map[string]bool, len(s))
	for k, v := range s {
		m[string(k)] = v
	}
	return Derive(m)
}
