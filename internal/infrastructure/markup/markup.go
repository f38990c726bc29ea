// Package markup extracts per-product metadata from rendered search pages.
//
// Two independent strategies read the same page: Cards walks the product
// card markup, EmbeddedState scans the inline state script. Merge combines
// them with card values taking precedence. Neither strategy is a contract
// with the site; both return whatever they can find.
package markup

// Card is the partial metadata one strategy found for a product.
type Card struct {
	// WalletPrice is in major currency units.
	WalletPrice *int64
	Index       *int
}

func (c Card) complete() bool {
	return c.WalletPrice != nil && c.Index != nil
}

// Extract runs the card strategy and falls back to the embedded state when
// cards are missing or incomplete.
func Extract(page string) map[int64]Card {
	cards := Cards(page)
	if !needsEmbedded(cards) {
		return cards
	}
	return Merge(cards, EmbeddedState(page))
}

func needsEmbedded(cards map[int64]Card) bool {
	if len(cards) == 0 {
		return true
	}
	for _, c := range cards {
		if !c.complete() {
			return true
		}
	}
	return false
}

// Merge fills the gaps of primary from secondary and adds products only
// secondary knows. Non-nil primary fields are never overwritten. primary is
// modified and returned.
func Merge(primary, secondary map[int64]Card) map[int64]Card {
	if primary == nil {
		primary = make(map[int64]Card, len(secondary))
	}
	for id, extra := range secondary {
		cur, ok := primary[id]
		if !ok {
			primary[id] = extra
			continue
		}
		if cur.WalletPrice == nil {
			cur.WalletPrice = extra.WalletPrice
		}
		if cur.Index == nil {
			cur.Index = extra.Index
		}
		primary[id] = cur
	}
	return primary
}
