package markup

import (
	"regexp"
	"strconv"
)

var (
	stateBlob = regexp.MustCompile(`(?is)window\.__WBSTATE__\s*=\s*(\{.*?\})\s*;<`)
	// The blob is not reliably JSON, so ids and prices are paired by
	// proximity instead of being decoded.
	statePair  = regexp.MustCompile(`(?is)(?:"nm"|"id")\s*:\s*(\d+).*?(?:"promoPriceU"|"salePriceU"|"priceU"|"basic"|"total")\s*:\s*(\d+)`)
	stateIndex = regexp.MustCompile(`"index"\s*:\s*(\d+)`)
)

// EmbeddedState scans the window.__WBSTATE__ script for id/price pairs.
// Prices arrive in minor units and are returned in major units. Repeated
// ids keep their lowest price and first index.
func EmbeddedState(page string) map[int64]Card {
	out := make(map[int64]Card)

	m := stateBlob.FindStringSubmatch(page)
	if m == nil {
		return out
	}
	blob := m[1]

	for _, loc := range statePair.FindAllStringSubmatchIndex(blob, -1) {
		id, err := strconv.ParseInt(blob[loc[2]:loc[3]], 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		priceU, err := strconv.ParseInt(blob[loc[4]:loc[5]], 10, 64)
		if err != nil {
			continue
		}

		var price *int64
		if priceU > 0 {
			p := priceU / 100
			price = &p
		}

		var index *int
		if im := stateIndex.FindStringSubmatch(blob[loc[0]:loc[1]]); im != nil {
			if v, err := strconv.Atoi(im[1]); err == nil {
				index = &v
			}
		}

		cur, seen := out[id]
		if !seen {
			out[id] = Card{WalletPrice: price, Index: index}
			continue
		}
		if price != nil && (cur.WalletPrice == nil || *price < *cur.WalletPrice) {
			cur.WalletPrice = price
		}
		if cur.Index == nil {
			cur.Index = index
		}
		out[id] = cur
	}
	return out
}
