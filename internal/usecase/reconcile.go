package usecase

import (
	"encoding/json"
	"math"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/wbparse/backend/internal/domain"
)

// Reconcile joins search items with detail and page metadata into output
// products ordered by page then card index, missing values last. Items
// keep their discovery order on ties.
func Reconcile(items []domain.SearchItem, stock map[int64]int, detailPrice map[int64]int64, meta map[int64]domain.HTMLMeta) []domain.Product {
	out := make([]domain.Product, 0, len(items))
	for _, it := range items {
		if it.ID <= 0 {
			continue
		}

		priceAPI := apiPrice(it)
		if dp, ok := detailPrice[it.ID]; ok {
			if priceAPI > 0 {
				priceAPI = min(priceAPI, dp)
			} else {
				priceAPI = dp
			}
		}
		priceAPI = max(priceAPI, 0)

		p := domain.Product{
			NmID:        it.ID,
			Name:        normalizeName(it.Name),
			Brand:       firstNonEmpty(it.Brand, it.BrandName),
			PriceAPI:    priceAPI,
			PriceFinal:  priceAPI,
			Rating:      rating(it),
			ReviewCount: max(firstNonZero(it.Feedbacks, it.FeedbackCount), 0),
			Stock:       stock[it.ID],
		}

		if m, ok := meta[it.ID]; ok {
			p.PriceWallet = m.WalletPrice
			p.CardIndex = m.Index
			page := m.Page
			p.Page = &page
			if m.WalletPrice != nil && *m.WalletPrice > 0 {
				p.PriceFinal = *m.WalletPrice
			}
		}

		out = append(out, p)
	}

	slices.SortStableFunc(out, compareProducts)
	return out
}

func compareProducts(a, b domain.Product) int {
	if c := compareOptional(a.Page, b.Page); c != 0 {
		return c
	}
	return compareOptional(a.CardIndex, b.CardIndex)
}

// compareOptional orders present values ascending before absent ones.
func compareOptional(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}

// rating reads the first present rating field. Values above 5 are on a
// 0-50 scale.
func rating(it domain.SearchItem) float64 {
	var raw json.RawMessage
	for _, candidate := range []json.RawMessage{it.ReviewRating, it.Rating, it.SupplierRating} {
		if !domain.IsNull(candidate) {
			raw = candidate
			break
		}
	}
	if raw == nil {
		return 0
	}

	v, ok := domain.RawNumber(raw)
	if !ok {
		return 0
	}
	if v > 5 {
		v /= 10
	}
	v = math.RoundToEven(v*10) / 10
	return math.Min(math.Max(v, 0), 5)
}

// apiPrice is the first non-zero search price, in major units.
func apiPrice(it domain.SearchItem) int64 {
	minor := firstNonZero(it.PromoPriceU, it.SalePriceU, it.PriceU)
	if minor <= 0 {
		return 0
	}
	return minor / 100
}

// firstNonZero returns the first field holding a non-zero number.
// Fractions are truncated.
func firstNonZero(fields ...json.RawMessage) int64 {
	for _, raw := range fields {
		v, ok := domain.RawNumber(raw)
		if !ok || v == 0 {
			continue
		}
		return int64(v)
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func normalizeName(name string) string {
	return strings.TrimSpace(norm.NFC.String(name))
}
