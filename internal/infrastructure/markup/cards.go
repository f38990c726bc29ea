package markup

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	digitsOnly   = regexp.MustCompile(`^\d+$`)
	cardIDAttr   = regexp.MustCompile(`^c(\d+)$`)
	nonDigit     = regexp.MustCompile(`\D`)
	currencySign = regexp.MustCompile(`₽|руб`)
)

// Attributes tried in order; the first one holding digits wins.
var (
	idAttrs    = []string{"data-nm-id", "data-id"}
	indexAttrs = []string{"data-card-index", "data-card-idx", "data-index"}
)

const lowerPriceSelector = `ins[class*="price__lower-price"], span[class*="price__lower-price"]`

// Cards reads product <article> cards. Cards without a usable id are
// ignored.
func Cards(page string) map[int64]Card {
	out := make(map[int64]Card)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return out
	}

	doc.Find("article").Each(func(_ int, card *goquery.Selection) {
		id, ok := cardID(card)
		if !ok {
			return
		}
		out[id] = Card{
			WalletPrice: cardPrice(card),
			Index:       cardIndex(card),
		}
	})
	return out
}

func cardID(card *goquery.Selection) (int64, bool) {
	raw := ""
	for _, attr := range idAttrs {
		if v, ok := card.Attr(attr); ok && digitsOnly.MatchString(v) {
			raw = v
			break
		}
	}
	if raw == "" {
		if v, ok := card.Attr("id"); ok {
			if m := cardIDAttr.FindStringSubmatch(v); m != nil {
				raw = m[1]
			}
		}
	}
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func cardIndex(card *goquery.Selection) *int {
	for _, attr := range indexAttrs {
		v, ok := card.Attr(attr)
		if !ok || !digitsOnly.MatchString(v) {
			continue
		}
		idx, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		return &idx
	}
	return nil
}

// cardPrice prefers the lower-price block and otherwise takes the first
// price-classed element showing a currency sign.
func cardPrice(card *goquery.Selection) *int64 {
	if lower := card.Find(lowerPriceSelector).First(); lower.Length() > 0 {
		return digitsPrice(lower.Text())
	}

	var price *int64
	card.Find(`[class*="price"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		loc := currencySign.FindStringIndex(text)
		if loc == nil {
			return true
		}
		price = digitsPrice(text[:loc[0]])
		return false
	})
	return price
}

func digitsPrice(text string) *int64 {
	digits := nonDigit.ReplaceAllString(text, "")
	if digits == "" {
		return nil
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}
