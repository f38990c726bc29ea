package wb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/wbparse/backend/internal/domain"
)

// Detail price fields, product level then per size.
var (
	productPriceKeys = []string{"promoPriceU", "salePriceU", "priceU"}
	sizePriceKeys    = []string{"product", "basic", "total"}
)

type searchEnvelope struct {
	Data *struct {
		Products []json.RawMessage `json:"products"`
	} `json:"data"`
}

// DecodeSearchItems decodes a search response. Products that fail to
// decode or carry no positive integer id are skipped but still counted in
// Raw.
func DecodeSearchItems(body []byte) (domain.SearchResult, error) {
	var env searchEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.SearchResult{}, fmt.Errorf("%w: search: %v", domain.ErrMalformedPayload, err)
	}
	if env.Data == nil {
		return domain.SearchResult{}, nil
	}

	items := make([]domain.SearchItem, 0, len(env.Data.Products))
	for _, raw := range env.Data.Products {
		var head struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			continue
		}
		id, ok := domain.RawInt(head.ID)
		if !ok || id <= 0 {
			continue
		}
		var item domain.SearchItem
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	return domain.SearchResult{Items: items, Raw: len(env.Data.Products)}, nil
}

type detailSize struct {
	Stocks []struct {
		Qty json.RawMessage `json:"qty"`
	} `json:"stocks"`
	Price json.RawMessage `json:"price"`
}

// DecodeDetails decodes a card detail response. "data" may be an object
// holding "products" or the product list itself; anything else yields no
// records. Malformed products are skipped.
func DecodeDetails(body []byte) ([]domain.DetailRecord, error) {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: detail: %v", domain.ErrMalformedPayload, err)
	}

	var products []json.RawMessage
	data := bytes.TrimSpace(env.Data)
	switch {
	case len(data) == 0:
	case data[0] == '{':
		var obj struct {
			Products []json.RawMessage `json:"products"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, fmt.Errorf("%w: detail: %v", domain.ErrMalformedPayload, err)
		}
		products = obj.Products
	case data[0] == '[':
		if err := json.Unmarshal(data, &products); err != nil {
			return nil, fmt.Errorf("%w: detail: %v", domain.ErrMalformedPayload, err)
		}
	}

	records := make([]domain.DetailRecord, 0, len(products))
	for _, raw := range products {
		rec, ok := decodeDetailProduct(raw)
		if ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

func decodeDetailProduct(raw json.RawMessage) (domain.DetailRecord, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.DetailRecord{}, false
	}
	id, ok := domain.RawInt(fields["id"])
	if !ok || id <= 0 {
		return domain.DetailRecord{}, false
	}
	var sizes []detailSize
	if !domain.IsNull(fields["sizes"]) {
		if err := json.Unmarshal(fields["sizes"], &sizes); err != nil {
			return domain.DetailRecord{}, false
		}
	}

	var candidates []int64
	for _, key := range productPriceKeys {
		if v, ok := domain.RawInt(fields[key]); ok && v > 0 {
			candidates = append(candidates, v)
		}
	}

	stock := 0
	for _, size := range sizes {
		for _, st := range size.Stocks {
			if qty, ok := domain.RawInt(st.Qty); ok {
				stock += int(qty)
			}
		}
		var price map[string]json.RawMessage
		if json.Unmarshal(size.Price, &price) != nil {
			continue
		}
		for _, key := range sizePriceKeys {
			if v, ok := domain.RawInt(price[key]); ok && v > 0 {
				candidates = append(candidates, v)
			}
		}
	}

	rec := domain.DetailRecord{ID: id, Stock: stock}
	if len(candidates) > 0 {
		major := slices.Min(candidates) / 100
		rec.Price = &major
	}
	return rec, true
}
