package domain

import "encoding/json"

// SearchItem is one product row returned by the catalog search API.
// Rating, review and price signals are kept raw; the source moves them
// between fields and encodings, and reconciliation decides which one wins.
type SearchItem struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Brand     string `json:"brand,omitempty"`
	BrandName string `json:"brandName,omitempty"`

	ReviewRating   json.RawMessage `json:"reviewRating,omitempty"`
	Rating         json.RawMessage `json:"rating,omitempty"`
	SupplierRating json.RawMessage `json:"supplierRating,omitempty"`

	Feedbacks     json.RawMessage `json:"feedbacks,omitempty"`
	FeedbackCount json.RawMessage `json:"feedbackCount,omitempty"`

	// Prices in minor currency units (kopecks).
	PromoPriceU json.RawMessage `json:"promoPriceU,omitempty"`
	SalePriceU  json.RawMessage `json:"salePriceU,omitempty"`
	PriceU      json.RawMessage `json:"priceU,omitempty"`
}

// SearchResult is one decoded search page. Raw counts every product the
// response listed, including ones dropped for lacking a usable id.
type SearchResult struct {
	Items []SearchItem
	Raw   int
}

// DetailRecord is the stock and price summary for one product taken from
// the card detail API.
type DetailRecord struct {
	ID    int64
	Stock int
	// Price is in major units; nil when no positive candidate was present.
	Price *int64
}

// HTMLMeta is what the rendered search page tells us about a product.
type HTMLMeta struct {
	ID          int64  `json:"id"`
	WalletPrice *int64 `json:"walletPrice,omitempty"`
	Index       *int   `json:"index,omitempty"`
	Page        int    `json:"page"`
}

// Product is the reconciled output record.
type Product struct {
	NmID        int64   `json:"nm_id"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand,omitempty"`
	PriceAPI    int64   `json:"price_api"`
	PriceWallet *int64  `json:"price_wallet"`
	PriceFinal  int64   `json:"price_final"`
	Rating      float64 `json:"rating"`
	ReviewCount int64   `json:"review_count"`
	Stock       int     `json:"stock"`
	CardIndex   *int    `json:"data_card_index"`
	Page        *int    `json:"page"`
}

// StoredProduct is a persisted product row as exposed by the read API.
type StoredProduct struct {
	ID          int64   `json:"id"`
	NmID        int64   `json:"nm_id"`
	Name        string  `json:"name"`
	Price       int64   `json:"price"`
	Rating      float64 `json:"rating"`
	ReviewCount int64   `json:"review_count"`
	Stock       int     `json:"stock"`
}

// ParseRequest describes one pipeline run. Zero Limit or MaxPages means
// no bound.
type ParseRequest struct {
	Query    string
	Limit    int
	MaxPages int
}

// ParseResult summarizes one parse-and-store run.
type ParseResult struct {
	InsertedOrUpdated int    `json:"inserted_or_updated"`
	TotalFetched      int    `json:"total_fetched"`
	Query             string `json:"query"`
}
