package transport

// SearchRequest is bound from the /search query string. Limit and sort are
// normalized by the service rather than rejected.
type SearchRequest struct {
	Query    string `form:"q"`
	Category string `form:"category" validate:"omitempty,uuid"`
	MinPrice *int64 `form:"min_price" validate:"omitempty,min=0"`
	MaxPrice *int64 `form:"max_price" validate:"omitempty,min=0"`
	Sort     string `form:"sort"`
	Cursor   string `form:"cursor"`
	Limit    int    `form:"limit"`
}

type SearchResultItem struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Slug     string   `json:"slug"`
	Price    int64    `json:"price"` // minor units
	ImageURL string   `json:"imageUrl,omitempty"`
	Excerpt  string   `json:"excerpt"`
	Score    float64  `json:"score"`
	Brand    string   `json:"brand,omitempty"`
	Tags     []string `json:"tags"`
	SKU      string   `json:"sku,omitempty"`
}

type SearchResponse struct {
	Items      []SearchResultItem `json:"items"`
	NextCursor *string            `json:"nextCursor,omitempty"`
}

type SuggestRequest struct {
	Query string `form:"q"`
	Limit int    `form:"limit"`
}

// HighlightSpan is a half-open rune range [Start, End) into the title.
type HighlightSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type Suggestion struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Slug      string         `json:"slug"`
	Price     int64          `json:"price"`
	ImageURL  string         `json:"imageUrl,omitempty"`
	Highlight *HighlightSpan `json:"highlight,omitempty"`
}

type FacetsRequest struct {
	Query string `form:"q"`
}

type CategoryFacet struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProductCount int64  `json:"productCount"`
}

type PriceRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
	Avg int64 `json:"avg"`
}

type FacetsResponse struct {
	Categories []CategoryFacet `json:"categories"`
	PriceRange PriceRange      `json:"priceRange"`
}

type HealthResponse struct {
	Status  string   `json:"status"`
	Missing []string `json:"missing,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}

type ReindexResponse struct {
	UpdatedCount int64 `json:"updatedCount"`
	DurationMs   int64 `json:"durationMs"`
}
