package models

// ArticleContent holds the cleaned body text and representative image of a news page
type ArticleContent struct {
	Content  string  `json:"content"`
	ImageURL *string `json:"image_url"`
}

// Article is a news item enriched with its extracted content
type Article struct {
	Title     string         `json:"title"`
	Publisher string         `json:"publisher"`
	Link      string         `json:"link"`
	Published string         `json:"published"`
	Content   ArticleContent `json:"content"`
}

// NewsItem is the raw news metadata returned by the market-data provider search.
// Pointer fields are nil when the provider omitted them.
type NewsItem struct {
	Title               *string `json:"title,omitempty"`
	Publisher           *string `json:"publisher,omitempty"`
	Link                *string `json:"link,omitempty"`
	ProviderPublishTime int64   `json:"providerPublishTime"`
}
