package domain

// Document types stored in the vector index
const (
	DocTypeProduct = "product"
	DocTypeInfo    = "info"
)

// Metadata keys stored with every indexed document
const (
	MetaKeyType        = "type"
	MetaKeyProductID   = "product_id"
	MetaKeyTitle       = "title"
	MetaKeyPrice       = "price"
	MetaKeyCategory    = "category"
	MetaKeyImage       = "image"
	MetaKeyTopic       = "topic"
	MetaKeyAnswer      = "answer"
	MetaKeyContentType = "content_type"
)

// RetrievalFilter narrows a similarity search by metadata. Empty fields are not applied.
type RetrievalFilter struct {
	Type  string `json:"type,omitempty"`
	Topic string `json:"topic,omitempty"`
}

// RetrievalHit is one similarity search result
type RetrievalHit struct {
	Document string            `json:"document"`
	Metadata map[string]string `json:"metadata"`
	Rank     int               `json:"rank"`
	Score    float32           `json:"score"`
}

// Type returns the document type from metadata
func (h RetrievalHit) Type() string {
	return h.Metadata[MetaKeyType]
}

// IndexDocument is a document ready to be embedded and stored
type IndexDocument struct {
	Key      string
	Text     string
	Metadata map[string]string
}
