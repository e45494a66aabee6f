package domain

import "time"

// RetrievalOptions configures a retrieval request
type RetrievalOptions struct {
	TopK int `json:"top_k"`
}

// DefaultRetrievalOptions returns sensible defaults
func DefaultRetrievalOptions() RetrievalOptions {
	return RetrievalOptions{
		TopK: 3,
	}
}

// RetrievedChunk is a chunk returned from the vector index together with its
// similarity score against the query embedding
type RetrievedChunk struct {
	Chunk    *Chunk    `json:"chunk"`
	Document *Document `json:"document,omitempty"`
	Score    float64   `json:"score"`
}

// Retrieval represents the result of a k-nearest-neighbour query,
// ordered by descending score
type Retrieval struct {
	Query   string            `json:"query"`
	Results []*RetrievedChunk `json:"results"`
	Took    time.Duration     `json:"took" swaggertype:"integer" example:"1500000"`
}

// Answer is a generated response grounded in retrieved context
type Answer struct {
	Question  string     `json:"question"`
	Text      string     `json:"text"`
	Retrieval *Retrieval `json:"retrieval,omitempty"`
	Model     string     `json:"model,omitempty"`
	Took      time.Duration `json:"took" swaggertype:"integer" example:"1500000"`
}
