package domain

// Page is the extracted text of one PDF page (1-based number).
type Page struct {
	Number int
	Text   string
}

// Chunk is a passage of a processed document, the unit of embedding and retrieval.
type Chunk struct {
	ID       string
	Document string
	Page     int
	Position int
	Text     string
}

// ScoredChunk is a retrieval hit; higher Score means more similar.
type ScoredChunk struct {
	Chunk
	Score float64
}
