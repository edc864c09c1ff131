package knowledge

// VectorDimension is the embedding width stored in the documents table.
// Gemini embedders are truncated to this width via GeminiEmbedOptions;
// other providers must be paired with a natively 768-wide model.
const VectorDimension = 768

// Chunk is one indexed passage of a source document.
type Chunk struct {
	ID       string // unique identifier, stable across re-indexing
	Text     string // passage content
	Filename string // source document the passage came from
}

// Match is a chunk returned by a similarity query.
type Match struct {
	Chunk
	Score float64 // cosine similarity in [0,1]
}

// Stats summarizes the state of the vector index.
type Stats struct {
	VectorCount   int64   `json:"vectorCount"`
	IndexFullness float64 `json:"indexFullness"`
}
