package model

// DocumentChunk is one retrievable segment of an ingested document.
// Rows are immutable after insert and are only removed in bulk by
// (user_id, source).
type DocumentChunk struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Source    string    `json:"source"`
	Chunk     string    `json:"chunk"`
	Embedding []float32 `json:"-"`
}

// SourceInfo summarizes the chunks stored for one uploaded document.
type SourceInfo struct {
	Source     string `json:"source"`
	ChunkCount int64  `json:"chunk_count"`
}
