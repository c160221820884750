package models

// Department labels form a small closed set shared by the corpus,
// the router and the cache.
const (
	DepartmentFinance  = "Finance"
	DepartmentGeneral  = "General"
	DepartmentHR       = "HR"
	DepartmentIT       = "IT"
	DepartmentSecurity = "Security"
)

// Departments lists all labels in canonical (classifier) order.
var Departments = []string{
	DepartmentFinance,
	DepartmentGeneral,
	DepartmentHR,
	DepartmentIT,
	DepartmentSecurity,
}

// DocumentChunk is a bounded slice of a source policy document.
// Chunks are created at ingestion time and never mutated by queries.
type DocumentChunk struct {
	ChunkID    string    `json:"chunk_id" bson:"chunk_id"`
	Text       string    `json:"text" bson:"text"`
	Department string    `json:"department" bson:"department"`
	Source     string    `json:"source" bson:"source"`
	Section    string    `json:"section,omitempty" bson:"section,omitempty"`
	Order      int       `json:"order" bson:"order"`
	CharCount  int       `json:"char_count" bson:"char_count"`
	WordCount  int       `json:"word_count" bson:"word_count"`
	Embedding  []float32 `json:"embedding,omitempty" bson:"embedding,omitempty"`

	// Ordinal is the chunk's position in corpus insertion order,
	// assigned when the corpus is loaded. Used for deterministic
	// tie-breaking in ranking.
	Ordinal int `json:"-" bson:"-"`
}

// RetrievalResult is one scored chunk reference produced by rank
// fusion. It lives only for the duration of a single request.
type RetrievalResult struct {
	Chunk         *DocumentChunk
	SparseScore   float64
	DenseScore    float64
	CombinedScore float64
	Rank          int
}

// SourceRef identifies a document/section an answer is grounded in.
type SourceRef struct {
	Document   string `json:"document" bson:"document"`
	Section    string `json:"section,omitempty" bson:"section,omitempty"`
	Department string `json:"department,omitempty" bson:"department,omitempty"`
}
