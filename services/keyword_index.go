package services

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"onboarding-copilot/models"
)

var tokenPattern = regexp.MustCompile(`\b\w+\b`)

// Tokenize lowercases the text and splits it into word tokens.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// SparseHit is a BM25 match for a single chunk.
type SparseHit struct {
	Chunk *models.DocumentChunk
	Score float64
}

type indexedDoc struct {
	chunk     *models.DocumentChunk
	termFreqs map[string]int
	length    int
}

// KeywordIndex is an in-memory BM25 (Okapi) index over document
// chunks, partitioned by department. Safe for concurrent searches.
type KeywordIndex struct {
	k1 float64
	b  float64

	mu        sync.RWMutex
	docs      map[string][]*indexedDoc // department -> docs
	docFreqs  map[string]map[string]int
	avgLength map[string]float64
}

func NewKeywordIndex() *KeywordIndex {
	return &KeywordIndex{
		k1:        1.5,
		b:         0.75,
		docs:      make(map[string][]*indexedDoc),
		docFreqs:  make(map[string]map[string]int),
		avgLength: make(map[string]float64),
	}
}

// Add indexes the given chunks under their departments.
func (idx *KeywordIndex) Add(chunks []*models.DocumentChunk) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, chunk := range chunks {
		tokens := Tokenize(chunk.Text)
		freqs := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freqs[tok]++
		}

		dept := chunk.Department
		idx.docs[dept] = append(idx.docs[dept], &indexedDoc{
			chunk:     chunk,
			termFreqs: freqs,
			length:    len(tokens),
		})

		if idx.docFreqs[dept] == nil {
			idx.docFreqs[dept] = make(map[string]int)
		}
		for term := range freqs {
			idx.docFreqs[dept][term]++
		}
	}

	for dept, docs := range idx.docs {
		total := 0
		for _, doc := range docs {
			total += doc.length
		}
		idx.avgLength[dept] = float64(total) / float64(len(docs))
	}
}

// Search scores the department's chunks against the query and returns
// up to k positive-scoring hits, best first. Ties break toward the
// shorter chunk, then toward the earlier corpus ordinal.
func (idx *KeywordIndex) Search(query string, k int, department string) []SparseHit {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	docs := idx.docs[department]
	if len(docs) == 0 || k <= 0 {
		return nil
	}

	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	n := float64(len(docs))
	avgLen := idx.avgLength[department]
	docFreqs := idx.docFreqs[department]

	hits := make([]SparseHit, 0, len(docs))
	for _, doc := range docs {
		score := 0.0
		for _, term := range queryTokens {
			tf := float64(doc.termFreqs[term])
			if tf == 0 {
				continue
			}
			df := float64(docFreqs[term])
			idf := math.Log(1 + (n-df+0.5)/(df+0.5))
			norm := idx.k1 * (1 - idx.b + idx.b*float64(doc.length)/avgLen)
			score += idf * (tf * (idx.k1 + 1)) / (tf + norm)
		}
		if score > 0 {
			hits = append(hits, SparseHit{Chunk: doc.chunk, Score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].Chunk.CharCount != hits[j].Chunk.CharCount {
			return hits[i].Chunk.CharCount < hits[j].Chunk.CharCount
		}
		return hits[i].Chunk.Ordinal < hits[j].Chunk.Ordinal
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// Departments returns the departments with indexed chunks.
func (idx *KeywordIndex) Departments() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]string, 0, len(idx.docs))
	for dept := range idx.docs {
		out = append(out, dept)
	}
	sort.Strings(out)
	return out
}

// HasDepartment reports whether any chunks exist for the department.
func (idx *KeywordIndex) HasDepartment(department string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs[department]) > 0
}
