package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"onboarding-copilot/models"
)

var markdownHeaderPattern = regexp.MustCompile(`(?m)^(#{1,3})\s+(.+)$`)

// Chunker splits policy documents into retrieval-sized chunks.
// Markdown headers delimit sections; within a section, paragraphs are
// packed into chunks up to maxSize characters with overlap carried
// from the previous chunk so sentences straddling a boundary stay
// retrievable from both sides.
type Chunker struct {
	maxSize int
	overlap int
	minSize int
}

func NewChunker(maxSize, overlap, minSize int) *Chunker {
	return &Chunker{maxSize: maxSize, overlap: overlap, minSize: minSize}
}

type section struct {
	title string
	body  string
}

// Chunk splits one document into chunks tagged with the source name
// and department. Order is assigned sequentially per document.
func (c *Chunker) Chunk(text, source, department string) []models.DocumentChunk {
	var chunks []models.DocumentChunk
	order := 0

	for _, sec := range splitSections(text) {
		for _, piece := range c.packParagraphs(sec.body) {
			piece = strings.TrimSpace(piece)
			if len(piece) < c.minSize {
				continue
			}
			chunks = append(chunks, models.DocumentChunk{
				ChunkID:    uuid.NewString(),
				Text:       piece,
				Department: department,
				Source:     source,
				Section:    sec.title,
				Order:      order,
				CharCount:  len(piece),
				WordCount:  len(strings.Fields(piece)),
			})
			order++
		}
	}
	return chunks
}

// splitSections divides markdown text at level 1-3 headers. Text
// before the first header becomes an untitled preamble section.
func splitSections(text string) []section {
	matches := markdownHeaderPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return []section{{title: "Overview", body: text}}
	}

	var sections []section
	if pre := strings.TrimSpace(text[:matches[0][0]]); pre != "" {
		sections = append(sections, section{title: "Overview", body: pre})
	}
	for i, m := range matches {
		title := strings.TrimSpace(text[m[4]:m[5]])
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := strings.TrimSpace(text[m[1]:end])
		if body != "" {
			sections = append(sections, section{title: title, body: body})
		}
	}
	return sections
}

// packParagraphs greedily packs paragraphs into chunks of at most
// maxSize characters. A paragraph longer than maxSize is split at
// sentence boundaries. Each chunk after the first starts with the
// tail of its predecessor as overlap.
func (c *Chunker) packParagraphs(body string) []string {
	paragraphs := strings.Split(body, "\n\n")

	var pieces []string
	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) <= c.maxSize {
			pieces = append(pieces, para)
			continue
		}
		pieces = append(pieces, splitSentences(para)...)
	}

	var chunks []string
	var current strings.Builder
	for _, piece := range pieces {
		if current.Len() > 0 && current.Len()+len(piece)+1 > c.maxSize {
			chunk := current.String()
			chunks = append(chunks, chunk)
			current.Reset()
			current.WriteString(c.tail(chunk))
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(piece)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// tail returns the last overlap characters of a chunk, extended left
// to the nearest word boundary.
func (c *Chunker) tail(chunk string) string {
	if c.overlap <= 0 || len(chunk) <= c.overlap {
		return ""
	}
	cut := len(chunk) - c.overlap
	if idx := strings.LastIndex(chunk[:cut], " "); idx >= 0 {
		cut = idx + 1
	}
	return chunk[cut:]
}

var sentenceEndPattern = regexp.MustCompile(`([.!?])\s+`)

func splitSentences(text string) []string {
	marked := sentenceEndPattern.ReplaceAllString(text, "$1\x00")
	parts := strings.Split(marked, "\x00")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ChunkStats summarizes a chunking run for the ingest command.
func ChunkStats(chunks []models.DocumentChunk) string {
	byDept := make(map[string]int)
	for _, ch := range chunks {
		byDept[ch.Department]++
	}
	return fmt.Sprintf("%d chunks %v", len(chunks), byDept)
}
