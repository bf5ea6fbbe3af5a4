// Package chunker splits page text into overlapping passages for embedding.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// Default sizes, in words.
const (
	DefaultSize    = 256
	DefaultOverlap = 20
)

// SentenceChunker packs whole sentences into chunks of at most Size words,
// carrying up to Overlap words of trailing sentences into the next chunk.
type SentenceChunker struct {
	size     int
	overlap  int
	splitter *regexp.Regexp
}

// NewSentenceChunker creates a chunker; invalid sizes fall back to defaults.
func NewSentenceChunker(size, overlap int) *SentenceChunker {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 || overlap >= size {
		overlap = min(DefaultOverlap, size/2)
	}
	return &SentenceChunker{
		size:     size,
		overlap:  overlap,
		splitter: regexp.MustCompile(`[^.!?]+(?:[.!?]+|$)`),
	}
}

type sentence struct {
	text  string
	words int
}

// Chunk splits every page of a document. Positions run across the whole
// document so chunk ids stay unique.
func (c *SentenceChunker) Chunk(document string, pages []domain.Page) []domain.Chunk {
	var chunks []domain.Chunk
	for _, p := range pages {
		for _, text := range c.split(p.Text) {
			pos := len(chunks)
			chunks = append(chunks, domain.Chunk{
				ID:       chunkID(document, p.Number, pos),
				Document: document,
				Page:     p.Number,
				Position: pos,
				Text:     text,
			})
		}
	}
	return chunks
}

func (c *SentenceChunker) split(text string) []string {
	var out []string
	var cur []sentence
	curWords := 0
	fresh := false // cur holds something not yet emitted

	flush := func() {
		parts := make([]string, len(cur))
		for i, s := range cur {
			parts[i] = s.text
		}
		out = append(out, strings.Join(parts, " "))

		// carry trailing sentences that fit in the overlap
		keep, kept := 0, 0
		for i := len(cur) - 1; i >= 0 && kept+cur[i].words <= c.overlap; i-- {
			kept += cur[i].words
			keep++
		}
		cur = append([]sentence(nil), cur[len(cur)-keep:]...)
		curWords = kept
		fresh = false
	}

	for _, s := range c.sentences(text) {
		if fresh && curWords+s.words > c.size {
			flush()
		}
		if curWords+s.words > c.size {
			cur, curWords = nil, 0
		}
		cur = append(cur, s)
		curWords += s.words
		fresh = true
	}
	if fresh {
		flush()
	}
	return out
}

// sentences splits text and breaks any sentence longer than size into word windows.
func (c *SentenceChunker) sentences(text string) []sentence {
	var out []sentence
	for _, raw := range c.splitter.FindAllString(text, -1) {
		words := strings.Fields(raw)
		if len(words) == 0 {
			continue
		}
		for start := 0; start < len(words); start += c.size {
			end := min(start+c.size, len(words))
			out = append(out, sentence{text: strings.Join(words[start:end], " "), words: end - start})
		}
	}
	return out
}

func chunkID(document string, page, position int) string {
	sum := sha256.Sum256([]byte(document + ":" + strconv.Itoa(page) + ":" + strconv.Itoa(position)))
	return hex.EncodeToString(sum[:8])
}
