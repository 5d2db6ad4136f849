// Package chunker splits extracted text into token-bounded, overlapping
// chunks ahead of embedding.
package chunker

import (
	"strings"

	"github.com/aoleynikov/bobchat/tokens"
)

// Chunker accumulates sentences into chunks of at most MaxTokens tokens,
// seeding each new chunk with up to OverlapTokens worth of the previous
// chunk's trailing words. The same Counter drives both the sizing decision
// and the overlap walk.
type Chunker struct {
	counter       tokens.Counter
	maxTokens     int
	overlapTokens int
}

func New(counter tokens.Counter, maxTokens, overlapTokens int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = 400
	}
	if overlapTokens < 0 {
		overlapTokens = 0
	}
	return &Chunker{
		counter:       counter,
		maxTokens:     maxTokens,
		overlapTokens: overlapTokens,
	}
}

// Split returns the ordered chunks for text. Whitespace-only input yields
// nil; text that already fits the budget is returned as a single chunk.
// A single sentence longer than the budget is still emitted whole, the
// splitter never cuts inside a sentence.
func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if c.counter.Count(text) <= c.maxTokens {
		return []string{strings.TrimSpace(text)}
	}

	sentences := strings.Split(text, ". ")
	chunks := make([]string, 0)
	current := ""
	currentTokens := 0

	for _, sentence := range sentences {
		sentenceTokens := c.counter.Count(sentence)

		if currentTokens+sentenceTokens > c.maxTokens && current != "" {
			chunks = append(chunks, strings.TrimSpace(current))

			if c.overlapTokens > 0 {
				current = c.overlapTail(current) + " " + sentence
				currentTokens = c.counter.Count(current)
			} else {
				current = sentence
				currentTokens = sentenceTokens
			}
			continue
		}

		if current != "" {
			current += ". " + sentence
		} else {
			current = sentence
		}
		currentTokens += sentenceTokens
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	return chunks
}

// overlapTail walks the chunk's words from the end, keeping as many as fit
// inside the overlap budget.
func (c *Chunker) overlapTail(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	budget := 0
	start := len(words)
	for i := len(words) - 1; i >= 0; i-- {
		wordTokens := c.counter.Count(words[i])
		if budget+wordTokens > c.overlapTokens {
			break
		}
		start = i
		budget += wordTokens
	}

	return strings.Join(words[start:], " ")
}
