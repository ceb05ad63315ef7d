// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chunk splits extracted document text into bounded-size chunks for
// the LLM, keeping paragraphs together where they fit.
package chunk

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/fibo-annotator/pkg/types"
)

// DefaultMaxSize is the default chunk size in characters. At roughly four
// characters per token it stays well under typical context windows.
const DefaultMaxSize = 15000

// Separator joins paragraphs inside a chunk and separates paragraphs in the
// source text.
const Separator = "\n\n"

// ErrInvalidSize is returned when the maximum chunk size is not positive.
var ErrInvalidSize = errors.New("chunk: max size must be positive")

// ErrInvalidPolicy is returned for a split policy other than SplitFixed or
// SplitWord.
var ErrInvalidPolicy = errors.New("chunk: unknown split policy")

// ValidatePolicy reports whether p names a known policy. The empty policy
// means SplitFixed.
func ValidatePolicy(p types.SplitPolicy) error {
	switch p {
	case "", types.SplitFixed, types.SplitWord:
		return nil
	}
	return fmt.Errorf("%w %q: use %s or %s", ErrInvalidPolicy, p, types.SplitFixed, types.SplitWord)
}

// Split divides text into chunks of at most maxSize bytes using the fixed
// force-split policy. See SplitWithPolicy.
func Split(text string, maxSize int) ([]string, error) {
	return SplitWithPolicy(text, maxSize, types.SplitFixed)
}

// SplitWithPolicy divides text into an ordered slice of chunks.
//
// Paragraphs are separated by blank lines; paragraphs that are empty after
// trimming are dropped. Paragraphs are packed into a chunk, joined by
// Separator, until the next one would push it over maxSize. A paragraph that
// alone exceeds maxSize is emitted as its own run of slices cut according to
// policy. Text with no non-empty paragraphs yields a nil slice.
func SplitWithPolicy(text string, maxSize int, policy types.SplitPolicy) ([]string, error) {
	if maxSize <= 0 {
		return nil, ErrInvalidSize
	}
	if err := ValidatePolicy(policy); err != nil {
		return nil, err
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, para := range strings.Split(text, Separator) {
		if strings.TrimSpace(para) == "" {
			continue
		}

		switch {
		case len(para) > maxSize:
			flush()
			chunks = append(chunks, forceSplit(para, maxSize, policy)...)
		case current.Len() > 0 && current.Len()+len(Separator)+len(para) > maxSize:
			flush()
			current.WriteString(para)
		default:
			if current.Len() > 0 {
				current.WriteString(Separator)
			}
			current.WriteString(para)
		}
	}
	flush()

	return chunks, nil
}

// forceSplit cuts an oversized paragraph into consecutive slices of at most
// maxSize bytes. Cuts never land inside a UTF-8 sequence.
func forceSplit(para string, maxSize int, policy types.SplitPolicy) []string {
	var out []string
	for len(para) > 0 {
		if len(para) <= maxSize {
			out = append(out, para)
			break
		}
		cut := runeBoundary(para, maxSize)
		if policy == types.SplitWord {
			cut = wordBoundary(para, cut)
		}
		out = append(out, para[:cut])
		para = para[cut:]
	}
	return out
}

// runeBoundary returns the largest index <= n that starts a rune. If the
// first rune is wider than n, the whole first rune is taken.
func runeBoundary(s string, n int) int {
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		_, size := utf8.DecodeRuneInString(s)
		return size
	}
	return cut
}

// wordBoundary moves cut back to just after the last whitespace in s[:cut].
// It keeps cut unchanged when the slice holds no whitespace.
func wordBoundary(s string, cut int) int {
	i := strings.LastIndexFunc(s[:cut], unicode.IsSpace)
	if i <= 0 {
		return cut
	}
	_, size := utf8.DecodeRuneInString(s[i:])
	return i + size
}
