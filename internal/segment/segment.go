// Package segment slices document text into bounded chunks for annotation.
package segment

import (
	"fmt"
	"regexp"
	"strings"
)

// Defaults applied when a size parameter is not positive.
const (
	DefaultSentencesPerChunk  = 4
	DefaultParagraphsPerChunk = 1
	DefaultCharsPerChunk      = 2000
)

// Mode selects a chunking strategy.
type Mode string

const (
	ModeSentences  Mode = "sentences"
	ModeParagraphs Mode = "paragraphs"
	ModeCharacters Mode = "chars"
)

// ParseMode parses a mode name. "characters" is accepted as an alias of "chars".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModeSentences):
		return ModeSentences, nil
	case string(ModeParagraphs):
		return ModeParagraphs, nil
	case string(ModeCharacters), "characters":
		return ModeCharacters, nil
	default:
		return "", fmt.Errorf("unknown segmentation mode: %q", s)
	}
}

// Options carries the size parameters of every mode; each mode reads only its own.
type Options struct {
	Mode               Mode
	SentencesPerChunk  int
	ParagraphsPerChunk int
	CharsPerChunk      int
	StrideChars        int // 0 means no overlap
}

// Build chunks a document with the strategy selected by opts.Mode.
// text is the collapsed main-body text, paragraphs the main-body paragraphs.
func Build(opts Options, text string, paragraphs []string) []string {
	switch opts.Mode {
	case ModeParagraphs:
		return ByParagraphs(paragraphs, opts.ParagraphsPerChunk)
	case ModeCharacters:
		return ByCharacters(text, opts.CharsPerChunk, opts.StrideChars)
	default:
		return BySentences(text, opts.SentencesPerChunk)
	}
}

var sentenceEnd = regexp.MustCompile(`[.!?]+`)

// SplitSentences splits text on runs of '.', '!' and '?' and drops empty
// fragments. The terminators themselves are discarded.
func SplitSentences(text string) []string {
	var out []string
	for _, s := range sentenceEnd.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// BySentences groups consecutive sentences n at a time, joining each group with ". ".
func BySentences(text string, n int) []string {
	if n <= 0 {
		n = DefaultSentencesPerChunk
	}
	return group(SplitSentences(text), n, ". ")
}

// ByParagraphs groups consecutive non-blank paragraphs n at a time, joining
// each group with a newline.
func ByParagraphs(paragraphs []string, n int) []string {
	if n <= 0 {
		n = DefaultParagraphsPerChunk
	}
	var paras []string
	for _, p := range paragraphs {
		if p = strings.TrimSpace(p); p != "" {
			paras = append(paras, p)
		}
	}
	return group(paras, n, "\n")
}

// ByCharacters cuts the trimmed text into windows of size characters, starting
// a new window every stride characters. A stride below size yields overlapping
// windows; a non-positive stride means stride == size. The last window always
// ends at the end of the text.
func ByCharacters(text string, size, stride int) []string {
	if size <= 0 {
		size = DefaultCharsPerChunk
	}
	if stride <= 0 {
		stride = size
	}

	runes := []rune(strings.TrimSpace(text))
	n := len(runes)

	var out []string
	for i := 0; i < n; i += stride {
		end := i + size
		if end > n {
			end = n
		}
		out = append(out, string(runes[i:end]))
		if i+size >= n {
			break
		}
	}
	return out
}

func group(items []string, n int, sep string) []string {
	var out []string
	for i := 0; i < len(items); i += n {
		end := i + n
		if end > len(items) {
			end = len(items)
		}
		if chunk := strings.Join(items[i:end], sep); chunk != "" {
			out = append(out, chunk)
		}
	}
	return out
}
