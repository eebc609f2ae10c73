package predictor

import (
	"strings"
)

// PaddingIndex is the vocabulary index used for both unknown titles and
// sequence padding.
const PaddingIndex = 0

// MaxSequenceLength is the fixed encoder output length. Longer histories
// keep their most recent titles.
const MaxSequenceLength = 10

// abbreviations is the fixed expansion table applied during title
// normalization. Keys are matched with or without a trailing period.
var abbreviations = map[string]string{
	"sr":   "senior",
	"jr":   "junior",
	"mgr":  "manager",
	"vp":   "vice president",
	"svp":  "senior vice president",
	"evp":  "executive vice president",
	"dir":  "director",
	"eng":  "engineer",
	"engr": "engineer",
	"dev":  "developer",
	"mktg": "marketing",
	"ops":  "operations",
	"pm":   "product manager",
	"cto":  "chief technology officer",
	"ceo":  "chief executive officer",
}

// Encoder normalizes titles and maps them through the vocabulary to
// integer indexes. The vocabulary is immutable and shared across requests.
type Encoder struct {
	vocabulary map[string]int
}

func NewEncoder(vocabulary map[string]int) *Encoder {
	return &Encoder{vocabulary: vocabulary}
}

// EncodedSequence is a fixed-order integer sequence plus its true length.
type EncodedSequence struct {
	Indexes []int
	Length  int
}

// Encode normalizes each title and resolves it to a vocabulary index,
// producing a sequence of MaxSequenceLength padded with PaddingIndex.
func (e *Encoder) Encode(titleSequence []string) EncodedSequence {
	titles := titleSequence
	if len(titles) > MaxSequenceLength {
		titles = titles[len(titles)-MaxSequenceLength:]
	}

	indexes := make([]int, MaxSequenceLength)
	for i, title := range titles {
		indexes[i] = e.lookup(NormalizeTitle(title))
	}

	return EncodedSequence{
		Indexes: indexes,
		Length:  len(titles),
	}
}

func (e *Encoder) lookup(normalized string) int {
	if idx, ok := e.vocabulary[normalized]; ok {
		return idx
	}
	return PaddingIndex
}

// NormalizeTitle lowercases, trims, collapses whitespace, strips
// punctuation except abbreviation periods, and expands the fixed
// abbreviation table.
func NormalizeTitle(title string) string {
	lowered := strings.ToLower(strings.TrimSpace(title))

	// Replace punctuation with spaces, keeping periods so abbreviation
	// tokens like "sr." survive to the expansion step.
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	tokens := strings.Fields(b.String())
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		trimmed := strings.TrimSuffix(tok, ".")
		if trimmed == "" {
			continue
		}
		if expansion, ok := abbreviations[trimmed]; ok {
			out = append(out, expansion)
			continue
		}
		// Non-abbreviation periods carry no signal once expansion is done.
		out = append(out, strings.ReplaceAll(trimmed, ".", " "))
	}

	return strings.Join(strings.Fields(strings.Join(out, " ")), " ")
}
