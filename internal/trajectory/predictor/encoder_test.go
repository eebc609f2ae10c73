package predictor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercase and trim", input: "  Senior Software Engineer  ", want: "senior software engineer"},
		{name: "collapse whitespace", input: "software\t\tengineer", want: "software engineer"},
		{name: "strip punctuation", input: "engineer, backend (platform)", want: "engineer backend platform"},
		{name: "expand sr with period", input: "Sr. Software Engineer", want: "senior software engineer"},
		{name: "expand sr without period", input: "sr software engineer", want: "senior software engineer"},
		{name: "expand mgr", input: "Engineering Mgr", want: "engineering manager"},
		{name: "expand vp", input: "VP of Engineering", want: "vice president of engineering"},
		{name: "expand multiple", input: "Sr. Eng Mgr", want: "senior engineer manager"},
		{name: "empty", input: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTitle(tt.input))
		})
	}
}

func TestEncoder_Encode(t *testing.T) {
	enc := NewEncoder(map[string]int{
		"software engineer":        1,
		"senior software engineer": 2,
		"staff engineer":           3,
	})

	t.Run("known titles map through vocabulary", func(t *testing.T) {
		seq := enc.Encode([]string{"Software Engineer", "Sr. Software Engineer"})
		assert.Equal(t, 2, seq.Length)
		assert.Equal(t, 1, seq.Indexes[0])
		assert.Equal(t, 2, seq.Indexes[1])
	})

	t.Run("unknown title maps to padding index", func(t *testing.T) {
		seq := enc.Encode([]string{"Underwater Basket Weaver"})
		assert.Equal(t, 1, seq.Length)
		assert.Equal(t, PaddingIndex, seq.Indexes[0])
	})

	t.Run("fixed output length with zero padding", func(t *testing.T) {
		seq := enc.Encode([]string{"Software Engineer"})
		assert.Len(t, seq.Indexes, MaxSequenceLength)
		for i := 1; i < MaxSequenceLength; i++ {
			assert.Equal(t, PaddingIndex, seq.Indexes[i])
		}
	})

	t.Run("long history keeps most recent titles", func(t *testing.T) {
		titles := make([]string, MaxSequenceLength+5)
		for i := range titles {
			titles[i] = "software engineer"
		}
		titles[len(titles)-1] = "staff engineer"

		seq := enc.Encode(titles)
		assert.Equal(t, MaxSequenceLength, seq.Length)
		assert.Equal(t, 3, seq.Indexes[MaxSequenceLength-1])
	})
}
