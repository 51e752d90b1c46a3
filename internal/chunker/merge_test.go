package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dgallion1/mdsplit/internal/doctree"
	"github.com/stretchr/testify/assert"
)

func texts(chunks []doctree.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

func TestMerge_SameLevelOnly(t *testing.T) {
	in := []doctree.Chunk{
		{Text: "a", Level: 1},
		{Text: "b", Level: 1},
		{Text: "c", Level: 2},
		{Text: "d", Level: 2},
		{Text: "e", Level: 1},
	}
	out := Merge(in, 400)

	assert.Equal(t, []string{"a\nb", "c\nd", "e"}, texts(out))
	assert.Equal(t, []int{1, 2, 1}, []int{out[0].Level, out[1].Level, out[2].Level})
}

func TestMerge_RespectsCeiling(t *testing.T) {
	x := strings.Repeat("x", 150)
	in := []doctree.Chunk{{Text: x}, {Text: x}, {Text: x}}
	out := Merge(in, 400)

	assert.Equal(t, []string{x + "\n" + x, x}, texts(out))
	for _, c := range out {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), 400)
	}
}

func TestMerge_ExactFit(t *testing.T) {
	// 199 + newline + 200 lands exactly on the ceiling.
	in := []doctree.Chunk{{Text: strings.Repeat("a", 199)}, {Text: strings.Repeat("b", 200)}}
	assert.Len(t, Merge(in, 400), 1)
	assert.Len(t, Merge(in, 399), 2)
}

func TestMerge_Idempotent(t *testing.T) {
	in := []doctree.Chunk{
		{Text: strings.Repeat("a", 120), Level: 1},
		{Text: strings.Repeat("b", 300), Level: 1},
		{Text: strings.Repeat("c", 50), Level: 1},
		{Text: strings.Repeat("d", 50), Level: 2},
		{Text: strings.Repeat("e", 390), Level: 2},
		{Text: "f", Level: 0},
	}
	once := Merge(in, 400)
	assert.Equal(t, once, Merge(once, 400))
}

func TestMerge_DoesNotModifyInput(t *testing.T) {
	in := []doctree.Chunk{
		{Text: "a", Level: 1, Metadata: doctree.Metadata{"k": "v"}},
		{Text: "b", Level: 1},
	}
	out := Merge(in, 400)
	out[0].Metadata["k"] = "changed"

	assert.Equal(t, "a", in[0].Text)
	assert.Equal(t, "v", in[0].Metadata["k"])
}

func TestMerge_Empty(t *testing.T) {
	assert.Empty(t, Merge(nil, 400))
}
