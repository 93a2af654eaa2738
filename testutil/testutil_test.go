package testutil

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNGDeterministic(t *testing.T) {
	a := NewRNG(42)
	b := NewRNG(42)

	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Intn(1000), b.Intn(1000))
	}

	a.Reset()
	c := NewRNG(42)
	assert.Equal(t, c.Intn(1000), a.Intn(1000))
	assert.Equal(t, int64(42), a.Seed())
}

func TestGenerateCSV(t *testing.T) {
	doc := GenerateCSV(NewRNG(1), 10, 4)

	lines := strings.Split(strings.TrimRight(doc, "\n"), "\n")
	require.Len(t, lines, 11)
	assert.Equal(t, "col0,col1,col2,col3", lines[0])

	for i, line := range lines[1:] {
		fields := strings.Split(line, ",")
		require.Len(t, fields, 4)
		assert.Equal(t, strconv.Itoa(i+1), fields[0])
	}

	// Same seed, same document.
	assert.Equal(t, doc, GenerateCSV(NewRNG(1), 10, 4))
}
