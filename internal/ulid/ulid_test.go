package ulid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	first := Generate()
	second := Generate()

	assert.NotEqual(t, first, second)
	// Monotonic within the process: later IDs sort after earlier ones
	assert.True(t, first.String() < second.String())
}

func TestRequestID(t *testing.T) {
	id := RequestID()

	assert.True(t, strings.HasPrefix(id, "req-"))
	assert.True(t, Validate(id))
}

func TestSuffix(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s := Suffix()
		assert.Len(t, s, 8)
		assert.Equal(t, strings.ToLower(s), s)
		assert.False(t, seen[s], "suffix %q repeated", s)
		seen[s] = true
	}
}

func TestValidate(t *testing.T) {
	assert.True(t, Validate(Generate().String()))
	assert.True(t, Validate(GenerateWithPrefix("wk")))
	assert.False(t, Validate("not-a-ulid"))
	assert.False(t, Validate(""))
}
