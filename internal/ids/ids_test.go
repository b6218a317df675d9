package ids

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewIsSortable(t *testing.T) {
	prev := New()
	for i := 0; i < 100; i++ {
		next := New()
		require.Len(t, next, 26)
		require.Greater(t, next, prev)
		prev = next
	}
}
