package progressbar

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManualProgressBar(t *testing.T) {
	var out bytes.Buffer
	p := NewManualProgressBar(&out, 10, 4)

	p.Increment()
	p.Display()
	require.Equal(t, 0.25, p.Progress())
	require.Contains(t, out.String(), "25.00%")

	for i := 0; i < 10; i++ {
		p.Increment()
	}
	require.Equal(t, 1.0, p.Progress())

	out.Reset()
	p.Display()
	require.Equal(t, 10, strings.Count(out.String(), "█"))
}
