package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "orgchart_test_total", Help: "test counter"})
	reg.MustRegister(c)
	c.Add(3)

	path := filepath.Join(t.TempDir(), "nested", "orgchart.prom")
	require.NoError(t, WriteTextfile(path, reg))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), "orgchart_test_total 3")
}

func TestWriteTextfile_BlankPathIsNoop(t *testing.T) {
	require.NoError(t, WriteTextfile("  ", nil))
}
