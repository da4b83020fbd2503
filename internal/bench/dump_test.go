package bench

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/jetbench/internal/cluster"
)

func TestDumperFormat(t *testing.T) {
	ev := Event{cluster.NewPseudoJet(3, 4, 0, 5)}
	seq := mustCluster(t, cluster.AntiKt, ev)
	jets, err := mustSelector(t, PtMinSelection(0)).Select(seq)
	require.NoError(t, err)

	t.Run("jets only", func(t *testing.T) {
		var buf bytes.Buffer
		d := NewDumper(&buf, false)
		require.NoError(t, d.DumpEvent(0, jets, seq))
		require.NoError(t, d.Close())
		assert.Equal(t,
			"Jets in processed event 1\n"+
				"    0    0.0000000000    0.9272952180    5.0000000000\n",
			buf.String())
	})

	t.Run("with history", func(t *testing.T) {
		var buf bytes.Buffer
		d := NewDumper(&buf, true)
		require.NoError(t, d.DumpEvent(4, jets, seq))
		require.NoError(t, d.Close())
		assert.Equal(t,
			"Jets in processed event 5\n"+
				"    0    0.0000000000    0.9272952180    5.0000000000\n"+
				"1: px=3 py=4 pz=0 E=5\n"+
				"1: -1 -1 2 0 0\n"+
				"2: 1 0 -2 0.04 0.04\n",
			buf.String())
	})

	t.Run("no jets", func(t *testing.T) {
		var buf bytes.Buffer
		d := NewDumper(&buf, false)
		require.NoError(t, d.DumpEvent(2, nil, nil))
		require.NoError(t, d.Close())
		assert.Equal(t, "Jets in processed event 3\n", buf.String())
	})
}

func TestShortFloat(t *testing.T) {
	testCases := map[float64]string{
		0:          "0",
		1234:       "1234",
		0.04:       "0.04",
		123456.7:   "123457",
		1234567:    "1.23457e+06",
		-2.5:       "-2.5",
		0.00001234: "1.234e-05",
	}
	for v, want := range testCases {
		assert.Equal(t, want, shortFloat(v), "%v", v)
	}
}

func TestOpenDumpSink(t *testing.T) {
	ev := Event{cluster.NewPseudoJet(3, 4, 0, 5)}
	seq := mustCluster(t, cluster.AntiKt, ev)

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "jets.txt")
		d, err := OpenDumpSink(path, nil, false)
		require.NoError(t, err)
		require.NoError(t, d.DumpEvent(0, seq.InclusiveJets(0), seq))
		require.NoError(t, d.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "Jets in processed event 1\n")
	})

	t.Run("stdout", func(t *testing.T) {
		var out bytes.Buffer
		d, err := OpenDumpSink("-", &out, false)
		require.NoError(t, err)
		require.NoError(t, d.DumpEvent(0, nil, seq))
		assert.Empty(t, out.String(), "output is buffered until Close")
		require.NoError(t, d.Close())
		assert.Equal(t, "Jets in processed event 1\n", out.String())
	})

	t.Run("unwritable path", func(t *testing.T) {
		_, err := OpenDumpSink(filepath.Join(t.TempDir(), "missing", "jets.txt"), nil, false)
		assert.ErrorIs(t, err, ErrDumpOpen)
	})
}
