package bench

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/jetbench/internal/cluster"
)

func TestResolveAlgorithm(t *testing.T) {
	testCases := []struct {
		name      string
		algorithm string
		power     float64
		wantAlg   cluster.Algorithm
		wantPower float64
	}{
		{"default power", "", -1, cluster.AntiKt, -1},
		{"power 0", "", 0, cluster.CambridgeAachen, 0},
		{"power 1", "", 1, cluster.Kt, 1},
		{"other power", "", 0.5, cluster.GenKt, 0.5},
		{"named AntiKt overrides power", "AntiKt", 1, cluster.AntiKt, -1},
		{"named CA", "CA", -1, cluster.CambridgeAachen, 0},
		{"named Kt", "Kt", -1, cluster.Kt, 1},
		{"named GenKt keeps power", "GenKt", 2, cluster.GenKt, 2},
		{"Durham fixes power", "Durham", -1, cluster.Durham, 1},
		{"EEKt keeps power", "EEKt", -1, cluster.EEKt, -1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			alg, p, err := ResolveAlgorithm(tc.algorithm, tc.power)
			require.NoError(t, err)
			assert.Equal(t, tc.wantAlg, alg)
			assert.Equal(t, tc.wantPower, p)
		})
	}

	t.Run("unknown name", func(t *testing.T) {
		_, _, err := ResolveAlgorithm("SISCone", -1)
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.EqualError(t, err, "Unknown algorithm type: SISCone")
	})
}

func TestNewAlgorithmConfig(t *testing.T) {
	cfg, err := NewAlgorithmConfig("", 0, 0.7, "N2Tiled")
	require.NoError(t, err)
	assert.Equal(t, AlgorithmConfig{Algorithm: cluster.CambridgeAachen, R: 0.7, Power: 0, Strategy: cluster.N2Tiled}, cfg)

	_, err = NewAlgorithmConfig("", -1, 0.4, "Quickest")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestNewInvokerBranches(t *testing.T) {
	t.Run("fixed power ignores the power field", func(t *testing.T) {
		inv, err := NewInvoker(AlgorithmConfig{Algorithm: cluster.Kt, R: 0.6, Power: 7})
		require.NoError(t, err)
		assert.Equal(t, 1.0, inv.Definition().Power())
		assert.Equal(t, 0.6, inv.Definition().R())
	})

	t.Run("generalised takes R and power", func(t *testing.T) {
		inv, err := NewInvoker(AlgorithmConfig{Algorithm: cluster.GenKt, R: 1.0, Power: 0.5})
		require.NoError(t, err)
		assert.Equal(t, 0.5, inv.Definition().Power())
		assert.Equal(t, 1.0, inv.Definition().R())
	})

	t.Run("Durham ignores R", func(t *testing.T) {
		inv, err := NewInvoker(AlgorithmConfig{Algorithm: cluster.Durham, R: -3, Power: -1})
		require.NoError(t, err)
		assert.Equal(t, cluster.Durham, inv.Definition().Algorithm())
		assert.Equal(t, 1.0, inv.Definition().Power())
	})

	t.Run("invalid radius is a configuration error", func(t *testing.T) {
		_, err := NewInvoker(AlgorithmConfig{Algorithm: cluster.AntiKt, R: 0})
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.ErrorIs(t, err, cluster.ErrInvalidDefinition)
	})
}

func TestInvokerIsDeterministic(t *testing.T) {
	ev := randomEvents(7, 1, 80)[0]
	inv, err := NewInvoker(AlgorithmConfig{Algorithm: cluster.AntiKt, R: 0.4})
	require.NoError(t, err)

	first, err := inv.Cluster(ev)
	require.NoError(t, err)
	second, err := inv.Cluster(ev)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	if diff := cmp.Diff(first.History(), second.History()); diff != "" {
		t.Errorf("history differs between invocations (-first +second):\n%s", diff)
	}
	assert.Len(t, first.History(), 2*len(ev))
}
