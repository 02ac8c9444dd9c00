package strategy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirsum/dirsum/strategy"
)

func TestLeafResolveIgnoresSize(t *testing.T) {
	s := strategy.Leaf(strategy.Complete)
	k, err := s.Resolve(0)
	require.NoError(t, err)
	assert.Equal(t, strategy.Complete, k)

	k, err = s.Resolve(1 << 30)
	require.NoError(t, err)
	assert.Equal(t, strategy.Complete, k)
}

func TestScenarioRoutesBySize(t *testing.T) {
	s, err := strategy.NewScenario(
		strategy.Range{Start: 0, End: 1024, Kind: strategy.Buffer},
		strategy.Range{Start: 1024, End: strategy.Unbounded, Kind: strategy.MemoryMapped},
	)
	require.NoError(t, err)

	k, err := s.Resolve(512)
	require.NoError(t, err)
	assert.Equal(t, strategy.Buffer, k)

	k, err = s.Resolve(2048)
	require.NoError(t, err)
	assert.Equal(t, strategy.MemoryMapped, k)
}

func TestScenarioRejectsNonContiguousRanges(t *testing.T) {
	_, err := strategy.NewScenario(
		strategy.Range{Start: 0, End: 1024, Kind: strategy.Buffer},
		strategy.Range{Start: 2048, End: strategy.Unbounded, Kind: strategy.Complete},
	)
	assert.Error(t, err)
}

func TestScenarioRejectsEmptyRange(t *testing.T) {
	_, err := strategy.NewScenario(
		strategy.Range{Start: 0, End: 0, Kind: strategy.Buffer},
	)
	assert.Error(t, err)
}
