package tsplib

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeParamsFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadParams(t *testing.T) {
	path := writeParamsFile(t, `
maxCandidates: 8
maxTrials: 100
timeLimitMs: 2500
seed: 42
excess: 0.2
symmetricCandidates: true
traceLevel: 2
`)
	p, err := LoadParams(path)
	require.NoError(t, err)
	require.NotNil(t, p.MaxCandidates)
	require.Equal(t, 8, *p.MaxCandidates)
	require.NotNil(t, p.MaxTrials)
	require.Equal(t, 100, *p.MaxTrials)

	sp := p.Apply(20)
	require.Equal(t, 8, sp.MaxCandidates)
	require.Equal(t, 100, sp.MaxTrials)
	require.Equal(t, 2500*time.Millisecond, sp.TimeLimit)
	require.EqualValues(t, 42, sp.Seed)
	require.Equal(t, 0.2, sp.Excess)
	require.True(t, sp.CandidateSetSymmetric)
	require.Equal(t, 2, sp.TraceLevel)
}

func TestLoadParamsZeroVersusAbsent(t *testing.T) {
	// An explicit zero must survive Apply; an absent key must not.
	p, err := LoadParams(writeParamsFile(t, "maxTrials: 0\n"))
	require.NoError(t, err)
	require.Nil(t, p.MaxCandidates)
	require.NotNil(t, p.MaxTrials)

	sp := p.Apply(20)
	require.Equal(t, 5, sp.MaxCandidates)
	require.Equal(t, 0, sp.MaxTrials)
}

func TestLoadParamsErrors(t *testing.T) {
	_, err := LoadParams(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = LoadParams(writeParamsFile(t, "maxTrials: [not, an, int]\n"))
	require.Error(t, err)
}
