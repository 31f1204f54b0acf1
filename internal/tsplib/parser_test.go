package tsplib

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"tourseq/internal/solver"
)

func TestParseEuclid(t *testing.T) {
	in := `NAME : square4
TYPE : TSP
COMMENT : unit square
DIMENSION : 4
EDGE_WEIGHT_TYPE : EUC_2D
NODE_COORD_SECTION
1 0 0
2 0 10
3 10 10
4 10 0
EOF
`
	p, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, "square4", p.Name)
	require.Equal(t, 4, p.Dimension)
	require.Equal(t, solver.WeightEuclid2D, p.Kind)
	require.False(t, p.Asymmetric())
}

func TestParseCeil(t *testing.T) {
	in := `DIMENSION: 3
EDGE_WEIGHT_TYPE: CEIL_2D
NODE_COORD_SECTION
1 0 0
2 1 1
3 2 0
EOF
`
	p, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, solver.WeightCeil2D, p.Kind)
}

func TestParseExplicitFullMatrix(t *testing.T) {
	in := `NAME : m3
TYPE : TSP
DIMENSION : 3
EDGE_WEIGHT_TYPE : EXPLICIT
EDGE_WEIGHT_FORMAT : FULL_MATRIX
EDGE_WEIGHT_SECTION
0 2 3
2 0 4
3 4 0
EOF
`
	p, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, 3, p.Dimension)
	require.Equal(t, solver.WeightMatrix, p.Kind)
	require.False(t, p.Asymmetric())
}

func TestParseExplicitUpperRow(t *testing.T) {
	in := `DIMENSION : 4
EDGE_WEIGHT_TYPE : EXPLICIT
EDGE_WEIGHT_FORMAT : UPPER_ROW
EDGE_WEIGHT_SECTION
1 2 3
4 5
6
EOF
`
	p, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, 4, p.Dimension)
	require.Equal(t, solver.WeightMatrix, p.Kind)
}

func TestParseATSP(t *testing.T) {
	in := `NAME : d3
TYPE : ATSP
DIMENSION : 3
EDGE_WEIGHT_TYPE : EXPLICIT
EDGE_WEIGHT_FORMAT : FULL_MATRIX
EDGE_WEIGHT_SECTION
0 1 9
9 0 1
1 9 0
EOF
`
	p, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.True(t, p.Asymmetric())
	require.Equal(t, 3, p.BaseDimension())
	require.Equal(t, 6, p.Dimension)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"missing weight type": "DIMENSION : 3\nEOF\n",
		"coords before dim":   "EDGE_WEIGHT_TYPE : EUC_2D\nNODE_COORD_SECTION\n1 0 0\nEOF\n",
		"truncated coords":    "DIMENSION : 3\nEDGE_WEIGHT_TYPE : EUC_2D\nNODE_COORD_SECTION\n1 0 0\nEOF\n",
		"truncated weights":   "DIMENSION : 3\nEDGE_WEIGHT_TYPE : EXPLICIT\nEDGE_WEIGHT_SECTION\n0 1\nEOF\n",
		"unknown header":      "WIDGET : 7\n",
		"bad dimension":       "DIMENSION : nope\n",
		"unsupported type":    "TYPE : CVRP\nDIMENSION : 3\nEDGE_WEIGHT_TYPE : EUC_2D\nNODE_COORD_SECTION\n1 0 0\n2 1 1\n3 2 0\nEOF\n",
	}
	for name, in := range cases {
		_, err := Parse(strings.NewReader(in))
		require.Error(t, err, name)
	}
}

func TestWriteTour(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, WriteTour(&sb, "square4", []int{1, 2, 3, 4}, 40))
	want := `NAME : square4.tour
COMMENT : cost 40
TYPE : TOUR
DIMENSION : 4
TOUR_SECTION
1
2
3
4
-1
EOF
`
	require.Equal(t, want, sb.String())
}
