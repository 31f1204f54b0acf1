// Package tsplib reads TSPLIB-style problem files, loads solver parameter
// files, and writes tour files.
package tsplib

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"tourseq/internal/solver"
)

// header keys and section markers understood by Parse.
const (
	secNodeCoords  = "NODE_COORD_SECTION"
	secEdgeWeights = "EDGE_WEIGHT_SECTION"
	secEOF         = "EOF"
)

type spec struct {
	name         string
	typ          string
	dimension    int
	weightType   string
	weightFormat string
}

// Parse reads a TSPLIB-style problem. Supported: TYPE TSP and ATSP,
// EDGE_WEIGHT_TYPE EUC_2D, CEIL_2D and EXPLICIT, EDGE_WEIGHT_FORMAT
// FULL_MATRIX and UPPER_ROW.
func Parse(r io.Reader) (*solver.Problem, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var sp spec
	var coords [][2]float64
	var weights []int64

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		switch sectionName(line) {
		case secEOF:
			goto parsed
		case secNodeCoords:
			if sp.dimension <= 0 {
				return nil, fmt.Errorf("tsplib: NODE_COORD_SECTION before DIMENSION")
			}
			coords = make([][2]float64, sp.dimension)
			for i := 0; i < sp.dimension; i++ {
				if !sc.Scan() {
					return nil, fmt.Errorf("tsplib: node coords truncated at entry %d", i+1)
				}
				fields := strings.Fields(strings.TrimSpace(sc.Text()))
				if len(fields) < 3 {
					return nil, fmt.Errorf("tsplib: bad coord line %q", sc.Text())
				}
				idx, err := strconv.Atoi(fields[0])
				if err != nil || idx < 1 || idx > sp.dimension {
					return nil, fmt.Errorf("tsplib: bad node index %q", fields[0])
				}
				x, errX := strconv.ParseFloat(fields[1], 64)
				y, errY := strconv.ParseFloat(fields[2], 64)
				if errX != nil || errY != nil {
					return nil, fmt.Errorf("tsplib: bad coordinates %q", sc.Text())
				}
				coords[idx-1] = [2]float64{x, y}
			}
		case secEdgeWeights:
			if sp.dimension <= 0 {
				return nil, fmt.Errorf("tsplib: EDGE_WEIGHT_SECTION before DIMENSION")
			}
			want := sp.dimension * sp.dimension
			if sp.weightFormat == "UPPER_ROW" {
				want = sp.dimension * (sp.dimension - 1) / 2
			}
			weights = make([]int64, 0, want)
			for len(weights) < want && sc.Scan() {
				for _, f := range strings.Fields(strings.TrimSpace(sc.Text())) {
					v, err := strconv.ParseInt(f, 10, 64)
					if err != nil {
						return nil, fmt.Errorf("tsplib: bad weight %q", f)
					}
					weights = append(weights, v)
				}
			}
			if len(weights) < want {
				return nil, fmt.Errorf("tsplib: edge weights truncated: got %d of %d", len(weights), want)
			}
			weights = weights[:want]
		default:
			if err := parseHeader(&sp, line); err != nil {
				return nil, err
			}
		}
	}
parsed:
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return build(&sp, coords, weights)
}

// ParseFile reads a problem from disk.
func ParseFile(path string) (*solver.Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

func sectionName(line string) string {
	// Section markers stand alone on their line.
	if strings.Contains(line, ":") {
		return ""
	}
	return strings.TrimSpace(line)
}

func parseHeader(sp *spec, line string) error {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return fmt.Errorf("tsplib: unexpected line %q", line)
	}
	key = strings.TrimSpace(strings.ToUpper(key))
	value = strings.TrimSpace(value)
	switch key {
	case "NAME":
		sp.name = value
	case "TYPE":
		sp.typ = strings.ToUpper(value)
	case "COMMENT":
		// ignored
	case "DIMENSION":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("tsplib: bad DIMENSION %q", value)
		}
		sp.dimension = n
	case "EDGE_WEIGHT_TYPE":
		sp.weightType = strings.ToUpper(value)
	case "EDGE_WEIGHT_FORMAT":
		sp.weightFormat = strings.ToUpper(value)
	case "DISPLAY_DATA_TYPE", "NODE_COORD_TYPE":
		// ignored
	default:
		return fmt.Errorf("tsplib: unsupported header %q", key)
	}
	return nil
}

func build(sp *spec, coords [][2]float64, weights []int64) (*solver.Problem, error) {
	if sp.typ != "" && sp.typ != "TSP" && sp.typ != "ATSP" {
		return nil, fmt.Errorf("tsplib: unsupported TYPE %q", sp.typ)
	}
	switch sp.weightType {
	case "EUC_2D", "CEIL_2D":
		if coords == nil {
			return nil, fmt.Errorf("tsplib: %s without NODE_COORD_SECTION", sp.weightType)
		}
		return solver.NewEuclidProblem(sp.name, coords, sp.weightType == "CEIL_2D")
	case "EXPLICIT":
		if weights == nil {
			return nil, fmt.Errorf("tsplib: EXPLICIT without EDGE_WEIGHT_SECTION")
		}
		n := sp.dimension
		m := make([][]int64, n)
		for i := range m {
			m[i] = make([]int64, n)
		}
		switch sp.weightFormat {
		case "FULL_MATRIX", "":
			for i := 0; i < n; i++ {
				copy(m[i], weights[i*n:(i+1)*n])
			}
		case "UPPER_ROW":
			k := 0
			for i := 0; i < n; i++ {
				for j := i + 1; j < n; j++ {
					m[i][j] = weights[k]
					m[j][i] = weights[k]
					k++
				}
			}
		default:
			return nil, fmt.Errorf("tsplib: unsupported EDGE_WEIGHT_FORMAT %q", sp.weightFormat)
		}
		return solver.NewMatrixProblem(sp.name, m, sp.typ != "ATSP")
	case "":
		return nil, fmt.Errorf("tsplib: missing EDGE_WEIGHT_TYPE")
	default:
		return nil, fmt.Errorf("tsplib: unsupported EDGE_WEIGHT_TYPE %q", sp.weightType)
	}
}
