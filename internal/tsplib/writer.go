package tsplib

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// WriteTour writes a tour in TSPLIB tour-file format.
func WriteTour(w io.Writer, name string, tour []int, cost int64) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "NAME : %s.tour\n", name)
	fmt.Fprintf(bw, "COMMENT : cost %d\n", cost)
	fmt.Fprintf(bw, "TYPE : TOUR\n")
	fmt.Fprintf(bw, "DIMENSION : %d\n", len(tour))
	fmt.Fprintf(bw, "TOUR_SECTION\n")
	for _, id := range tour {
		fmt.Fprintf(bw, "%d\n", id)
	}
	fmt.Fprintf(bw, "-1\nEOF\n")
	return bw.Flush()
}

// WriteTourFile writes the tour to a file, replacing any existing content.
func WriteTourFile(path, name string, tour []int, cost int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteTour(f, name, tour, cost); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
