package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"tourseq/internal/solver"
	"tourseq/internal/tsplib"
)

func main() {
	var (
		problemPath = flag.String("problem", "", "TSPLIB problem file (required)")
		paramsPath  = flag.String("params", "", "YAML parameter file")
		trials      = flag.Int("trials", -1, "trial budget (-1 keeps the file or default value)")
		candidates  = flag.Int("candidates", -1, "candidates per stop (-1 keeps the file or default value)")
		seed        = flag.Int64("seed", 0, "random seed (0 keeps the file or default value)")
		timeLimit   = flag.Duration("time", 0, "wall clock limit, e.g. 30s (0 keeps the file value)")
		trace       = flag.Int("trace", 0, "trace level: 0 silent, 1 summary, 2 trials, 3 improvements")
		output      = flag.String("output", "", "tour output file (default stdout summary only)")
		decisions   = flag.String("decisions", "", "write recorded move decisions to this JSON file")
		decSteps    = flag.Int("decision-steps", 10000, "decision recording capacity")
	)
	flag.Parse()

	if *problemPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	prob, err := tsplib.ParseFile(*problemPath)
	if err != nil {
		log.Fatalf("read problem: %v", err)
	}

	params := solver.DefaultParams(prob.Dimension)
	if *paramsPath != "" {
		fp, err := tsplib.LoadParams(*paramsPath)
		if err != nil {
			log.Fatalf("read params: %v", err)
		}
		params = fp.Apply(prob.Dimension)
	}
	if *trials >= 0 {
		params.MaxTrials = *trials
	}
	if *candidates >= 0 {
		params.MaxCandidates = *candidates
	}
	if *seed != 0 {
		params.Seed = *seed
	}
	if *timeLimit > 0 {
		params.TimeLimit = *timeLimit
	}
	if *trace > params.TraceLevel {
		params.TraceLevel = *trace
	}
	var recorder *solver.TraceRecorder
	if *decisions != "" {
		recorder = solver.NewTraceRecorder(*decSteps)
		params.Recorder = recorder
	}

	s, err := solver.New(prob, params, log.New(os.Stderr, "", log.LstdFlags))
	if err != nil {
		log.Fatalf("configure: %v", err)
	}

	start := time.Now()
	res, err := s.Run(context.Background())
	if err != nil {
		log.Fatalf("solve: %v", err)
	}
	elapsed := time.Since(start)

	name := prob.Name
	if name == "" {
		name = "problem"
	}
	fmt.Printf("%s: %d stops, status %s\n", name, prob.BaseDimension(), res.Status)
	fmt.Printf("lower bound %.2f\n", res.LowerBound)
	if len(res.Tour) > 0 {
		fmt.Printf("tour cost %d after %d trials in %v\n", res.Cost, res.Trials, elapsed.Round(time.Millisecond))
	}

	if *output != "" && len(res.Tour) > 0 {
		if err := tsplib.WriteTourFile(*output, name, res.Tour, res.Cost); err != nil {
			log.Fatalf("write tour: %v", err)
		}
		fmt.Printf("tour written to %s\n", *output)
	}

	if recorder != nil {
		b, err := json.MarshalIndent(recorder.Decisions, "", "  ")
		if err != nil {
			log.Fatalf("encode decisions: %v", err)
		}
		if err := os.WriteFile(*decisions, b, 0o644); err != nil {
			log.Fatalf("write decisions: %v", err)
		}
		fmt.Printf("%d decisions written to %s (%d dropped)\n",
			len(recorder.Decisions), *decisions, recorder.Dropped())
	}
}
