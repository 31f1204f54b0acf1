package solver

// DecisionCandidate is one evaluated candidate edge at a decision point.
type DecisionCandidate struct {
	NodeID int     `json:"nodeId"`
	Cost   float64 `json:"cost"`
}

// Decision is one observed move decision: the state just before the engine
// commits to a neighbor, and the realized choice. Tour is a snapshot of stop
// ids in tour order; Cost is the unscaled tour cost at that point.
type Decision struct {
	Step       int                 `json:"step"`
	NodeID     int                 `json:"nodeId"`
	Tour       []int               `json:"tour"`
	Cost       int64               `json:"cost"`
	Candidates []DecisionCandidate `json:"candidates"`
	ChosenID   int                 `json:"chosenId"`
	Gain       float64             `json:"gain"`
}

// Recorder observes move decisions. Implementations must treat the Decision
// as read-only; the engine never reads anything back.
type Recorder interface {
	// Record is called once per decision while capacity remains. The slices
	// inside d are owned by the recorder after the call.
	Record(d Decision)
}

// TraceRecorder buffers decisions up to a fixed number of steps. Once full,
// further decisions are dropped silently; the search is unaffected either way.
type TraceRecorder struct {
	MaxSteps  int
	Decisions []Decision
	dropped   int
}

// NewTraceRecorder returns a recorder with the given step capacity.
func NewTraceRecorder(maxSteps int) *TraceRecorder {
	return &TraceRecorder{MaxSteps: maxSteps}
}

func (r *TraceRecorder) Record(d Decision) {
	if len(r.Decisions) >= r.MaxSteps {
		r.dropped++
		return
	}
	r.Decisions = append(r.Decisions, d)
}

// Dropped reports how many decisions arrived after capacity was reached.
func (r *TraceRecorder) Dropped() int { return r.dropped }

// record emits one decision to the configured recorder, if any. The tour
// snapshot and candidate list are materialized here so the engine's own state
// never escapes.
func (s *Solver) record(t1, chosen *Node, gain int64) {
	if s.params.Recorder == nil {
		return
	}
	seq := s.tour.sequence(s.firstNode())
	tour := make([]int, len(seq))
	for i, nd := range seq {
		tour[i] = nd.Id
	}
	cands := make([]DecisionCandidate, len(t1.Cand))
	for i, c := range t1.Cand {
		cands[i] = DecisionCandidate{NodeID: c.To.Id, Cost: float64(c.Cost) / float64(s.precision)}
	}
	s.params.Recorder.Record(Decision{
		Step:       s.recordStep,
		NodeID:     t1.Id,
		Tour:       tour,
		Cost:       s.currentCost,
		Candidates: cands,
		ChosenID:   chosen.Id,
		Gain:       float64(gain) / float64(s.precision),
	})
	s.recordStep++
}
