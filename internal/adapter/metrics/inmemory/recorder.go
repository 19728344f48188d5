package inmemory

import "sync"

// Snapshot is the KPI view served on /ops/kpi.
type Snapshot struct {
	ProgressionTotal    uint64            `json:"progression_total"`
	ProgressionSuccess  uint64            `json:"progression_success"`
	ProgressionConflict uint64            `json:"progression_conflict"`
	ProgressionFailure  uint64            `json:"progression_failure"`
	ProgressionRejected uint64            `json:"progression_rejected"`
	ByOutcome           map[string]uint64 `json:"by_outcome"`
	RejectedByReason    map[string]uint64 `json:"rejected_by_reason"`
}

type Recorder struct {
	mu        sync.Mutex
	success   uint64
	conflict  uint64
	failure   uint64
	rejected  uint64
	byOutcome map[string]uint64
	byReason  map[string]uint64
}

func NewRecorder() *Recorder {
	return &Recorder{
		byOutcome: map[string]uint64{},
		byReason:  map[string]uint64{},
	}
}

func (r *Recorder) RecordSuccess(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.success++
	r.byOutcome[outcome]++
}

func (r *Recorder) RecordConflict() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conflict++
}

func (r *Recorder) RecordFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failure++
}

// RecordRejected counts requests turned away before any state changed
// (busy lock, spent quota, unmet precondition).
func (r *Recorder) RecordRejected(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected++
	r.byReason[reason]++
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		ProgressionSuccess:  r.success,
		ProgressionConflict: r.conflict,
		ProgressionFailure:  r.failure,
		ProgressionRejected: r.rejected,
		ProgressionTotal:    r.success + r.conflict + r.failure + r.rejected,
		ByOutcome:           make(map[string]uint64, len(r.byOutcome)),
		RejectedByReason:    make(map[string]uint64, len(r.byReason)),
	}
	for k, v := range r.byOutcome {
		out.ByOutcome[k] = v
	}
	for k, v := range r.byReason {
		out.RejectedByReason[k] = v
	}
	return out
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}
