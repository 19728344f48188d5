package ports

type ProgressionMetrics interface {
	RecordSuccess(outcome string)
	RecordConflict()
	RecordFailure()
	RecordRejected(reason string)
}
