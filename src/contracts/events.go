package contracts

// Stage status values recorded in the execution log.
const (
	StageStarted   = "started"
	StageCompleted = "completed"
	StageFailed    = "failed"
)

// StageEvent is one stage status transition of a pipeline run.
// Published to: incidentops.pipeline.stages
// Key: {run_id}
type StageEvent struct {
	RunID     string `json:"run_id"`
	Pipeline  string `json:"pipeline"`
	Stage     string `json:"stage"`
	Status    string `json:"status"`
	ItemCount int    `json:"item_count"`
	// Time spent in the stage; zero for "started".
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// Topic names used when run events are published to a broker.
const (
	// TopicStageEvents carries every StageEvent.
	TopicStageEvents = "incidentops.pipeline.stages"

	// TopicGovernanceReports carries the terminal GovernanceReport of each full run.
	TopicGovernanceReports = "incidentops.governance.reports"
)
