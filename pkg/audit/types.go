package audit

import (
	"encoding/json"
	"time"
)

// PolicyDecision is an immutable record of a single enforcement call.
// Records are append-only: nothing in the core mutates or deletes them
// except the retention sweeper, which drops whole rows past the retention
// horizon.
type PolicyDecision struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	// Subject
	PrincipalID string `json:"principal_id"`
	Mode        string `json:"mode"`
	FirmID      string `json:"firm_id,omitempty"`

	// Resource and action
	ResourceNamespace string `json:"resource_namespace"`
	ResourceID        string `json:"resource_id,omitempty"`
	Action            string `json:"action"`

	// Outcome
	Allowed    bool   `json:"allowed"`
	ReasonCode string `json:"reason_code"`

	// Request context
	RequestID  string        `json:"request_id,omitempty"`
	EvalTime   time.Duration `json:"eval_time"`
	RecordedBy string        `json:"recorded_by,omitempty"`
}

// ToJSON serializes the decision record.
func (d *PolicyDecision) ToJSON() ([]byte, error) {
	return json.Marshal(d)
}

// SearchFilter selects decision records for review tooling.
type SearchFilter struct {
	PrincipalID string
	FirmID      string
	Namespace   string
	ReasonCode  string
	Allowed     *bool
	StartTime   *time.Time
	EndTime     *time.Time
	Limit       int
	Offset      int
}

// RetentionPolicy defines how long decision records are kept.
type RetentionPolicy struct {
	// RetentionDays is the number of days to keep decision records.
	RetentionDays int

	// Schedule is a cron expression for the sweep. Defaults to daily at
	// 03:10 when empty.
	Schedule string
}

// DefaultRetentionPolicy returns the default policy (180 days, nightly sweep).
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		RetentionDays: 180,
		Schedule:      "10 3 * * *",
	}
}
