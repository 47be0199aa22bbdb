package pipeline

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jonathan/resume-grounder/internal/types"
)

// Status is the terminal state of one job
type Status string

// Job statuses
const (
	StatusAccepted           Status = "accepted"
	StatusRejected           Status = "rejected"
	StatusSkippedUnparseable Status = "skipped_unparseable"
	StatusSkippedTruncated   Status = "skipped_truncated"
	StatusSkippedTransient   Status = "skipped_transient"
	StatusSkippedError       Status = "skipped_error"
)

// Skipped reports whether the job ended without a validation verdict
func (s Status) Skipped() bool {
	return strings.HasPrefix(string(s), "skipped_")
}

// StopReason explains why a batch ended before its last job
type StopReason string

// Stop reasons
const (
	StopNone           StopReason = ""
	StopAuthentication StopReason = "authentication"
	StopBudget         StopReason = "budget"
	StopCancelled      StopReason = "cancelled"
)

// JobResult is the outcome of one job. Draft is set only when Status is accepted.
type JobResult struct {
	Key     string                     `json:"key"`
	Job     types.GenerationRequest    `json:"job"`
	Status  Status                     `json:"status"`
	Reason  string                     `json:"reason,omitempty"`
	Outcome *types.ValidationOutcome   `json:"outcome,omitempty"`
	Draft   *types.TailoredResumeDraft `json:"draft,omitempty"`
	Scoring *types.Scoring             `json:"scoring,omitempty"`
	Model   string                     `json:"model,omitempty"`
	Tokens  int64                      `json:"tokens"`
	DraftID uuid.UUID                  `json:"draft_id,omitempty"`
}

// BatchReport summarizes one batch run
type BatchReport struct {
	RunID      uuid.UUID    `json:"run_id"`
	Results    []*JobResult `json:"results"`
	Pending    int          `json:"pending"`
	TokensUsed int64        `json:"tokens_used"`
	Stopped    StopReason   `json:"stopped,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}

// Count returns how many jobs ended in status
func (r *BatchReport) Count(status Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// JobKey returns the job's ID, or a slug of company and title
func JobKey(job types.GenerationRequest) string {
	if job.JobID != "" {
		return job.JobID
	}
	return slug(job.Company + " " + job.JobTitle)
}

func slug(s string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			dash = false
			continue
		}
		if !dash && sb.Len() > 0 {
			sb.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(sb.String(), "-")
	if out == "" {
		return "job"
	}
	return out
}
