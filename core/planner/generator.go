package planner

import (
	"context"

	"github.com/pkg/errors"

	"github.com/luminastudy/lumina/core"
)

// ErrPlanGenerationFailed normalizes every generator failure (transport,
// auth, malformed response) into one recoverable, user-facing error. The
// underlying cause goes to the logs, not the caller. No retries: the failure
// is surfaced immediately, once.
var ErrPlanGenerationFailed = errors.New("failed to generate a study plan, please try again")

// PlanRequest is the input contract of the external plan generator.
type PlanRequest struct {
	Subjects             []string
	AvailableHoursPerDay float64
	Tasks                []Task
	Notes                string
}

// DedupedSubjects returns the subject set cleaned and deduplicated
// (case-insensitively), preserving first-seen order.
func (r PlanRequest) DedupedSubjects() []string {
	seen := make(map[string]struct{}, len(r.Subjects))
	out := make([]string, 0, len(r.Subjects))
	for _, s := range r.Subjects {
		s = core.CleanString(s)
		if s == "" {
			continue
		}
		key := core.CleanString(s, true)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Generator produces one 7-day cycle of study block candidates; it is not
// guaranteed to cover every day. Blocks come back without ids.
type Generator interface {
	GeneratePlan(ctx context.Context, req PlanRequest) ([]StudyBlock, error)
}
