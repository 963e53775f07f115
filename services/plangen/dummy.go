package plangensvc

import (
	"context"

	"github.com/luminastudy/lumina/core/planner"
)

// DummyService returns canned blocks (or a forced error); used in tests and
// when no Gemini API key is configured.
type DummyService struct {
	Blocks []planner.StudyBlock
	Err    error
}

var _ planner.Generator = (*DummyService)(nil)

func NewDummyService() *DummyService {
	return &DummyService{
		Blocks: []planner.StudyBlock{
			{Day: planner.Monday, StartTime: "09:00", EndTime: "10:30", Subject: "Mathematics", Topic: "Integration by parts", DurationMinutes: 90},
			{Day: planner.Wednesday, StartTime: "14:00", EndTime: "15:00", Subject: "History", Topic: "Interwar period review", DurationMinutes: 60},
			{Day: planner.Saturday, StartTime: "10:00", EndTime: "11:30", Subject: "Mathematics", Topic: "Past paper practice", DurationMinutes: 90},
		},
	}
}

func (svc *DummyService) GeneratePlan(_ context.Context, _ planner.PlanRequest) ([]planner.StudyBlock, error) {
	if svc.Err != nil {
		return nil, svc.Err
	}
	out := make([]planner.StudyBlock, len(svc.Blocks))
	copy(out, svc.Blocks)
	return out, nil
}
