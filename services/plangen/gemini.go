package plangensvc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/luminastudy/lumina/core"
	"github.com/luminastudy/lumina/core/planner"
)

// planSchema constrains the model to the wire format below.
var planSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"studyPlan": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"day":             {Type: genai.TypeString},
					"startTime":       {Type: genai.TypeString, Description: "HH:MM format"},
					"endTime":         {Type: genai.TypeString, Description: "HH:MM format"},
					"subject":         {Type: genai.TypeString},
					"topic":           {Type: genai.TypeString},
					"durationMinutes": {Type: genai.TypeNumber},
				},
				Required: []string{"day", "startTime", "endTime", "subject", "topic", "durationMinutes"},
			},
		},
	},
}

type (
	wirePlan struct {
		StudyPlan []wireBlock `json:"studyPlan"`
	}

	wireBlock struct {
		Day             string  `json:"day"`
		StartTime       string  `json:"startTime"`
		EndTime         string  `json:"endTime"`
		Subject         string  `json:"subject"`
		Topic           string  `json:"topic"`
		DurationMinutes float64 `json:"durationMinutes"`
	}
)

type geminiService struct {
	client *genai.Client
	model  string
	logger core.Logger
}

var _ planner.Generator = (*geminiService)(nil)

// NewGeminiService builds the Gemini-backed plan generator.
func NewGeminiService(ctx context.Context, conf *core.Config, logger core.Logger) (planner.Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  conf.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating gemini client")
	}
	return &geminiService{client: client, model: conf.Gemini.Model, logger: logger}, nil
}

// GeneratePlan makes exactly one round trip; any failure surfaces as
// planner.ErrPlanGenerationFailed with the cause logged.
func (svc *geminiService) GeneratePlan(ctx context.Context, req planner.PlanRequest) ([]planner.StudyBlock, error) {
	resp, err := svc.client.Models.GenerateContent(ctx, svc.model, genai.Text(buildPrompt(req)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   planSchema,
	})
	if err != nil {
		svc.logger.Error(fmt.Sprintf("gemini call failed: %v", err), err)
		return nil, planner.ErrPlanGenerationFailed
	}

	blocks, err := parseBlocks(resp.Text())
	if err != nil {
		svc.logger.Error(fmt.Sprintf("unusable gemini response: %v", err), err)
		return nil, planner.ErrPlanGenerationFailed
	}
	return blocks, nil
}

func buildPrompt(req planner.PlanRequest) string {
	taskLines := make([]string, 0, len(req.Tasks))
	for _, t := range req.Tasks {
		taskLines = append(taskLines, fmt.Sprintf(
			"%s (%s, Due: %s, Difficulty: %s)",
			t.Title, t.Subject, t.DueDate.Format("2006-01-02"), t.Difficulty,
		))
	}

	days := make([]string, 0, len(planner.AllDays))
	for _, d := range planner.AllDays {
		days = append(days, string(d))
	}

	b := &strings.Builder{}
	_, _ = fmt.Fprintln(b, "Generate a highly structured 7-day study plan for a student with the following details:")
	_, _ = fmt.Fprintf(b, "- Subjects: %s\n", strings.Join(req.DedupedSubjects(), ", "))
	_, _ = fmt.Fprintf(b, "- Available Study Hours per day: %g\n", req.AvailableHoursPerDay)
	_, _ = fmt.Fprintf(b, "- Existing Tasks/Deadlines: %s\n", strings.Join(taskLines, "; "))
	_, _ = fmt.Fprintf(b, "- Additional Requirements: %s\n", req.Notes)
	_, _ = fmt.Fprintln(b)
	_, _ = fmt.Fprintln(b, "Rules:")
	_, _ = fmt.Fprintln(b, "1. Balance the workload across 7 days.")
	_, _ = fmt.Fprintln(b, "2. Include breaks (don't schedule more than 90 mins without a gap, but return only the study blocks).")
	_, _ = fmt.Fprintln(b, "3. Prioritize tasks with closer due dates and higher difficulty.")
	_, _ = fmt.Fprintln(b, "4. Each block should have a specific 'topic' derived from the subjects or tasks.")
	_, _ = fmt.Fprintf(b, "5. Ensure the 'day' field is one of: %s.\n", strings.Join(days, ", "))
	return b.String()
}

func parseBlocks(raw string) ([]planner.StudyBlock, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = "{}"
	}
	var plan wirePlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return nil, errors.Wrap(err, "decoding plan response")
	}

	blocks := make([]planner.StudyBlock, 0, len(plan.StudyPlan))
	for _, wb := range plan.StudyPlan {
		blocks = append(blocks, planner.StudyBlock{
			Day:             planner.Day(wb.Day),
			StartTime:       wb.StartTime,
			EndTime:         wb.EndTime,
			Subject:         wb.Subject,
			Topic:           wb.Topic,
			DurationMinutes: int(wb.DurationMinutes),
		})
	}
	return blocks, nil
}
