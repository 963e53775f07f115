package planner

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/luminastudy/lumina/core"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type Day string

const (
	Monday    Day = "Monday"
	Tuesday   Day = "Tuesday"
	Wednesday Day = "Wednesday"
	Thursday  Day = "Thursday"
	Friday    Day = "Friday"
	Saturday  Day = "Saturday"
	Sunday    Day = "Sunday"
)

var AllDays = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

func (d Day) Valid() bool {
	for _, day := range AllDays {
		if d == day {
			return true
		}
	}
	return false
}

type Task struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Subject    string     `json:"subject"`
	DueDate    time.Time  `json:"due_date"`
	Difficulty Difficulty `json:"difficulty"`
	Completed  bool       `json:"completed"`
	Priority   int        `json:"priority"` // 1 to 5
}

// StudyBlock content is produced by the external generator; the store only
// attaches ids, it never synthesizes or validates block content.
type StudyBlock struct {
	ID              string `json:"id"`
	Day             Day    `json:"day"`
	StartTime       string `json:"start_time"` // wall clock, HH:MM
	EndTime         string `json:"end_time"`   // wall clock, HH:MM
	Subject         string `json:"subject"`
	Topic           string `json:"topic"`
	DurationMinutes int    `json:"duration_minutes"`
}

type StudyPlan struct {
	ID        string       `json:"id"`
	AccountID string       `json:"account_id"`
	Title     string       `json:"title"`
	CreatedAt time.Time    `json:"created_at"`
	Blocks    []StudyBlock `json:"blocks"`
}

// NewTask contains information needed to add a Task.
type NewTask struct {
	Title      string     `json:"title" validate:"required"`
	Subject    string     `json:"subject" validate:"required"`
	DueDate    time.Time  `json:"due_date" validate:"required"`
	Difficulty Difficulty `json:"difficulty" validate:"required,oneof=Easy Medium Hard"`
	Priority   int        `json:"priority" validate:"required,min=1,max=5"`
}

func (nt *NewTask) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	nt.Subject = core.CleanString(nt.Subject)
	return validate.Struct(nt)
}
