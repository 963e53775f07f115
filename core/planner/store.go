package planner

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/luminastudy/lumina/core"
)

// Store owns the per-session task collection and at most one study plan,
// both persisted as independent records. Absent records load as empty
// defaults; so do corrupt ones, instead of failing startup.
type Store struct {
	mu    sync.RWMutex
	store core.KVStore
	tasks []Task
	plan  *StudyPlan
}

func NewStore(store core.KVStore) *Store {
	return &Store{store: store}
}

// Load restores the task collection and the current plan.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = nil
	s.plan = nil

	data, err := s.store.Get(core.KeyTasks)
	switch errors.Cause(err) {
	case nil:
		var tasks []Task
		if jErr := json.Unmarshal(data, &tasks); jErr == nil {
			s.tasks = tasks
		}
	case core.ErrKeyNotFound:
	default:
		return errors.Wrap(err, "reading tasks")
	}

	data, err = s.store.Get(core.KeyPlan)
	switch errors.Cause(err) {
	case nil:
		var plan StudyPlan
		if jErr := json.Unmarshal(data, &plan); jErr == nil {
			s.plan = &plan
		}
	case core.ErrKeyNotFound:
	default:
		return errors.Wrap(err, "reading plan")
	}
	return nil
}

// Tasks returns the task collection in insertion order.
func (s *Store) Tasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Plan returns the current plan, if one exists. An empty plan (zero blocks)
// is still a plan; only ClearPlan and ResetData remove it.
func (s *Store) Plan() (StudyPlan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.plan == nil {
		return StudyPlan{}, false
	}
	return *s.plan, true
}

// AddTask assigns a fresh id, appends and persists the full collection.
func (s *Store) AddTask(nt NewTask) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := Task{
		ID:         uuid.New().String(),
		Title:      nt.Title,
		Subject:    nt.Subject,
		DueDate:    nt.DueDate,
		Difficulty: nt.Difficulty,
		Priority:   nt.Priority,
	}
	s.tasks = append(s.tasks, task)
	if err := s.flushTasks(); err != nil {
		s.tasks = s.tasks[:len(s.tasks)-1]
		return Task{}, err
	}
	return task, nil
}

// ToggleTask flips completion on the matching task; no-op if the id is absent.
func (s *Store) ToggleTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i].Completed = !s.tasks[i].Completed
			return s.flushTasks()
		}
	}
	return nil
}

// DeleteTask removes the matching task; no-op if the id is absent.
func (s *Store) DeleteTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return s.flushTasks()
		}
	}
	return nil
}

// SetPlan wraps the blocks into a new plan, replacing any existing one.
// Blocks arriving without an id are assigned one before storage.
func (s *Store) SetPlan(accountID string, blocks []StudyBlock) (StudyPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if blocks == nil {
		blocks = []StudyBlock{}
	}
	for i := range blocks {
		if blocks[i].ID == "" {
			blocks[i].ID = uuid.New().String()
		}
	}
	plan := StudyPlan{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Title:     "Plan generated on " + now.Format("2006-01-02"),
		CreatedAt: now,
		Blocks:    blocks,
	}

	data, err := json.Marshal(plan)
	if err != nil {
		return StudyPlan{}, errors.Wrap(err, "marshalling plan")
	}
	if err := s.store.Set(core.KeyPlan, data); err != nil {
		return StudyPlan{}, errors.Wrap(err, "persisting plan")
	}
	s.plan = &plan
	return plan, nil
}

// ClearPlan removes the current plan and its persisted record.
func (s *Store) ClearPlan() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plan = nil
	return errors.Wrap(s.store.Delete(core.KeyPlan), "removing plan record")
}

// ResetData clears tasks and plan along with their persisted records.
// Irreversible.
func (s *Store) ResetData() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = nil
	s.plan = nil
	if err := s.store.Delete(core.KeyTasks); err != nil {
		return errors.Wrap(err, "removing tasks record")
	}
	return errors.Wrap(s.store.Delete(core.KeyPlan), "removing plan record")
}

// flushTasks re-serializes the whole collection; callers hold the write lock.
func (s *Store) flushTasks() error {
	data, err := json.Marshal(s.tasks)
	if err != nil {
		return errors.Wrap(err, "marshalling tasks")
	}
	return errors.Wrap(s.store.Set(core.KeyTasks, data), "flushing tasks")
}
