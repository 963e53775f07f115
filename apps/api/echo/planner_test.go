package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/luminastudy/lumina/core/planner"
)

func addTask(t *testing.T, ta *testApp, title, subject string) planner.Task {
	t.Helper()
	task, err := ta.planner.AddTask(planner.NewTask{
		Title:      title,
		Subject:    subject,
		DueDate:    time.Date(2026, time.September, 15, 0, 0, 0, 0, time.UTC),
		Difficulty: planner.DifficultyMedium,
		Priority:   3,
	})
	if err != nil {
		t.Fatalf("addTask() failed: %v", err)
	}
	return task
}

func Test_plannerAPI_dashboard(t *testing.T) {
	ta := setup(t)
	_, token := ta.login(t, "someone@test.cd")

	t.Run("auth required", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}
		req, rec := newRequest(http.MethodGet, "/v1/dashboard")
		ta.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("empty stats", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, StatsResponse{})}
		req, rec := newAuthRequest(http.MethodGet, "/v1/dashboard", token)
		ta.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("live stats", func(t *testing.T) {
		task := addTask(t, ta, "One", "Maths")
		addTask(t, ta, "Two", "History")
		if err := ta.planner.ToggleTask(task.ID); err != nil {
			t.Fatalf("ToggleTask() failed: %v", err)
		}
		if _, err := ta.planner.SetPlan("acct-1", nil); err != nil {
			t.Fatalf("SetPlan() failed: %v", err)
		}
		if _, err := ta.session.UpgradeToPremium(); err != nil {
			t.Fatalf("UpgradeToPremium() failed: %v", err)
		}

		tt := httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, StatsResponse{TotalTasks: 2, CompletedTasks: 1, ActivePlan: true, PremiumStatus: true}),
		}
		req, rec := newAuthRequest(http.MethodGet, "/v1/dashboard", token)
		ta.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_plannerAPI_tasks(t *testing.T) {
	ta := setup(t)
	_, token := ta.login(t, "someone@test.cd")

	t.Run("add: validation", func(t *testing.T) {
		tt := httpTest{
			body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"title":      "this field is required",
				"subject":    "this field is required",
				"due_date":   "this field is required",
				"difficulty": "this field is required",
				"priority":   "this field is required",
			}),
		}
		req, rec := newAuthRequest(http.MethodPost, "/v1/tasks", token, tt.body)
		ta.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("add: invalid difficulty", func(t *testing.T) {
		body := marchallObj(t, planner.NewTask{
			Title: "x", Subject: "y", DueDate: time.Now(), Difficulty: "Impossible", Priority: 3,
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/tasks", token, body)
		ta.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("addTask code = %v; want %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("add", func(t *testing.T) {
		body := marchallObj(t, planner.NewTask{
			Title: "Past paper", Subject: "Maths", DueDate: time.Now().UTC(), Difficulty: planner.DifficultyHard, Priority: 5,
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/tasks", token, body)
		ta.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("addTask code = %v; want %v: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var task planner.Task
		if err := json.Unmarshal(rec.Body.Bytes(), &task); err != nil {
			t.Fatalf("Unmarshal() failed: %v", err)
		}
		if task.ID == "" {
			t.Error("addTask returned a task without an id")
		}
	})

	t.Run("list", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, ta.planner.Tasks())}
		req, rec := newAuthRequest(http.MethodGet, "/v1/tasks", token)
		ta.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("toggle", func(t *testing.T) {
		task := ta.planner.Tasks()[0]
		req, rec := newAuthRequest(http.MethodPost, "/v1/tasks/"+task.ID+"/toggle", token)
		ta.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("toggleTask code = %v; want %v", rec.Code, http.StatusNoContent)
		}
		if got := ta.planner.Tasks()[0]; !got.Completed {
			t.Error("toggleTask did not complete the task")
		}
	})

	t.Run("delete", func(t *testing.T) {
		task := ta.planner.Tasks()[0]
		req, rec := newAuthRequest(http.MethodDelete, "/v1/tasks/"+task.ID, token)
		ta.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("deleteTask code = %v; want %v", rec.Code, http.StatusNoContent)
		}
		if got := ta.planner.Tasks(); len(got) != 0 {
			t.Errorf("deleteTask left %d tasks", len(got))
		}
	})
}

func Test_plannerAPI_plan(t *testing.T) {
	ta := setup(t)
	acct, token := ta.login(t, "someone@test.cd")

	t.Run("none yet", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}
		req, rec := newAuthRequest(http.MethodGet, "/v1/plan", token)
		ta.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("generate", func(t *testing.T) {
		addTask(t, ta, "Past paper", "Maths")
		body := marchallObj(t, GeneratePlanRequest{Subjects: []string{"History"}, Notes: "mornings only"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/plan/generate", token, body)
		ta.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("generatePlan code = %v; want %v: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}

		var plan planner.StudyPlan
		if err := json.Unmarshal(rec.Body.Bytes(), &plan); err != nil {
			t.Fatalf("Unmarshal() failed: %v", err)
		}
		if plan.AccountID != acct.ID {
			t.Errorf("generatePlan account = %v; want %v", plan.AccountID, acct.ID)
		}
		if len(plan.Blocks) != len(ta.generator.Blocks) {
			t.Errorf("generatePlan = %d blocks; want %d", len(plan.Blocks), len(ta.generator.Blocks))
		}
		for _, b := range plan.Blocks {
			if b.ID == "" {
				t.Error("generatePlan left a block without an id")
			}
		}
	})

	t.Run("fetch", func(t *testing.T) {
		plan, ok := ta.planner.Plan()
		if !ok {
			t.Fatal("Plan() returned no plan")
		}
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, plan)}
		req, rec := newAuthRequest(http.MethodGet, "/v1/plan", token)
		ta.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("clear", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/plan", token)
		ta.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("clearPlan code = %v; want %v", rec.Code, http.StatusNoContent)
		}
		if _, ok := ta.planner.Plan(); ok {
			t.Error("clearPlan left a plan behind")
		}
	})
}

func Test_plannerAPI_generatePlan_failure(t *testing.T) {
	ta := setup(t)
	_, token := ta.login(t, "someone@test.cd")
	ta.generator.Err = planner.ErrPlanGenerationFailed

	tt := httpTest{
		wantCode: http.StatusBadGateway,
		wantData: marchallObj(t, httpErr{Error: planner.ErrPlanGenerationFailed.Error()}),
	}
	req, rec := newAuthRequest(http.MethodPost, "/v1/plan/generate", token, []byte(`{}`))
	ta.app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)

	// a failed generation must not disturb the stored plan
	if _, ok := ta.planner.Plan(); ok {
		t.Error("failed generation produced a plan")
	}
}

func Test_plannerAPI_resetData(t *testing.T) {
	ta := setup(t)
	_, token := ta.login(t, "someone@test.cd")

	addTask(t, ta, "One", "Maths")
	if _, err := ta.planner.SetPlan("acct-1", nil); err != nil {
		t.Fatalf("SetPlan() failed: %v", err)
	}

	req, rec := newAuthRequest(http.MethodDelete, "/v1/data", token)
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("resetData code = %v; want %v", rec.Code, http.StatusNoContent)
	}
	if len(ta.planner.Tasks()) != 0 {
		t.Error("resetData left tasks behind")
	}
	if _, ok := ta.planner.Plan(); ok {
		t.Error("resetData left a plan behind")
	}
}
