package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/luminastudy/lumina/core/account"
	"github.com/luminastudy/lumina/core/planner"
	"github.com/luminastudy/lumina/core/session"
)

type plannerAPI struct {
	session   *session.Session
	store     *planner.Store
	generator planner.Generator
	validate  *validator.Validate
}

func registerPlannerAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := plannerAPI{
		session:   deps.Session,
		store:     deps.Planner,
		generator: deps.Generator,
		validate:  deps.Validate,
	}

	ag := g.Group("", jwt)
	ag.GET("/dashboard", api.dashboard)

	ag.GET("/tasks", api.queryTasks)
	ag.POST("/tasks", api.addTask)
	ag.POST("/tasks/:id/toggle", api.toggleTask)
	ag.DELETE("/tasks/:id", api.deleteTask)

	ag.GET("/plan", api.plan)
	ag.POST("/plan/generate", api.generatePlan)
	ag.DELETE("/plan", api.clearPlan)

	ag.DELETE("/data", api.resetData)
}

// Handlers

func (api *plannerAPI) dashboard(ctx echo.Context) error {
	tasks := api.store.Tasks()
	var completed int
	for _, t := range tasks {
		if t.Completed {
			completed++
		}
	}
	_, hasPlan := api.store.Plan()

	var premium bool
	if acct, ok := api.session.Current(); ok {
		premium = acct.Role == account.RolePremium
	}

	return ctx.JSON(http.StatusOK, StatsResponse{
		TotalTasks:     len(tasks),
		CompletedTasks: completed,
		ActivePlan:     hasPlan,
		PremiumStatus:  premium,
	})
}

func (api *plannerAPI) queryTasks(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.store.Tasks())
}

func (api *plannerAPI) addTask(ctx echo.Context) error {
	var data planner.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	task, err := api.store.AddTask(data)
	if err != nil {
		return errors.Wrap(err, "adding task")
	}
	return ctx.JSON(http.StatusCreated, task)
}

func (api *plannerAPI) toggleTask(ctx echo.Context) error {
	if err := api.store.ToggleTask(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "toggling task")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *plannerAPI) deleteTask(ctx echo.Context) error {
	if err := api.store.DeleteTask(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *plannerAPI) plan(ctx echo.Context) error {
	plan, ok := api.store.Plan()
	if !ok {
		return errHTTPNotFound
	}
	return ctx.JSON(http.StatusOK, plan)
}

// generatePlan makes one round trip to the external generator and replaces
// the current plan on success. A failed generation leaves the plan untouched.
func (api *plannerAPI) generatePlan(ctx echo.Context) error {
	acct, ok := api.session.Current()
	if !ok {
		return errUnauthorized
	}

	var data GeneratePlanRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GeneratePlanRequest")
	}

	tasks := api.store.Tasks()
	subjects := data.Subjects
	for _, t := range tasks {
		subjects = append(subjects, t.Subject)
	}

	blocks, err := api.generator.GeneratePlan(ctx.Request().Context(), planner.PlanRequest{
		Subjects:             subjects,
		AvailableHoursPerDay: acct.StudyHoursPerDay,
		Tasks:                tasks,
		Notes:                data.Notes,
	})
	if err != nil {
		return errors.Wrap(err, "generating plan")
	}

	plan, err := api.store.SetPlan(acct.ID, blocks)
	if err != nil {
		return errors.Wrap(err, "storing plan")
	}
	return ctx.JSON(http.StatusCreated, plan)
}

func (api *plannerAPI) clearPlan(ctx echo.Context) error {
	if err := api.store.ClearPlan(); err != nil {
		return errors.Wrap(err, "clearing plan")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *plannerAPI) resetData(ctx echo.Context) error {
	if err := api.store.ResetData(); err != nil {
		return errors.Wrap(err, "resetting data")
	}
	return ctx.NoContent(http.StatusNoContent)
}
