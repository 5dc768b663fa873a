package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tutorbook/core"
	"github.com/trezcool/tutorbook/core/lesson"
)

type lessonApi struct {
	store *lesson.Store
}

func registerLessonAPI(g *echo.Group, store *lesson.Store) {
	api := lessonApi{store: store}

	lg := g.Group("/lessons")
	lg.GET("", api.query)
	lg.POST("", api.create)
	lg.POST("/reload", api.reload)
	lg.GET("/availability", api.availability)
	lg.GET("/slots", api.slots)

	// detail endpoints
	dg := lg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.POST("/payment", api.markPaid)
	dg.DELETE("/payment", api.markPending)
}

// parseDay parses a YYYY-MM-DD query param, defaulting to today.
func parseDay(ctx echo.Context, param string, now time.Time) (time.Time, error) {
	val := core.CleanString(ctx.QueryParam(param))
	if val == "" {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.Local), nil
	}
	day, err := lesson.ParseDate(val)
	if err != nil {
		return time.Time{}, core.NewValidationError(
			errors.Wrapf(err, "parsing %s", param),
			core.FieldError{Field: param, Error: param + " has an invalid format"},
		)
	}
	return day, nil
}

// warnings lists what the caller may want to double-check after writing l.
func (api *lessonApi) warnings(l lesson.Lesson, now time.Time) Warnings {
	all := api.store.All()
	similar := lesson.SimilarStudents(all, l.Student)
	if similar == nil {
		similar = []string{}
	}
	return Warnings{
		Conflicts:       newLessonViews(lesson.Conflicts(all, l.ScheduledAt, l.ID), now),
		SimilarStudents: similar,
	}
}

// Handlers

func (api *lessonApi) query(ctx echo.Context) error {
	var qf lesson.QueryFilter
	if err := ctx.Bind(&qf); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	qf.Clean()

	var ord Ordering
	ord.Bind(ctx)

	now := api.store.Now()
	lessons, err := qf.Apply(api.store.All(), now)
	if err != nil {
		return err
	}
	lesson.Sort(lessons, ord.Orderings...)
	return ctx.JSON(http.StatusOK, newLessonViews(lessons, now))
}

func (api *lessonApi) create(ctx echo.Context) error {
	var data lesson.NewLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}

	l, err := api.store.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating lesson")
	}

	now := api.store.Now()
	return ctx.JSON(http.StatusCreated, WriteResponse{
		Lesson:   newLessonView(l, now),
		Warnings: api.warnings(l, now),
	})
}

func (api *lessonApi) retrieve(ctx echo.Context) error {
	l, err := api.store.Get(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newLessonView(l, api.store.Now()))
}

func (api *lessonApi) update(ctx echo.Context) error {
	var data lesson.UpdateLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLesson")
	}

	l, err := api.store.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating lesson")
	}

	now := api.store.Now()
	return ctx.JSON(http.StatusOK, WriteResponse{
		Lesson:   newLessonView(l, now),
		Warnings: api.warnings(l, now),
	})
}

func (api *lessonApi) destroy(ctx echo.Context) error {
	if err := api.store.Remove(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "removing lesson")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *lessonApi) markPaid(ctx echo.Context) error {
	var data lesson.Payment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Payment")
	}

	l, err := api.store.MarkPaid(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "marking lesson as paid")
	}
	return ctx.JSON(http.StatusOK, newLessonView(l, api.store.Now()))
}

func (api *lessonApi) markPending(ctx echo.Context) error {
	l, err := api.store.MarkPending(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "marking lesson as pending")
	}
	return ctx.JSON(http.StatusOK, newLessonView(l, api.store.Now()))
}

func (api *lessonApi) reload(ctx echo.Context) error {
	n := api.store.Reload(ctx.Request().Context())
	return ctx.JSON(http.StatusOK, echo.Map{"count": n})
}

func (api *lessonApi) availability(ctx echo.Context) error {
	var query AvailabilityQuery
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to AvailabilityQuery")
	}
	query.clean()

	av, err := api.store.CheckAvailability(query.Date, query.Time, query.Exclude)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, AvailabilityResponse{
		Available: av.Available,
		Conflicts: newLessonViews(av.Conflicts, api.store.Now()),
	})
}

func (api *lessonApi) slots(ctx echo.Context) error {
	day, err := parseDay(ctx, "date", api.store.Now())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"date":  day.Format(lesson.DateLayout),
		"slots": api.store.SuggestSlots(day),
	})
}

type AvailabilityQuery struct {
	Date    string `query:"date"`
	Time    string `query:"time"`
	Exclude string `query:"exclude"`
}

func (q *AvailabilityQuery) clean() {
	q.Date = core.CleanString(q.Date)
	q.Time = core.CleanString(q.Time)
	q.Exclude = core.CleanString(q.Exclude)
}
