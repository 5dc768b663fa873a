package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/trezcool/tutorbook/core"
	"github.com/trezcool/tutorbook/core/lesson"
)

type calendarApi struct {
	store *lesson.Store
}

type (
	DayView struct {
		Date    string          `json:"date"`
		Lessons []LessonView    `json:"lessons"`
		Income  decimal.Decimal `json:"income"`
	}

	WeekView struct {
		Start   string       `json:"start"`
		End     string       `json:"end"`
		Lessons []LessonView `json:"lessons"`
	}

	MonthView struct {
		Year  int         `json:"year"`
		Month int         `json:"month"`
		Days  map[int]int `json:"days"` // lesson count per day of month
	}
)

func registerCalendarAPI(g *echo.Group, store *lesson.Store) {
	api := calendarApi{store: store}

	g.GET("/stats", api.stats)

	cg := g.Group("/calendar")
	cg.GET("/day", api.day)
	cg.GET("/week", api.week)
	cg.GET("/month", api.month)
}

func (api *calendarApi) stats(ctx echo.Context) error {
	now := api.store.Now()
	lessons := api.store.All()
	summary := lesson.Summarize(lessons, now)

	if top := ctx.QueryParam("top"); top != "" {
		limit, err := strconv.Atoi(top)
		if err != nil || limit < 1 {
			return core.NewValidationError(nil, core.FieldError{Field: "top", Error: "top must be a positive number"})
		}
		summary.TopStudents = lesson.TopStudents(lessons, limit)
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *calendarApi) day(ctx echo.Context) error {
	now := api.store.Now()
	day, err := parseDay(ctx, "date", now)
	if err != nil {
		return err
	}
	lessons := lesson.ByDate(api.store.All(), day)
	return ctx.JSON(http.StatusOK, DayView{
		Date:    day.Format(lesson.DateLayout),
		Lessons: newLessonViews(lessons, now),
		Income:  lesson.DayIncome(lessons, day),
	})
}

func (api *calendarApi) week(ctx echo.Context) error {
	now := api.store.Now()
	anchor, err := parseDay(ctx, "date", now)
	if err != nil {
		return err
	}
	start := lesson.WeekStart(anchor)
	return ctx.JSON(http.StatusOK, WeekView{
		Start:   start.Format(lesson.DateLayout),
		End:     start.AddDate(0, 0, 6).Format(lesson.DateLayout),
		Lessons: newLessonViews(lesson.ByWeek(api.store.All(), anchor), now),
	})
}

func (api *calendarApi) month(ctx echo.Context) error {
	now := api.store.Now()
	year, month := now.Year(), int(now.Month())

	var err error
	if v := ctx.QueryParam("year"); v != "" {
		if year, err = strconv.Atoi(v); err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "year", Error: "year must be a number"})
		}
	}
	if v := ctx.QueryParam("month"); v != "" {
		if month, err = strconv.Atoi(v); err != nil || month < 1 || month > 12 {
			return core.NewValidationError(nil, core.FieldError{Field: "month", Error: "month must be between 1 and 12"})
		}
	}
	return ctx.JSON(http.StatusOK, MonthView{
		Year:  year,
		Month: month,
		Days:  lesson.MonthCalendar(api.store.All(), year, time.Month(month)),
	})
}
