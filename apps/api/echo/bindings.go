package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/tutorbook/core/lesson"
)

var orderingParam = "ordering"

// Ordering binds `?ordering=student,-price`: comma separated fields, "-" for descending.
type Ordering struct {
	Orderings []lesson.Ordering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}
	ord.Orderings = lesson.ParseOrdering(val[0])
}
