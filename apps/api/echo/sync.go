package echoapi

import (
	"bytes"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tutorbook/core/lesson"
	exportsvc "github.com/trezcool/tutorbook/services/export"
	syncsvc "github.com/trezcool/tutorbook/services/sync"
)

type syncApi struct {
	store *lesson.Store
	sync  *syncsvc.Service
}

type SyncStatus struct {
	HasToken bool       `json:"hasToken"`
	Token    string     `json:"token,omitempty"` // masked
	LastSync *time.Time `json:"lastSync"`
}

type SetTokenRequest struct {
	Token string `json:"token"`
}

func registerSyncAPI(g *echo.Group, store *lesson.Store, sync *syncsvc.Service) {
	api := syncApi{store: store, sync: sync}

	sg := g.Group("/sync")
	sg.GET("", api.status)
	sg.GET("/info", api.info)
	sg.POST("/push", api.push)
	sg.POST("/pull", api.pull)
	sg.PUT("/token", api.setToken)
	sg.DELETE("/token", api.clearToken)

	g.GET("/export/csv", api.exportCSV)
	g.GET("/export/json", api.exportJSON)
	g.POST("/import", api.importJSON)
	g.DELETE("/data", api.clearData)
}

func (api *syncApi) status(ctx echo.Context) error {
	c := ctx.Request().Context()
	res := SyncStatus{
		HasToken: api.sync.HasToken(c),
		Token:    api.sync.MaskedToken(c),
	}
	if last, ok := api.sync.LastSync(c); ok {
		res.LastSync = &last
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *syncApi) info(ctx echo.Context) error {
	info, err := api.sync.Info(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting sync info")
	}
	return ctx.JSON(http.StatusOK, info)
}

func (api *syncApi) push(ctx echo.Context) error {
	at, err := api.sync.Push(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"updatedAt": at})
}

func (api *syncApi) pull(ctx echo.Context) error {
	n, err := api.sync.Pull(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"count": n})
}

func (api *syncApi) setToken(ctx echo.Context) error {
	var data SetTokenRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetTokenRequest")
	}
	if err := api.sync.SetToken(ctx.Request().Context(), data.Token); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *syncApi) clearToken(ctx echo.Context) error {
	if err := api.sync.ClearToken(ctx.Request().Context()); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *syncApi) exportCSV(ctx echo.Context) error {
	now := api.store.Now()
	var buf bytes.Buffer
	if err := exportsvc.WriteCSV(&buf, lesson.SortByTime(api.store.All()), now); err != nil {
		return errors.Wrap(err, "exporting csv")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+exportsvc.Filename(now, "csv")+`"`)
	return ctx.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (api *syncApi) exportJSON(ctx echo.Context) error {
	now := api.store.Now()
	var buf bytes.Buffer
	if err := exportsvc.WriteJSON(&buf, api.store.All()); err != nil {
		return errors.Wrap(err, "exporting json")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+exportsvc.Filename(now, "json")+`"`)
	return ctx.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, buf.Bytes())
}

// importJSON replaces the whole collection with the posted backup.
func (api *syncApi) importJSON(ctx echo.Context) error {
	lessons, err := exportsvc.ReadJSON(ctx.Request().Body)
	if err != nil {
		return err
	}
	if err = api.store.Replace(ctx.Request().Context(), lessons); err != nil {
		return errors.Wrap(err, "importing lessons")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"count": len(lessons)})
}

func (api *syncApi) clearData(ctx echo.Context) error {
	if err := api.sync.ClearData(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "clearing data")
	}
	return ctx.NoContent(http.StatusNoContent)
}
