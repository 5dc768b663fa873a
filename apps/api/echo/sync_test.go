package echoapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tutorbook/core/lesson"
)

func Test_syncApi_pushPull(t *testing.T) {
	var remote string
	env := setup(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPatch:
			var body struct {
				Files map[string]struct {
					Content string `json:"content"`
				} `json:"files"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			remote = body.Files["lessons-data.json"].Content
			_, _ = w.Write([]byte(`{"updated_at":"2024-03-12T09:00:00Z"}`))
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"updated_at": "2024-03-12T09:30:00Z",
				"files":      map[string]interface{}{"lessons-data.json": map[string]string{"content": remote}},
			})
		}
	})
	l := env.createLesson(t, "Ana", "2024-03-10", "09:00", "25")

	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"updatedAt":"2024-03-12T09:00:00Z"}`)},
		env.do(http.MethodPost, "/v1/sync/push"))
	assert.Contains(t, remote, l.ID)

	// local changes are overwritten by the pull
	require.NoError(t, env.store.Remove(ctxb(), l.ID))
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"count":1}`)},
		env.do(http.MethodPost, "/v1/sync/pull"))
	_, err := env.store.Get(l.ID)
	assert.NoError(t, err)

	rec := env.do(http.MethodGet, "/v1/sync")
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: []byte(`{"hasToken":true,"token":"ghp_abc...6789","lastSync":"2024-03-12T09:30:00Z"}`),
	}, rec)
}

func Test_syncApi_errors(t *testing.T) {
	env := setup(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadGateway,
		wantData: marshallObj(t, httpErr{Error: "gist token invalid or revoked"}),
	}, env.do(http.MethodPost, "/v1/sync/pull"))

	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: []byte(`{"token":"token must start with \"ghp_\""}`),
	}, env.do(http.MethodPut, "/v1/sync/token", []byte(`{"token":"abc"}`)))
}

func Test_syncApi_token(t *testing.T) {
	env := setup(t, nil)
	token := "ghp_" + strings.Repeat("x", 32) + "WXYZ"

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodPut, "/v1/sync/token", []byte(`{"token":"`+token+`"}`)).Code)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: []byte(`{"hasToken":true,"token":"ghp_xxx...WXYZ","lastSync":null}`),
	}, env.do(http.MethodGet, "/v1/sync"))

	// back to the configured token
	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/v1/sync/token").Code)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: []byte(`{"hasToken":true,"token":"ghp_abc...6789","lastSync":null}`),
	}, env.do(http.MethodGet, "/v1/sync"))
}

func Test_syncApi_exportImport(t *testing.T) {
	env := setup(t, nil)
	l := env.createLesson(t, "Ana", "2024-03-10", "09:00", "25")

	rec := env.do(http.MethodGet, "/v1/export/csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="lessons-backup-2024-03-12.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t,
		"id,student,date,time,price,paymentState,derivedStatus,paidAt,paymentMethod,paymentNotes,notes\n"+
			l.ID+",Ana,2024-03-10,09:00,25,pending,pending,,,,\n",
		rec.Body.String())

	rec = env.do(http.MethodGet, "/v1/export/json")
	require.Equal(t, http.StatusOK, rec.Code)
	backup, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	// wipe everything, then restore the backup
	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/v1/data").Code)
	assert.Empty(t, env.store.All())

	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"count":1}`)},
		env.do(http.MethodPost, "/v1/import", backup))
	got, err := env.store.Get(l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Student)

	rec = env.do(http.MethodPost, "/v1/import", []byte(`{"not":"a backup"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, env.store.All(), 1)
}

func Test_calendarApi(t *testing.T) {
	env := setup(t, nil)
	a := env.createLesson(t, "Ana", "2024-03-12", "15:00", "25")
	b := env.createLesson(t, "Luis", "2024-03-12", "09:00", "40")
	c := env.createLesson(t, "Ana", "2024-03-17", "10:00", "25")
	env.createLesson(t, "Marta", "2024-03-18", "10:00", "20")
	_, err := env.store.MarkPaid(ctxb(), a.ID, lesson.Payment{})
	require.NoError(t, err)

	t.Run("day", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/calendar/day")
		require.Equal(t, http.StatusOK, rec.Code)
		var got DayView
		decode(t, rec, &got)
		assert.Equal(t, "2024-03-12", got.Date)
		if assert.Len(t, got.Lessons, 2) {
			assert.Equal(t, b.ID, got.Lessons[0].ID)
			assert.Equal(t, a.ID, got.Lessons[1].ID)
		}
		assert.Equal(t, "65", got.Income.String())
	})

	t.Run("week", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/calendar/week?date=2024-03-14")
		require.Equal(t, http.StatusOK, rec.Code)
		var got WeekView
		decode(t, rec, &got)
		assert.Equal(t, "2024-03-11", got.Start)
		assert.Equal(t, "2024-03-17", got.End)
		assert.Len(t, got.Lessons, 3)
		assert.Equal(t, c.ID, got.Lessons[2].ID)
	})

	t.Run("month", func(t *testing.T) {
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: []byte(`{"year":2024,"month":3,"days":{"12":2,"17":1,"18":1}}`),
		}, env.do(http.MethodGet, "/v1/calendar/month"))

		assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/v1/calendar/month?month=0").Code)
	})

	t.Run("stats", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/stats?top=1")
		require.Equal(t, http.StatusOK, rec.Code)
		var got lesson.Summary
		decode(t, rec, &got)
		assert.Equal(t, 4, got.TotalLessons)
		assert.Equal(t, "25", got.MonthlyRevenue.String())
		assert.Equal(t, 3, got.UniqueStudents)
		assert.Equal(t, lesson.BucketCounts{Paid: 1, Pending: 3}, got.Buckets)
		if assert.Len(t, got.TopStudents, 1) {
			assert.Equal(t, "Ana", got.TopStudents[0].Student)
		}
		assert.Equal(t, 2, got.TodayLessons)
		assert.Equal(t, "65", got.TodayIncome.String())

		assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/v1/stats?top=zero").Code)
	})
}
