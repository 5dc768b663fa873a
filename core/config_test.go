package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("TEST_GIST_ID", "g1")
	t.Setenv("TEST_GIST_APIURL", "http://localhost:9999/")
	t.Setenv("TEST_SCHEDULE_MAXSUGGESTIONS", "4")

	conf := NewConfig()
	assert.Equal(t, "TEST", conf.Env)
	assert.True(t, conf.TestMode)
	assert.Equal(t, DriverMemory, conf.Storage.Driver)
	assert.Equal(t, "lessons", conf.Storage.LessonsKey)
	assert.Equal(t, "g1", conf.Gist.ID)
	assert.Equal(t, "http://localhost:9999", conf.Gist.APIURL)
	assert.Equal(t, 15*time.Second, conf.Gist.Timeout)
	assert.Equal(t, 4, conf.Schedule.MaxSuggestions)
	assert.Equal(t, "08:00", conf.Schedule.DayStart)
	assert.Equal(t, "localhost:5432", conf.Database.Address())
}
