package core

import (
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type (
	Config struct {
		Env          string
		Build        string
		AppName      string
		Debug        bool
		TestMode     bool
		WorkDir      string
		RollbarToken string

		Server   ServerConfig
		Storage  StorageConfig
		Database DatabaseConfig
		Redis    RedisConfig
		Gist     GistConfig
		Schedule ScheduleConfig
	}

	ServerConfig struct {
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	StorageConfig struct {
		Driver      string
		Path        string // sqlite file
		LessonsKey  string
		LastSyncKey string
		TokenKey    string
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
		Channel  string
	}

	GistConfig struct {
		APIURL   string
		ID       string
		Filename string
		Token    string
		Timeout  time.Duration
	}

	ScheduleConfig struct {
		DayStart       string
		DayEnd         string
		MaxSuggestions int
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// NewConfig reads the configuration from defaults, the optional `config/.env.<env>` file and
// the ENV-prefixed environment variables (e.g. DEV_STORAGE_DRIVER).
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Tutorbook")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("server.host", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.path", "tutorbook.db")
	v.SetDefault("storage.lessonsKey", "lessons")
	v.SetDefault("storage.lastSyncKey", "lastSync")
	v.SetDefault("storage.tokenKey", "gistToken")
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "tutorbook")
	v.SetDefault("database.user", "tutorbook")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "tutorbook:changes")
	v.SetDefault("gist.apiURL", "https://api.github.com")
	v.SetDefault("gist.id", "")
	v.SetDefault("gist.filename", "lessons-data.json")
	v.SetDefault("gist.token", "")
	v.SetDefault("gist.timeout", 15*time.Second)
	v.SetDefault("schedule.dayStart", "08:00")
	v.SetDefault("schedule.dayEnd", "20:00")
	v.SetDefault("schedule.maxSuggestions", 8)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
		v.SetDefault("storage.driver", DriverMemory)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	workDir := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:          env,
		Build:        v.GetString("build"),
		AppName:      v.GetString("appName"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		WorkDir:      workDir,
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		},
		Storage: StorageConfig{
			Driver:      strings.ToLower(v.GetString("storage.driver")),
			Path:        v.GetString("storage.path"),
			LessonsKey:  v.GetString("storage.lessonsKey"),
			LastSyncKey: v.GetString("storage.lastSyncKey"),
			TokenKey:    v.GetString("storage.tokenKey"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			Channel:  v.GetString("redis.channel"),
		},
		Gist: GistConfig{
			APIURL:   strings.TrimRight(v.GetString("gist.apiURL"), "/"),
			ID:       v.GetString("gist.id"),
			Filename: v.GetString("gist.filename"),
			Token:    v.GetString("gist.token"),
			Timeout:  v.GetDuration("gist.timeout"),
		},
		Schedule: ScheduleConfig{
			DayStart:       v.GetString("schedule.dayStart"),
			DayEnd:         v.GetString("schedule.dayEnd"),
			MaxSuggestions: v.GetInt("schedule.maxSuggestions"),
		},
	}
}
