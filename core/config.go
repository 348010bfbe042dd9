package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Conf is the process-wide configuration, loaded once at start up.
var Conf *Config

type (
	ServerConfig struct {
		Host                      string
		Address                   string
		DebugAddress              string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		ShutdownTimeout           time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	AIConfig struct {
		BaseURL string
		APIKey  string
		Model   string
		Timeout time.Duration
	}

	Config struct {
		AppName              string
		Env                  string
		Build                string
		Debug                bool
		TestMode             bool
		WorkDir              string
		SecretKey            string
		DefaultFromEmail     mail.Address
		FrontendBaseURL      string
		Timezone             string
		Location             *time.Location
		SendgridAPIKey       string
		RollbarToken         string
		SentryDSN            string
		LogLevel             string
		PasswordResetTimeout time.Duration
		AttendanceCron       string
		TokenPurgeCron       string
		StorageDir           string
		Server               ServerConfig
		Database             DatabaseConfig
		AI                   AIConfig
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func init() {
	Conf = NewConfig()
}

// NewConfig reads the configuration from the environment, prefixed by the value of ENV
// (DEV (local; default), TEST, QA, PROD). A `config/.env.<env>` file is loaded first if it exists.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Swimschool")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "t4e!x=8ka@q$0v1z)h2k#u6n7^e-bwc&p+yj3(m5_r9sdlfg0")
	v.SetDefault("defaultFromEmail", "Swimschool <noreply@localhost>")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("timezone", "America/Mexico_City")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sentryDsn", "")
	v.SetDefault("logLevel", "info")
	v.SetDefault("passwordResetTimeout", 15*time.Minute)
	v.SetDefault("attendanceCron", "0 22 * * *")
	v.SetDefault("tokenPurgeCron", "@hourly")
	v.SetDefault("storageDir", "public")

	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddress", ":8000")
	v.SetDefault("debugAddress", ":4000")
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("shutdownTimeout", 5*time.Second)

	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", 5432)
	v.SetDefault("dbName", "swimschool")
	v.SetDefault("dbUser", "swimschool")
	v.SetDefault("dbPassword", "swimschool")
	v.SetDefault("dbAdminUser", "postgres")
	v.SetDefault("dbAdminPassword", "postgres")
	v.SetDefault("dbDisableTls", true)

	v.SetDefault("aiBaseUrl", "https://openrouter.ai/api/v1")
	v.SetDefault("aiApiKey", "")
	v.SetDefault("aiModel", "meta-llama/llama-3.3-70b-instruct:free")
	v.SetDefault("aiTimeout", 30*time.Second)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	wd := Getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}

	tz := v.GetString("timezone")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config.timezone(%s): %v; falling back to UTC", tz, err)
		loc = time.UTC
	}

	storageDir := v.GetString("storageDir")
	if !filepath.IsAbs(storageDir) {
		storageDir = filepath.Join(wd, storageDir)
	}

	return &Config{
		AppName:              v.GetString("appName"),
		Env:                  env,
		Build:                v.GetString("build"),
		Debug:                v.GetBool("debug"),
		TestMode:             v.GetBool("testMode"),
		WorkDir:              wd,
		SecretKey:            v.GetString("secretKey"),
		DefaultFromEmail:     *from,
		FrontendBaseURL:      strings.TrimSuffix(v.GetString("frontendBaseURL"), "/"),
		Timezone:             tz,
		Location:             loc,
		SendgridAPIKey:       v.GetString("sendgridApiKey"),
		RollbarToken:         v.GetString("rollbarToken"),
		SentryDSN:            v.GetString("sentryDsn"),
		LogLevel:             v.GetString("logLevel"),
		PasswordResetTimeout: v.GetDuration("passwordResetTimeout"),
		AttendanceCron:       v.GetString("attendanceCron"),
		TokenPurgeCron:       v.GetString("tokenPurgeCron"),
		StorageDir:           storageDir,
		Server: ServerConfig{
			Host:                      v.GetString("serverHost"),
			Address:                   v.GetString("serverAddress"),
			DebugAddress:              v.GetString("debugAddress"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
			ShutdownTimeout:           v.GetDuration("shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetInt("dbPort"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			DisableTLS:    v.GetBool("dbDisableTls"),
		},
		AI: AIConfig{
			BaseURL: strings.TrimSuffix(v.GetString("aiBaseUrl"), "/"),
			APIKey:  v.GetString("aiApiKey"),
			Model:   v.GetString("aiModel"),
			Timeout: v.GetDuration("aiTimeout"),
		},
	}
}
