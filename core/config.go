package core

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppName          string
	Env              string // DEV (default), TEST, QA, PROD
	Build            string
	Debug            bool
	TestMode         bool
	SecretKey        string
	WorkDir          string
	DefaultFromEmail string
	SendgridAPIKey   string
	RollbarToken     string

	// LoginLatency simulates the network round trip on login/register.
	LoginLatency time.Duration

	// DefaultStudyHoursPerDay is assigned to auto-provisioned accounts.
	DefaultStudyHoursPerDay float64

	Server struct {
		Host                      string
		Port                      int
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	// Storage selects the KV backend: memory | bolt | postgres | redis.
	Storage struct {
		Engine string
		Path   string // bolt file path
	}

	Database struct {
		Engine     string
		Name       string
		User       string
		Password   string
		Host       string
		Port       int
		DisableTLS bool
	}

	Redis struct {
		Address  string
		Password string
		DB       int
	}

	Gemini struct {
		APIKey string
		Model  string
	}
}

func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) DatabaseAddress() string {
	return fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port)
}

func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Lumina")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "w3p@q5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("loginLatency", 800*time.Millisecond)
	v.SetDefault("defaultStudyHoursPerDay", 4.0)

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)

	v.SetDefault("storage.engine", "bolt")
	v.SetDefault("storage.path", "lumina.db")

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.name", "lumina")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("gemini.apiKey", "")
	v.SetDefault("gemini.model", "gemini-3-flash-preview")

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		AppName:                 v.GetString("appName"),
		Env:                     env,
		Build:                   v.GetString("build"),
		Debug:                   v.GetBool("debug"),
		TestMode:                env == "TEST",
		SecretKey:               v.GetString("secretKey"),
		WorkDir:                 wd,
		DefaultFromEmail:        v.GetString("defaultFromEmail"),
		SendgridAPIKey:          v.GetString("sendgridApiKey"),
		RollbarToken:            v.GetString("rollbarToken"),
		LoginLatency:            v.GetDuration("loginLatency"),
		DefaultStudyHoursPerDay: v.GetFloat64("defaultStudyHoursPerDay"),
	}
	conf.Server.Host = v.GetString("server.host")
	conf.Server.Port = v.GetInt("server.port")
	conf.Server.ShutdownTimeout = v.GetDuration("server.shutdownTimeout")
	conf.Server.JWTExpirationDelta = v.GetDuration("server.jwtExpirationDelta")
	conf.Server.JWTRefreshExpirationDelta = v.GetDuration("server.jwtRefreshExpirationDelta")
	conf.Storage.Engine = v.GetString("storage.engine")
	conf.Storage.Path = v.GetString("storage.path")
	conf.Database.Engine = v.GetString("database.engine")
	conf.Database.Name = v.GetString("database.name")
	conf.Database.User = v.GetString("database.user")
	conf.Database.Password = v.GetString("database.password")
	conf.Database.Host = v.GetString("database.host")
	conf.Database.Port = v.GetInt("database.port")
	conf.Database.DisableTLS = v.GetBool("database.disableTLS")
	conf.Redis.Address = v.GetString("redis.address")
	conf.Redis.Password = v.GetString("redis.password")
	conf.Redis.DB = v.GetInt("redis.db")
	conf.Gemini.APIKey = v.GetString("gemini.apiKey")
	conf.Gemini.Model = v.GetString("gemini.model")

	if conf.TestMode {
		conf.LoginLatency = 0
	}
	return conf
}
