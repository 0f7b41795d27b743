package configuration

import (
	"fmt"
	"os"
	"strconv"

	"postqueue/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App         App         `json:"app"`
	Database    Database    `json:"database"`
	RedisClient RedisClient `json:"redisClient"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	Scheduler   Scheduler   `json:"scheduler"`
	OAuth       OAuth       `json:"oauth"`
}

type App struct {
	Port        int    `json:"port"`
	SecretKey   string `json:"secretKey"`
	BaseURL     string `json:"baseURL"`
	TLSEnabled  bool   `json:"tlsEnabled"`
	TLSCertFile string `json:"tlsCertFile"`
	TLSKeyFile  string `json:"tlsKeyFile"`
}

type Database struct {
	Psql  Db `json:"psql"`
	Mongo Db `json:"mongo"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type RedisClient struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
}

// Scheduler tunes the due-post loop. The interval is not correctness
// critical; the retry cap bounds how often a failing scheduled post is
// re-attempted.
type Scheduler struct {
	IntervalSeconds int `json:"intervalSeconds"`
	RetryCap        int `json:"retryCap"`
	BatchSize       int `json:"batchSize"`
}

// OAuth holds system-wide platform app credentials. When a platform's
// client id and secret are both set here, per-user credential setup is
// skipped entirely.
type OAuth struct {
	Twitter  OAuthClient `json:"twitter"`
	LinkedIn OAuthClient `json:"linkedin"`
	Reddit   OAuthClient `json:"reddit"`
	Facebook OAuthClient `json:"facebook"`
}

type OAuthClient struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	RedirectURI  string `json:"redirectURI"`
}

var C Config

func init() {
	LoadConfig()
	initApp(&C)
	initDatabase(&C)
	initScheduler(&C)
	initOAuth(&C)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
}

func getConfig() string {
	name := "config"
	if env := os.Getenv("ENV"); env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initApp(C *Config) {
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10010
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		switch v {
		case "1", "true", "TRUE", "True":
			C.App.TLSEnabled = true
		case "0", "false", "FALSE", "False":
			C.App.TLSEnabled = false
		}
	}
	if C.App.TLSCertFile == "" {
		C.App.TLSCertFile = os.Getenv("TLS_CERT_FILE")
	}
	if C.App.TLSKeyFile == "" {
		C.App.TLSKeyFile = os.Getenv("TLS_KEY_FILE")
	}
	if C.App.BaseURL == "" {
		if v := os.Getenv("APP_BASE_URL"); v != "" {
			C.App.BaseURL = v
		} else {
			scheme := "http"
			if C.App.TLSEnabled {
				scheme = "https"
			}
			C.App.BaseURL = fmt.Sprintf("%s://localhost:%d", scheme, C.App.Port)
		}
	}
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; JWT authentication will fail. Provide SECRET_KEY via environment.")
	}
}

func initDatabase(C *Config) {
	if C.Database.Psql.Name == "" {
		C.Database.Psql.Name = os.Getenv("DB_NAME")
	}
	if C.Database.Psql.Host == "" {
		C.Database.Psql.Host = os.Getenv("DB_HOST")
	}
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = os.Getenv("DB_PORT")
	}
	if C.Database.Psql.User == "" {
		C.Database.Psql.User = os.Getenv("DB_USER")
	}
	if C.Database.Psql.Password == "" {
		C.Database.Psql.Password = os.Getenv("DB_PASSWORD")
	}
	if C.Database.Psql.Host == "" {
		C.Database.Psql.Host = "localhost"
	}
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = "5432"
	}

	if C.Database.Mongo.Host == "" {
		C.Database.Mongo.Host = os.Getenv("MONGO_HOST")
	}
	if C.Database.Mongo.Port == "" {
		if v := os.Getenv("MONGO_PORT"); v != "" {
			C.Database.Mongo.Port = v
		} else {
			C.Database.Mongo.Port = "27017"
		}
	}
	if C.Database.Mongo.Name == "" {
		C.Database.Mongo.Name = "postqueue"
	}
}

func initScheduler(C *Config) {
	if v := os.Getenv("SCHEDULER_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			C.Scheduler.IntervalSeconds = n
		}
	}
	if C.Scheduler.IntervalSeconds == 0 {
		C.Scheduler.IntervalSeconds = 120
	}
	if C.Scheduler.RetryCap == 0 {
		C.Scheduler.RetryCap = 3
	}
	if C.Scheduler.BatchSize == 0 {
		C.Scheduler.BatchSize = 20
	}
}

func initOAuth(C *Config) {
	fill := func(c *OAuthClient, prefix, callbackPath string) {
		if c.ClientID == "" {
			c.ClientID = os.Getenv(prefix + "_CLIENT_ID")
		}
		if c.ClientSecret == "" {
			c.ClientSecret = os.Getenv(prefix + "_CLIENT_SECRET")
		}
		if c.RedirectURI == "" {
			if v := os.Getenv(prefix + "_REDIRECT_URI"); v != "" {
				c.RedirectURI = v
			} else {
				c.RedirectURI = C.App.BaseURL + callbackPath
			}
		}
	}
	fill(&C.OAuth.Twitter, "TWITTER", "/auth/twitter/callback")
	fill(&C.OAuth.LinkedIn, "LINKEDIN", "/auth/linkedin/callback")
	fill(&C.OAuth.Reddit, "REDDIT", "/auth/reddit/callback")
	fill(&C.OAuth.Facebook, "FACEBOOK", "/auth/facebook/callback")
}

// SystemOAuthClient returns the system-wide app credential for a platform,
// or nil when it is not configured. Unknown platforms fall through to nil.
func SystemOAuthClient(platform string) *OAuthClient {
	var c OAuthClient
	switch platform {
	case "twitter":
		c = C.OAuth.Twitter
	case "linkedin":
		c = C.OAuth.LinkedIn
	case "reddit":
		c = C.OAuth.Reddit
	case "facebook":
		c = C.OAuth.Facebook
	default:
		return nil
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return nil
	}
	return &c
}
