package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type JWTConfig struct {
	SecretKey string `mapstructure:"secretKey"`
	Issuer    string `mapstructure:"issuer"`
	Audience  string `mapstructure:"audience"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"maxSizeMB"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAgeDays"`
}

// HTTPClientConfig holds the timeouts shared by every outbound client.
type HTTPClientConfig struct {
	ConnectTimeout time.Duration `mapstructure:"connectTimeout"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
}

type RegionalSourceConfig struct {
	BaseURL        string        `mapstructure:"baseURL"`
	ListEndpoint   string        `mapstructure:"listEndpoint"`
	DetailEndpoint string        `mapstructure:"detailEndpoint"`
	ServiceKey     string        `mapstructure:"serviceKey"`
	AreaParam      string        `mapstructure:"areaParam"`
	PageSize       int           `mapstructure:"pageSize"`
	Concurrency    int           `mapstructure:"concurrency"`
	ImageBaseURL   string        `mapstructure:"imageBaseURL"`
	CacheTTL       time.Duration `mapstructure:"cacheTTL"`
}

type GeocoderConfig struct {
	BaseURL     string        `mapstructure:"baseURL"`
	Path        string        `mapstructure:"path"`
	APIKey      string        `mapstructure:"apiKey"`
	Concurrency int           `mapstructure:"concurrency"`
	CacheTTL    time.Duration `mapstructure:"cacheTTL"`
}

type AIConfig struct {
	Provider    string        `mapstructure:"provider"`
	BaseURL     string        `mapstructure:"baseURL"`
	APIKey      string        `mapstructure:"apiKey"`
	GeminiKey   string        `mapstructure:"geminiKey"`
	Model       string        `mapstructure:"model"`
	GeminiModel string        `mapstructure:"geminiModel"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"maxTokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type CourseConfig struct {
	MaxStops      int `mapstructure:"maxStops"`
	MaxCandidates int `mapstructure:"maxCandidates"`
}

type Config struct {
	Mode     string `mapstructure:"mode"`
	Dotenv   string `mapstructure:"dotenv"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
		Redis struct {
			Enabled  bool   `mapstructure:"enabled"`
			Addr     string `mapstructure:"addr"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
		} `mapstructure:"redis"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort       string        `mapstructure:"HTTPPort"`
		Timeout        time.Duration `mapstructure:"HTTPTimeout"`
		AllowedOrigins []string      `mapstructure:"allowedOrigins"`
	} `mapstructure:"server"`
	JWT      JWTConfig     `mapstructure:"jwt"`
	Logging  LoggingConfig `mapstructure:"logging"`
	Upstream struct {
		HTTP     HTTPClientConfig     `mapstructure:"http"`
		Regional RegionalSourceConfig `mapstructure:"regional"`
		Geocoder GeocoderConfig       `mapstructure:"geocoder"`
		AI       AIConfig             `mapstructure:"ai"`
	} `mapstructure:"upstream"`
	Course CourseConfig `mapstructure:"course"`
}

// secretEnv maps config keys to the environment variables that override them.
var secretEnv = map[string]string{
	"repositories.postgres.password": "POSTGRES_PASSWORD",
	"repositories.redis.password":    "REDIS_PASSWORD",
	"jwt.secretKey":                  "JWT_SECRET_KEY",
	"upstream.regional.serviceKey":   "JB_SERVICE_KEY",
	"upstream.geocoder.apiKey":       "KAKAO_REST_API_KEY",
	"upstream.ai.apiKey":             "OPENAI_API_KEY",
	"upstream.ai.geminiKey":          "GOOGLE_GEMINI_API_KEY",
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range secretEnv {
		if err = v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	applyDefaults(&config)
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}

func applyDefaults(c *Config) {
	if c.Course.MaxStops <= 0 {
		c.Course.MaxStops = 3
	}
	if c.Course.MaxCandidates <= 0 {
		c.Course.MaxCandidates = 30
	}
	if c.Upstream.HTTP.ConnectTimeout <= 0 {
		c.Upstream.HTTP.ConnectTimeout = 5 * time.Second
	}
	if c.Upstream.HTTP.ReadTimeout <= 0 {
		c.Upstream.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.Upstream.Geocoder.Concurrency <= 0 {
		c.Upstream.Geocoder.Concurrency = 4
	}
	if c.Upstream.Regional.Concurrency <= 0 {
		c.Upstream.Regional.Concurrency = 2
	}
	if c.Upstream.Regional.AreaParam == "" {
		c.Upstream.Regional.AreaParam = "Area"
	}
	if c.Upstream.Regional.PageSize <= 0 {
		c.Upstream.Regional.PageSize = 100
	}
	if c.Upstream.AI.MaxTokens <= 0 {
		c.Upstream.AI.MaxTokens = 2000
	}
	if c.Upstream.AI.GeminiModel == "" {
		c.Upstream.AI.GeminiModel = "gemini-2.0-flash"
	}
	if c.Upstream.AI.Timeout <= 0 {
		c.Upstream.AI.Timeout = 30 * time.Second
	}
}
