package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AI         AIConfig         `yaml:"ai"`
	YouTube    YouTubeConfig    `yaml:"youtube"`
	Email      EmailConfig      `yaml:"email"`
	Intake     IntakeConfig     `yaml:"intake"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Schedule   string           `yaml:"schedule"`
}

type AIConfig struct {
	GeminiAPIKey   string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type YouTubeConfig struct {
	APIKey    string `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	TokenFile string `yaml:"token_file"`
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

type IntakeConfig struct {
	VideoDir     string `yaml:"video_dir"`
	RequestsFile string `yaml:"requests_file"`
	DataDir      string `yaml:"data_dir"`
}

type AnalysisConfig struct {
	Preset                string `yaml:"preset"`
	MaxConcurrentAnalyses int    `yaml:"max_concurrent_analyses"`
	RetryAttempts         int    `yaml:"retry_attempts"`
	RetryBackoffSeconds   int    `yaml:"retry_backoff_seconds"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
	}

	if cfg.AI.GeminiAPIKey == "" {
		cfg.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.YouTube.APIKey == "" {
		cfg.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if cfg.Email.Username == "" {
		cfg.Email.Username = os.Getenv("EMAIL_USERNAME")
	}
	if cfg.Email.Password == "" {
		cfg.Email.Password = os.Getenv("EMAIL_PASSWORD")
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.AI.TimeoutSeconds == 0 {
		c.AI.TimeoutSeconds = 300
	}
	if c.YouTube.TokenFile == "" {
		c.YouTube.TokenFile = "youtube_token.json"
	}
	if c.Intake.VideoDir == "" {
		c.Intake.VideoDir = "intake"
	}
	if c.Intake.RequestsFile == "" {
		c.Intake.RequestsFile = "requests.txt"
	}
	if c.Intake.DataDir == "" {
		c.Intake.DataDir = "data"
	}
	if c.Analysis.MaxConcurrentAnalyses == 0 {
		c.Analysis.MaxConcurrentAnalyses = 2
	}
	if c.Analysis.RetryAttempts == 0 {
		c.Analysis.RetryAttempts = 3
	}
	if c.Analysis.RetryBackoffSeconds == 0 {
		c.Analysis.RetryBackoffSeconds = 30
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
	if c.Schedule == "" {
		c.Schedule = "*/5 * * * *" // Check for new film every 5 minutes
	}
}

func (c *Config) validate() error {
	if c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
	}
	if c.Analysis.Preset != "" {
		if _, ok := presets[c.Analysis.Preset]; !ok {
			return fmt.Errorf("unknown analysis preset %q", c.Analysis.Preset)
		}
	}
	// Email is optional; if any of the delivery fields is set, all must be.
	if c.Email.ToEmail != "" {
		if c.Email.SMTPServer == "" || c.Email.Username == "" || c.Email.Password == "" {
			return fmt.Errorf("email delivery requires smtp_server, username and password")
		}
	}
	return nil
}
