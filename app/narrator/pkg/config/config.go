package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config 叙事服务配置
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Speech      SpeechConfig      `yaml:"speech"`
	PriceFeed   PriceFeedConfig   `yaml:"price_feed"`
	Narrator    NarratorConfig    `yaml:"narrator"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	DB          DBConfig          `yaml:"db"`
}

// LLMConfig 叙事生成模型配置，任意 OpenAI 兼容端点
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	Timeout int    `yaml:"timeout"` // 秒
}

// SpeechConfig 语音合成配置
type SpeechConfig struct {
	// Credentials Google 服务账号 JSON
	Credentials string `yaml:"credentials"`
	Timeout     int    `yaml:"timeout"`
}

// PriceFeedConfig 行情源配置
type PriceFeedConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"`
}

// NarratorConfig 叙事行为配置
type NarratorConfig struct {
	DefaultToken string `yaml:"default_token"`
	// AudioDefault 请求未携带 audio 参数时是否合成语音
	AudioDefault *bool `yaml:"audio_default"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig LLM 调用限流
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	RPM int `yaml:"rpm"`
}

// DBConfig 叙事日志数据库，Source 为空时不启用
type DBConfig struct {
	Source string `yaml:"source"`
}

// envOverrides 只承载环境变量，避免 envconfig 覆盖 YAML 中已有的值
type envOverrides struct {
	GeminiAPIKey   string `envconfig:"GEMINI_API_KEY"`
	TTSCredentials string `envconfig:"GOOGLE_TTS_CREDENTIALS"`
	TokenAddress   string `envconfig:"TOKEN_ADDRESS"`
	AudioDefault   *bool  `envconfig:"NARRATOR_AUDIO_DEFAULT"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`
}

// LoadConfig 从指定路径加载配置，再用环境变量覆盖
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	return &cfg, nil
}

// ApplyEnv 读取 .env（可选）与环境变量，非空值覆盖当前配置
func (c *Config) ApplyEnv() error {
	// .env 不存在是正常情况
	_ = godotenv.Load()

	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("process env: %w", err)
	}

	if env.GeminiAPIKey != "" {
		c.LLM.APIKey = env.GeminiAPIKey
	}
	if env.TTSCredentials != "" {
		c.Speech.Credentials = env.TTSCredentials
	}
	if env.TokenAddress != "" {
		c.Narrator.DefaultToken = env.TokenAddress
	}
	if env.AudioDefault != nil {
		c.Narrator.AudioDefault = env.AudioDefault
	}
	if env.DatabaseURL != "" {
		c.DB.Source = env.DatabaseURL
	}
	return nil
}

// SetDefaults 填充未配置的默认值
func (c *Config) SetDefaults() {
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gemini-2.0-flash"
	}
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = 30
	}
	if c.Speech.Timeout <= 0 {
		c.Speech.Timeout = 15
	}
	if c.PriceFeed.BaseURL == "" {
		c.PriceFeed.BaseURL = "https://api.dexscreener.com"
	}
	if c.PriceFeed.Timeout <= 0 {
		c.PriceFeed.Timeout = 10
	}
	if c.Narrator.AudioDefault == nil {
		on := true
		c.Narrator.AudioDefault = &on
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Concurrency.RPM <= 0 {
		c.Concurrency.RPM = 60
	}
	if c.Concurrency.QPS <= 0 {
		c.Concurrency.QPS = 1
	}
}

// AudioByDefault 返回 audio 参数缺省时的行为
func (c *Config) AudioByDefault() bool {
	return c.Narrator.AudioDefault == nil || *c.Narrator.AudioDefault
}

// Seconds 将秒数转换为 time.Duration
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
