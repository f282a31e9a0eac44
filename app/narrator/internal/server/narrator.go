package server

import (
	"context"
	"errors"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/sora_narrative/app/narrator/internal/conf"
	"github.com/iWorld-y/sora_narrative/app/narrator/internal/repo"
	"github.com/iWorld-y/sora_narrative/app/narrator/pkg/config"
	"github.com/iWorld-y/sora_narrative/app/narrator/pkg/dexscreener"
	narratorLogger "github.com/iWorld-y/sora_narrative/app/narrator/pkg/logger"
	"github.com/iWorld-y/sora_narrative/app/narrator/pkg/speech"
	"github.com/iWorld-y/sora_narrative/app/narrator/pkg/storyteller"
)

// NewNarratorConfig 将 internal/conf 转换为 pkg/config.Config，并叠加环境变量
func NewNarratorConfig(c *conf.Narrator, d *conf.Data, logger log.Logger) (*config.Config, error) {
	cfg := &config.Config{}
	if c != nil {
		cfg.Narrator = config.NarratorConfig{
			DefaultToken: c.DefaultToken,
			AudioDefault: c.AudioDefault,
		}
		if c.Llm != nil {
			cfg.LLM = config.LLMConfig{
				BaseURL: c.Llm.BaseUrl,
				APIKey:  c.Llm.ApiKey,
				Model:   c.Llm.Model,
				Timeout: int(c.Llm.Timeout),
			}
		}
		if c.Speech != nil {
			cfg.Speech = config.SpeechConfig{
				Credentials: c.Speech.Credentials,
				Timeout:     int(c.Speech.Timeout),
			}
		}
		if c.PriceFeed != nil {
			cfg.PriceFeed = config.PriceFeedConfig{
				BaseURL: c.PriceFeed.BaseUrl,
				Timeout: int(c.PriceFeed.Timeout),
			}
		}
		if c.Log != nil {
			cfg.Log = config.LogConfig{Level: c.Log.Level, File: c.Log.File}
		}
		if c.Concurrency != nil {
			cfg.Concurrency = config.ConcurrencyConfig{
				QPS: int(c.Concurrency.Qps),
				RPM: int(c.Concurrency.Rpm),
			}
		}
	}
	if d != nil && d.Database != nil {
		cfg.DB = config.DBConfig{Source: d.Database.Source}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.SetDefaults()

	if err := narratorLogger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.NewHelper(logger).Errorf("Failed to init narrator logger: %v", err)
		_ = narratorLogger.InitLogger("info", "") // 降级处理
	}
	return cfg, nil
}

// NewPriceFeed DexScreener 行情源
func NewPriceFeed(cfg *config.Config) repo.PriceFeed {
	return dexscreener.NewClient(cfg.PriceFeed.BaseURL, cfg.PriceFeed.Timeout)
}

// NewStoryteller 初始化叙事生成模型
func NewStoryteller(cfg *config.Config) (repo.Storyteller, error) {
	return storyteller.New(context.Background(), cfg)
}

// NewSpeechSynthesizer 凭据缺少 private_key 时返回 nil，语音合成关闭
func NewSpeechSynthesizer(cfg *config.Config, logger log.Logger) (repo.SpeechSynthesizer, func(), error) {
	helper := log.NewHelper(logger)
	synth, err := speech.New(context.Background(), cfg.Speech.Credentials, config.Seconds(cfg.Speech.Timeout))
	if errors.Is(err, speech.ErrNoCredentials) {
		helper.Info("未配置语音合成凭据，audio 将始终为 null")
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		helper.Info("closing the speech client")
		_ = synth.Close()
	}
	return synth, cleanup, nil
}
