package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"strconv"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/sora_narrative/app/narrator/internal/data"
	"github.com/iWorld-y/sora_narrative/app/narrator/internal/repo"
	"github.com/iWorld-y/sora_narrative/app/narrator/internal/usecase"
	"github.com/iWorld-y/sora_narrative/app/narrator/pkg/config"
	"github.com/iWorld-y/sora_narrative/app/narrator/pkg/dexscreener"
	"github.com/iWorld-y/sora_narrative/app/narrator/pkg/logger"
	"github.com/iWorld-y/sora_narrative/app/narrator/pkg/speech"
	"github.com/iWorld-y/sora_narrative/app/narrator/pkg/storyteller"
)

// 单次生成一段叙事并输出 JSON，便于调试人设与行情源
func main() {
	confPath := flag.String("conf", "app/narrator/configs/beat.yaml", "config path")
	token := flag.String("token", "", "token address, defaults to narrator.default_token")
	audio := flag.String("audio", "", "true/false, defaults to narrator.audio_default")
	out := flag.String("out", "", "write synthesized mp3 to this path")
	flag.Parse()

	cfg, err := config.LoadConfig(*confPath)
	if err != nil {
		logger.Log.Fatalf("无法加载配置文件: %v", err)
	}
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		logger.Log.Fatalf("无法初始化日志: %v", err)
	}

	ctx := context.Background()
	kLogger := log.NewStdLogger(os.Stderr)

	teller, err := storyteller.New(ctx, cfg)
	if err != nil {
		logger.Log.Fatalf("%v", err)
	}

	var voice repo.SpeechSynthesizer
	synth, err := speech.New(ctx, cfg.Speech.Credentials, config.Seconds(cfg.Speech.Timeout))
	switch {
	case errors.Is(err, speech.ErrNoCredentials):
		logger.Log.Info("未配置语音合成凭据，跳过音频")
	case err != nil:
		logger.Log.Fatalf("语音合成初始化失败: %v", err)
	default:
		defer synth.Close()
		voice = synth
	}

	store, cleanup, err := data.NewData(cfg, kLogger)
	if err != nil {
		logger.Log.Fatalf("无法连接数据库: %v", err)
	}
	defer cleanup()

	uc := usecase.NewNarrativeUseCase(
		cfg,
		dexscreener.NewClient(cfg.PriceFeed.BaseURL, cfg.PriceFeed.Timeout),
		teller,
		voice,
		data.NewProgressionRepo(),
		data.NewJournalRepo(store, kLogger),
		kLogger,
	)

	req := usecase.NarrateRequest{Token: *token}
	if *audio != "" {
		on, err := strconv.ParseBool(*audio)
		if err != nil {
			logger.Log.Fatalf("invalid -audio: %v", err)
		}
		req.Audio = &on
	}

	beat, err := uc.Narrate(ctx, req)
	if err != nil {
		logger.Log.Errorf("生成失败: %v", err)
	}

	if *out != "" && beat.Audio != nil {
		mp3, err := base64.StdEncoding.DecodeString(*beat.Audio)
		if err == nil {
			err = os.WriteFile(*out, mp3, 0o644)
		}
		if err != nil {
			logger.Log.Errorf("写入音频失败: %v", err)
		} else {
			logger.Log.Infof("音频已写入 %s", *out)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]any{
		"narrative": beat.Narrative,
		"era":       beat.Era,
		"marketCap": beat.MarketCap,
		"momentum":  beat.Momentum,
		"beatCount": beat.BeatCount,
		"hasAudio":  beat.Audio != nil,
	})
}
