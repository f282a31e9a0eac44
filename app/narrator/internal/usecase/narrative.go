package usecase

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"

	"github.com/iWorld-y/sora_narrative/app/narrator/internal/domain"
	"github.com/iWorld-y/sora_narrative/app/narrator/internal/repo"
	"github.com/iWorld-y/sora_narrative/app/narrator/pkg/config"
	"github.com/iWorld-y/sora_narrative/app/narrator/pkg/storyteller"
)

const journalTimeout = 5 * time.Second

// NarrateRequest 一次叙事请求
type NarrateRequest struct {
	Token string
	// Audio 为 nil 时使用配置的默认值
	Audio *bool
}

// NarrativeUseCase 编排行情、叙事生成、语音合成与进度推进
type NarrativeUseCase struct {
	prices  repo.PriceFeed
	teller  repo.Storyteller
	voice   repo.SpeechSynthesizer
	state   repo.ProgressionRepo
	journal repo.JournalRepo

	defaultToken string
	audioDefault bool
	log          *log.Helper
}

// NewNarrativeUseCase voice 与 journal 可以为 nil
func NewNarrativeUseCase(
	cfg *config.Config,
	prices repo.PriceFeed,
	teller repo.Storyteller,
	voice repo.SpeechSynthesizer,
	state repo.ProgressionRepo,
	journal repo.JournalRepo,
	logger log.Logger,
) *NarrativeUseCase {
	return &NarrativeUseCase{
		prices:       prices,
		teller:       teller,
		voice:        voice,
		state:        state,
		journal:      journal,
		defaultToken: cfg.Narrator.DefaultToken,
		audioDefault: cfg.AudioByDefault(),
		log:          log.NewHelper(logger),
	}
}

// Progress 返回当前故事进度
func (uc *NarrativeUseCase) Progress() domain.ProgressionState {
	return uc.state.Snapshot()
}

// Narrate 生成下一段叙事。
// 返回的 Beat 永远是完整的信封；error 非 nil 表示本次是失败信封，进度未推进。
func (uc *NarrativeUseCase) Narrate(ctx context.Context, req NarrateRequest) (*domain.Beat, error) {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		token = uc.defaultToken
	}
	if token == "" || token == domain.PlaceholderToken {
		return domain.AwaitingBeat(), nil
	}

	cycleID := uuid.NewString()
	var beat *domain.Beat

	committed, err := uc.state.Cycle(ctx, func(s domain.ProgressionState) (domain.ProgressionState, error) {
		mc, err := uc.prices.MarketCap(ctx, token)
		if err != nil {
			return s, fmt.Errorf("fetch market cap: %w", err)
		}
		mc = domain.SanitizeMarketCap(mc)

		momentum := domain.ClassifyMomentum(s.LastMarketCap, mc)
		era := domain.ClassifyEra(mc)

		text, err := uc.teller.NextBeat(ctx, storyteller.Request{
			Era:          era,
			MarketCap:    mc,
			Momentum:     momentum,
			PreviousBeat: s.LastBeat,
		})
		if err != nil {
			return s, fmt.Errorf("generate narrative: %w", err)
		}

		beat = &domain.Beat{
			Narrative: text,
			Era:       era,
			MarketCap: mc,
			Momentum:  momentum,
		}
		return s.Advance(mc, text), nil
	})
	if err != nil {
		uc.log.WithContext(ctx).Errorw("msg", "narrative cycle failed", "cycle", cycleID, "token", token, "err", err)
		return domain.FallbackBeat(committed.BeatCount), err
	}
	beat.BeatCount = committed.BeatCount

	if uc.wantAudio(req.Audio) {
		audio, err := uc.voice.Synthesize(ctx, beat.Narrative)
		if err != nil {
			uc.log.WithContext(ctx).Warnw("msg", "speech synthesis failed", "cycle", cycleID, "err", err)
		} else {
			encoded := base64.StdEncoding.EncodeToString(audio)
			beat.Audio = &encoded
		}
	}

	uc.record(ctx, cycleID, token, beat)
	uc.log.WithContext(ctx).Infow("msg", "beat committed", "cycle", cycleID, "beat", beat.BeatCount, "era", beat.Era, "momentum", beat.Momentum)
	return beat, nil
}

// Recent 返回叙事日志中最近的记录
func (uc *NarrativeUseCase) Recent(ctx context.Context, limit int) ([]*domain.JournalEntry, error) {
	if uc.journal == nil {
		return []*domain.JournalEntry{}, nil
	}
	return uc.journal.Recent(ctx, limit)
}

func (uc *NarrativeUseCase) wantAudio(flag *bool) bool {
	if uc.voice == nil {
		return false
	}
	if flag != nil {
		return *flag
	}
	return uc.audioDefault
}

// record 尽力写入叙事日志，失败只记录日志
func (uc *NarrativeUseCase) record(ctx context.Context, cycleID, token string, beat *domain.Beat) {
	if uc.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()

	err := uc.journal.Append(ctx, &domain.JournalEntry{
		ID:        cycleID,
		Token:     token,
		Narrative: beat.Narrative,
		Era:       beat.Era,
		MarketCap: beat.MarketCap,
		Momentum:  beat.Momentum,
		BeatCount: beat.BeatCount,
		HasAudio:  beat.Audio != nil,
	})
	if err != nil {
		uc.log.WithContext(ctx).Warnw("msg", "journal append failed", "cycle", cycleID, "err", err)
	}
}
