package storyteller

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/sora_narrative/app/narrator/internal/domain"
	"github.com/iWorld-y/sora_narrative/app/narrator/pkg/config"
	"github.com/iWorld-y/sora_narrative/app/narrator/pkg/logger"
)

// ErrEmptyBeat 模型返回的文本清理后为空
var ErrEmptyBeat = errors.New("storyteller: empty beat")

const (
	maxRetries = 3
	maxTokens  = 120
)

// Generator 是 eino ChatModel 中叙事生成需要的部分
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Request 一次叙事生成的输入
type Request struct {
	Era       domain.Era
	MarketCap float64
	Momentum  domain.Momentum
	// PreviousBeat 为空时使用 "The story begins"
	PreviousBeat string
}

// Storyteller 调用 LLM 续写 Sora 的故事
type Storyteller struct {
	gen       Generator
	limiter   *rate.Limiter
	timeout   time.Duration
	baseDelay time.Duration
}

// New 使用 OpenAI 兼容端点创建 Storyteller
func New(ctx context.Context, cfg *config.Config) (*Storyteller, error) {
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: config.Seconds(cfg.LLM.Timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}

	limit := rate.Limit(float64(cfg.Concurrency.RPM) / 60.0)
	burst := cfg.Concurrency.QPS
	logger.Log.Infof("限流器已配置: Limit=%.2f req/s, Burst=%d", limit, burst)

	return NewWithGenerator(chatModel, rate.NewLimiter(limit, burst), config.Seconds(cfg.LLM.Timeout)), nil
}

// NewWithGenerator 使用任意 Generator 创建 Storyteller，limiter 为 nil 时不限流
func NewWithGenerator(gen Generator, limiter *rate.Limiter, timeout time.Duration) *Storyteller {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Storyteller{
		gen:       gen,
		limiter:   limiter,
		timeout:   timeout,
		baseDelay: 2 * time.Second,
	}
}

// NextBeat 生成下一段叙事，返回清理后的文本
func (s *Storyteller) NextBeat(ctx context.Context, req Request) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	messages := []*schema.Message{
		schema.SystemMessage(SystemPrompt),
		schema.UserMessage(BuildPrompt(req)),
	}

	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", err
		}

		resp, err := s.gen.Generate(ctx, messages, model.WithMaxTokens(maxTokens))
		if err != nil {
			if isTooManyRequests(err) && i < maxRetries {
				lastErr = err
				delay := s.baseDelay * time.Duration(1<<i)
				logger.Log.Warnf("LLM 限流，%s 后重试 (%d/%d)", delay, i+1, maxRetries)
				if err := sleep(ctx, delay); err != nil {
					return "", err
				}
				continue
			}
			return "", fmt.Errorf("generate beat: %w", err)
		}

		beat := CleanBeat(resp.Content)
		if beat == "" {
			return "", ErrEmptyBeat
		}
		return beat, nil
	}
	return "", fmt.Errorf("generate beat after retries: %w", lastErr)
}

// BuildPrompt 构造单次生成的用户提示
func BuildPrompt(req Request) string {
	prev := req.PreviousBeat
	if prev == "" {
		prev = domain.StoryBegins
	}
	mc := math.Round(domain.SanitizeMarketCap(req.MarketCap))

	var sb strings.Builder
	fmt.Fprintf(&sb, "\nEra: %s\n", req.Era)
	fmt.Fprintf(&sb, "Market Cap: $%s\n", humanize.Commaf(mc))
	fmt.Fprintf(&sb, "Momentum: %s\n", req.Momentum)
	fmt.Fprintf(&sb, "Previous beat: \"%s\"\n\n", prev)
	sb.WriteString("Generate the next beat (1-2 sentences, continue from previous):")
	return sb.String()
}

// CleanBeat 去掉首尾的一层方括号和一层引号并裁剪空白。
// 只是表面清理，不校验长度或用词。
func CleanBeat(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return strings.TrimSpace(s)
}

func isTooManyRequests(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(strings.ToLower(msg), "too many requests")
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
