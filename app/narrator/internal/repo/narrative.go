package repo

import (
	"context"

	"github.com/iWorld-y/sora_narrative/app/narrator/internal/domain"
	"github.com/iWorld-y/sora_narrative/app/narrator/pkg/storyteller"
)

// PriceFeed 行情源
type PriceFeed interface {
	// MarketCap 获取代币市值，字段缺失时返回 0 而不是错误
	MarketCap(ctx context.Context, token string) (float64, error)
}

// Storyteller 叙事生成
type Storyteller interface {
	// NextBeat 返回清理后的下一段叙事
	NextBeat(ctx context.Context, req storyteller.Request) (string, error)
}

// SpeechSynthesizer 语音合成
type SpeechSynthesizer interface {
	// Synthesize 返回编码后的音频
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// CycleFunc 在持有进度锁时执行一次生成，返回 nil 错误时提交新状态
type CycleFunc func(current domain.ProgressionState) (domain.ProgressionState, error)

// ProgressionRepo 进程内唯一的故事进度
type ProgressionRepo interface {
	// Snapshot 返回当前状态的副本
	Snapshot() domain.ProgressionState
	// Cycle 串行执行 fn，成功时提交并返回新状态，失败时返回未变化的状态
	Cycle(ctx context.Context, fn CycleFunc) (domain.ProgressionState, error)
}

// JournalRepo 叙事日志
type JournalRepo interface {
	// Append 追加一条已提交的叙事
	Append(ctx context.Context, entry *domain.JournalEntry) error
	// Recent 按时间倒序返回最近的叙事
	Recent(ctx context.Context, limit int) ([]*domain.JournalEntry, error)
}
