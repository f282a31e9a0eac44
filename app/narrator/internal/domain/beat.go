package domain

import "time"

const (
	// PlaceholderToken 未配置代币地址时的占位符
	PlaceholderToken = "YOUR_TOKEN_ADDRESS_HERE"
	// AwaitingNarrative 未连接代币时返回的固定文本
	AwaitingNarrative = "The story awaits... Connect your token to begin."
	// FallbackNarrative 生成失败时返回的固定文本
	FallbackNarrative = "The ink runs dry... Please try again."
	// StoryBegins 尚无上一段叙事时的提示
	StoryBegins = "The story begins"
)

// Beat 一次请求的结果信封，成功、等待、失败三种情况形状相同
type Beat struct {
	Narrative string
	Era       Era
	MarketCap float64
	Momentum  Momentum
	BeatCount int
	// Audio 为 base64 编码的 MP3，未合成时为空
	Audio *string
}

// AwaitingBeat 未连接代币时的固定信封
func AwaitingBeat() *Beat {
	return &Beat{
		Narrative: AwaitingNarrative,
		Era:       EraAsh,
		Momentum:  MomentumStable,
	}
}

// FallbackBeat 失败时的固定信封，beatCount 为未推进的当前计数
func FallbackBeat(beatCount int) *Beat {
	return &Beat{
		Narrative: FallbackNarrative,
		Era:       EraAsh,
		Momentum:  MomentumStable,
		BeatCount: beatCount,
	}
}

// JournalEntry 叙事日志中的一条记录
type JournalEntry struct {
	ID        string
	Token     string
	Narrative string
	Era       Era
	MarketCap float64
	Momentum  Momentum
	BeatCount int
	HasAudio  bool
	CreatedAt time.Time
}
