package domain

import "math"

// Era 叙事时代，由市值区间决定
type Era string

const (
	EraAsh    Era = "THE_ASH"
	EraGate   Era = "THE_GATE"
	EraRonin  Era = "THE_RONIN"
	EraEmpire Era = "THE_EMPIRE"
	EraBeyond Era = "THE_BEYOND"
)

// Momentum 市值短期趋势
type Momentum string

const (
	MomentumUp     Momentum = "UP"
	MomentumDown   Momentum = "DOWN"
	MomentumStable Momentum = "STABLE"
)

// 各时代的下界（含），按从低到高排列
const (
	gateFloor   = 40_000
	roninFloor  = 60_000
	empireFloor = 1_000_000
	beyondFloor = 100_000_000
)

// momentumDeadzone 百分比变化的死区，避免小幅波动导致趋势来回翻转
const momentumDeadzone = 0.5

// SanitizeMarketCap 将负数、NaN、Inf 归零
func SanitizeMarketCap(mc float64) float64 {
	if math.IsNaN(mc) || math.IsInf(mc, 0) || mc < 0 {
		return 0
	}
	return mc
}

// ClassifyEra 根据市值返回所属时代
func ClassifyEra(marketCap float64) Era {
	mc := SanitizeMarketCap(marketCap)
	switch {
	case mc < gateFloor:
		return EraAsh
	case mc < roninFloor:
		return EraGate
	case mc < empireFloor:
		return EraRonin
	case mc < beyondFloor:
		return EraEmpire
	default:
		return EraBeyond
	}
}

// ClassifyMomentum 比较前后两次市值。previous <= 0 时没有基线，恒为 STABLE。
func ClassifyMomentum(previous, current float64) Momentum {
	if previous <= 0 {
		return MomentumStable
	}
	change := (current - previous) / previous * 100
	switch {
	case change > momentumDeadzone:
		return MomentumUp
	case change < -momentumDeadzone:
		return MomentumDown
	default:
		return MomentumStable
	}
}

// ProgressionState 故事进度：上一次市值、上一段叙事、已生成段数
type ProgressionState struct {
	LastMarketCap float64
	LastBeat      string
	BeatCount     int
}

// Advance 返回推进一段后的新状态，只能在叙事生成成功后调用
func (s ProgressionState) Advance(marketCap float64, narrative string) ProgressionState {
	return ProgressionState{
		LastMarketCap: marketCap,
		LastBeat:      narrative,
		BeatCount:     s.BeatCount + 1,
	}
}
