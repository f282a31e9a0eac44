package data

import (
	"context"
	"sync"

	"github.com/iWorld-y/sora_narrative/app/narrator/internal/domain"
	"github.com/iWorld-y/sora_narrative/app/narrator/internal/repo"
)

// ProgressionCell 故事进度的唯一持有者。
// sem 保证同一时刻只有一个生成周期，mu 保护 state 供 Snapshot 并发读取。
type ProgressionCell struct {
	sem   chan struct{}
	mu    sync.RWMutex
	state domain.ProgressionState
}

var _ repo.ProgressionRepo = (*ProgressionCell)(nil)

// NewProgressionCell 创建零值进度，进程重启后从头开始
func NewProgressionCell() *ProgressionCell {
	return &ProgressionCell{sem: make(chan struct{}, 1)}
}

// NewProgressionRepo 供依赖注入使用
func NewProgressionRepo() repo.ProgressionRepo {
	return NewProgressionCell()
}

func (c *ProgressionCell) Snapshot() domain.ProgressionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *ProgressionCell) Cycle(ctx context.Context, fn repo.CycleFunc) (domain.ProgressionState, error) {
	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return c.Snapshot(), ctx.Err()
	}
	defer func() { <-c.sem }()

	current := c.Snapshot()
	next, err := fn(current)
	if err != nil {
		return current, err
	}

	c.mu.Lock()
	c.state = next
	c.mu.Unlock()
	return next, nil
}
