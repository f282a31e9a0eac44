package data

import (
	"context"
	"strings"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/sora_narrative/app/narrator/internal/domain"
	"github.com/iWorld-y/sora_narrative/app/narrator/internal/repo"
)

type journalRepo struct {
	data *Data
	log  *log.Helper
}

// NewJournalRepo 创建叙事日志仓库，数据库未配置时读写均为空操作
func NewJournalRepo(data *Data, logger log.Logger) repo.JournalRepo {
	return &journalRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *journalRepo) enabled() bool {
	return r.data != nil && r.data.db != nil
}

func (r *journalRepo) Append(ctx context.Context, e *domain.JournalEntry) error {
	if !r.enabled() {
		return nil
	}
	_, err := r.data.db.ExecContext(ctx, `
		INSERT INTO narrative_beats (id, token, narrative, era, market_cap, momentum, beat_count, has_audio)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.Token, removeNullBytes(e.Narrative), string(e.Era), e.MarketCap, string(e.Momentum), e.BeatCount, e.HasAudio,
	)
	return err
}

func (r *journalRepo) Recent(ctx context.Context, limit int) ([]*domain.JournalEntry, error) {
	if !r.enabled() {
		return []*domain.JournalEntry{}, nil
	}
	rows, err := r.data.db.QueryContext(ctx, `
		SELECT id, token, narrative, era, market_cap, momentum, beat_count, has_audio, created_at
		FROM narrative_beats
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.JournalEntry, 0, limit)
	for rows.Next() {
		var (
			e        domain.JournalEntry
			era      string
			momentum string
		)
		if err := rows.Scan(&e.ID, &e.Token, &e.Narrative, &era, &e.MarketCap, &momentum, &e.BeatCount, &e.HasAudio, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Era = domain.Era(era)
		e.Momentum = domain.Momentum(momentum)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// PostgreSQL 文本字段不支持 NULL 字节
func removeNullBytes(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}
