package data

import (
	"context"
	"os"
	"testing"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/sora_narrative/app/narrator/internal/domain"
	"github.com/iWorld-y/sora_narrative/app/narrator/pkg/config"
)

func TestJournalRepo_Disabled(t *testing.T) {
	d, cleanup, err := NewData(&config.Config{}, log.DefaultLogger)
	require.NoError(t, err)
	defer cleanup()

	r := NewJournalRepo(d, log.DefaultLogger)
	require.NoError(t, r.Append(context.Background(), &domain.JournalEntry{ID: uuid.NewString()}))

	entries, err := r.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// 需要 NARRATOR_TEST_DATABASE_URL 指向可写的 PostgreSQL
func TestJournalRepo_Postgres(t *testing.T) {
	dsn := os.Getenv("NARRATOR_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("NARRATOR_TEST_DATABASE_URL not set")
	}

	d, cleanup, err := NewData(&config.Config{DB: config.DBConfig{Source: dsn}}, log.DefaultLogger)
	require.NoError(t, err)
	defer cleanup()

	r := NewJournalRepo(d, log.DefaultLogger)
	entry := &domain.JournalEntry{
		ID:        uuid.NewString(),
		Token:     "TokenAbc",
		Narrative: "Sora finds a worn coin in the ash.\x00",
		Era:       domain.EraAsh,
		MarketCap: 12_345,
		Momentum:  domain.MomentumUp,
		BeatCount: 1,
	}
	require.NoError(t, r.Append(context.Background(), entry))

	entries, err := r.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
	assert.Equal(t, "Sora finds a worn coin in the ash.", entries[0].Narrative)
	assert.Equal(t, domain.EraAsh, entries[0].Era)
}
