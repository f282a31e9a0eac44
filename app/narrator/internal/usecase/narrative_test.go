package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/sora_narrative/app/narrator/internal/data"
	"github.com/iWorld-y/sora_narrative/app/narrator/internal/domain"
	"github.com/iWorld-y/sora_narrative/app/narrator/internal/repo"
	"github.com/iWorld-y/sora_narrative/app/narrator/pkg/config"
	"github.com/iWorld-y/sora_narrative/app/narrator/pkg/storyteller"
)

type mockPriceFeed struct {
	mu    sync.Mutex
	caps  []float64
	err   error
	calls int
}

func (m *mockPriceFeed) MarketCap(_ context.Context, _ string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	if len(m.caps) == 0 {
		return 0, nil
	}
	mc := m.caps[0]
	if len(m.caps) > 1 {
		m.caps = m.caps[1:]
	}
	return mc, nil
}

type mockStoryteller struct {
	mu    sync.Mutex
	reply string
	err   error
	reqs  []storyteller.Request
}

func (m *mockStoryteller) NextBeat(_ context.Context, req storyteller.Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reqs = append(m.reqs, req)
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

type mockVoice struct {
	err   error
	calls int
}

func (m *mockVoice) Synthesize(_ context.Context, text string) ([]byte, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return []byte("mp3:" + text), nil
}

type mockJournal struct {
	mu      sync.Mutex
	entries []*domain.JournalEntry
}

func (m *mockJournal) Append(_ context.Context, e *domain.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockJournal) Recent(_ context.Context, limit int) ([]*domain.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.entries) {
		limit = len(m.entries)
	}
	return m.entries[:limit], nil
}

type fixture struct {
	prices  *mockPriceFeed
	teller  *mockStoryteller
	voice   *mockVoice
	state   repo.ProgressionRepo
	journal *mockJournal
	uc      *NarrativeUseCase
}

func newFixture(t *testing.T, audioDefault bool) *fixture {
	t.Helper()
	f := &fixture{
		prices:  &mockPriceFeed{caps: []float64{50_000}},
		teller:  &mockStoryteller{reply: "Sora finds a worn coin in the ash."},
		voice:   &mockVoice{},
		state:   data.NewProgressionRepo(),
		journal: &mockJournal{},
	}
	cfg := &config.Config{Narrator: config.NarratorConfig{DefaultToken: "DefaultTok", AudioDefault: &audioDefault}}
	f.uc = NewNarrativeUseCase(cfg, f.prices, f.teller, f.voice, f.state, f.journal, log.DefaultLogger)
	return f
}

func boolPtr(b bool) *bool { return &b }

func TestNarrate_Placeholder(t *testing.T) {
	f := newFixture(t, true)
	f.uc.defaultToken = ""

	for _, token := range []string{"", "  ", domain.PlaceholderToken} {
		beat, err := f.uc.Narrate(context.Background(), NarrateRequest{Token: token})
		require.NoError(t, err)
		assert.Equal(t, domain.AwaitingBeat(), beat)
	}
	assert.Zero(t, f.prices.calls)
	assert.Empty(t, f.teller.reqs)
	assert.Zero(t, f.voice.calls)
	assert.Equal(t, domain.ProgressionState{}, f.state.Snapshot())
}

func TestNarrate_FullCycle(t *testing.T) {
	f := newFixture(t, true)
	f.prices.caps = []float64{50_000, 50_400, 45_000}

	beat, err := f.uc.Narrate(context.Background(), NarrateRequest{Token: "TokenAbc"})
	require.NoError(t, err)
	assert.Equal(t, "Sora finds a worn coin in the ash.", beat.Narrative)
	assert.Equal(t, domain.EraGate, beat.Era)
	assert.Equal(t, domain.MomentumStable, beat.Momentum)
	assert.Equal(t, 50_000.0, beat.MarketCap)
	assert.Equal(t, 1, beat.BeatCount)
	require.NotNil(t, beat.Audio)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("mp3:"+beat.Narrative)), *beat.Audio)
	assert.Equal(t, "", f.teller.reqs[0].PreviousBeat)

	// +0.8% 超过死区
	beat, err = f.uc.Narrate(context.Background(), NarrateRequest{Token: "TokenAbc"})
	require.NoError(t, err)
	assert.Equal(t, domain.MomentumUp, beat.Momentum)
	assert.Equal(t, 2, beat.BeatCount)
	assert.Equal(t, "Sora finds a worn coin in the ash.", f.teller.reqs[1].PreviousBeat)

	beat, err = f.uc.Narrate(context.Background(), NarrateRequest{Token: "TokenAbc"})
	require.NoError(t, err)
	assert.Equal(t, domain.MomentumDown, beat.Momentum)
	assert.Equal(t, 3, beat.BeatCount)

	assert.Equal(t, domain.ProgressionState{LastMarketCap: 45_000, LastBeat: beat.Narrative, BeatCount: 3}, f.state.Snapshot())
	require.Len(t, f.journal.entries, 3)
	assert.Equal(t, "TokenAbc", f.journal.entries[0].Token)
	assert.True(t, f.journal.entries[0].HasAudio)
}

func TestNarrate_DefaultToken(t *testing.T) {
	f := newFixture(t, false)
	beat, err := f.uc.Narrate(context.Background(), NarrateRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, beat.BeatCount)
	require.Len(t, f.journal.entries, 1)
	assert.Equal(t, "DefaultTok", f.journal.entries[0].Token)
}

func TestNarrate_AudioFlag(t *testing.T) {
	t.Run("default off", func(t *testing.T) {
		f := newFixture(t, false)
		beat, err := f.uc.Narrate(context.Background(), NarrateRequest{Token: "t"})
		require.NoError(t, err)
		assert.Nil(t, beat.Audio)
		assert.Zero(t, f.voice.calls)
	})

	t.Run("explicit off", func(t *testing.T) {
		f := newFixture(t, true)
		beat, err := f.uc.Narrate(context.Background(), NarrateRequest{Token: "t", Audio: boolPtr(false)})
		require.NoError(t, err)
		assert.Nil(t, beat.Audio)
	})

	t.Run("explicit on", func(t *testing.T) {
		f := newFixture(t, false)
		beat, err := f.uc.Narrate(context.Background(), NarrateRequest{Token: "t", Audio: boolPtr(true)})
		require.NoError(t, err)
		assert.NotNil(t, beat.Audio)
	})

	t.Run("no synthesizer", func(t *testing.T) {
		f := newFixture(t, true)
		f.uc.voice = nil
		beat, err := f.uc.Narrate(context.Background(), NarrateRequest{Token: "t", Audio: boolPtr(true)})
		require.NoError(t, err)
		assert.Nil(t, beat.Audio)
	})

	t.Run("synthesis failure is swallowed", func(t *testing.T) {
		f := newFixture(t, true)
		f.voice.err = errors.New("tts quota")
		beat, err := f.uc.Narrate(context.Background(), NarrateRequest{Token: "t"})
		require.NoError(t, err)
		assert.Nil(t, beat.Audio)
		assert.Equal(t, 1, beat.BeatCount)
		assert.Equal(t, 1, f.state.Snapshot().BeatCount)
	})
}

func TestNarrate_GeneratorFailureLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.uc.Narrate(context.Background(), NarrateRequest{Token: "t"})
	require.NoError(t, err)
	before := f.state.Snapshot()

	f.teller.err = errors.New("model unavailable")
	f.prices.caps = []float64{900_000}
	beat, err := f.uc.Narrate(context.Background(), NarrateRequest{Token: "t"})
	require.Error(t, err)
	assert.Equal(t, domain.FallbackBeat(before.BeatCount), beat)
	assert.Equal(t, domain.FallbackNarrative, beat.Narrative)
	assert.Equal(t, before, f.state.Snapshot())
	assert.Equal(t, 1, f.voice.calls)
	assert.Len(t, f.journal.entries, 1)
}

func TestNarrate_PriceFeedFailure(t *testing.T) {
	f := newFixture(t, true)
	f.prices.err = errors.New("dexscreener api error (status 502)")

	beat, err := f.uc.Narrate(context.Background(), NarrateRequest{Token: "t"})
	require.Error(t, err)
	assert.Equal(t, domain.FallbackBeat(0), beat)
	assert.Empty(t, f.teller.reqs)
	assert.Equal(t, domain.ProgressionState{}, f.state.Snapshot())
}

func TestNarrate_ConcurrentCycles(t *testing.T) {
	const n = 32
	f := newFixture(t, false)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.Narrate(context.Background(), NarrateRequest{Token: "t"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, n, f.state.Snapshot().BeatCount)
	assert.Equal(t, n, f.uc.Progress().BeatCount)
	assert.Len(t, f.journal.entries, n)
}

func TestRecent(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.uc.Narrate(context.Background(), NarrateRequest{Token: "t"})
	require.NoError(t, err)

	entries, err := f.uc.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	f.uc.journal = nil
	entries, err = f.uc.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
