package service

import (
	"encoding/json"
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/sora_narrative/app/narrator/internal/domain"
	"github.com/iWorld-y/sora_narrative/app/narrator/internal/usecase"
)

const (
	defaultBeatsLimit = 20
	maxBeatsLimit     = 200
)

// NarrativeReply 叙事接口的响应，成功、等待、失败三种情况形状相同
type NarrativeReply struct {
	Narrative string  `json:"narrative"`
	Era       string  `json:"era"`
	MarketCap float64 `json:"marketCap"`
	Momentum  string  `json:"momentum"`
	BeatCount int     `json:"beatCount"`
	Audio     *string `json:"audio"`
}

// BeatEntry 叙事日志中的一条
type BeatEntry struct {
	ID        string  `json:"id"`
	Token     string  `json:"token"`
	Narrative string  `json:"narrative"`
	Era       string  `json:"era"`
	MarketCap float64 `json:"marketCap"`
	Momentum  string  `json:"momentum"`
	BeatCount int     `json:"beatCount"`
	HasAudio  bool    `json:"hasAudio"`
	CreatedAt string  `json:"createdAt"`
}

// NarrativeService HTTP 层，只负责参数解析与响应整形
type NarrativeService struct {
	uc  *usecase.NarrativeUseCase
	log *log.Helper
}

func NewNarrativeService(uc *usecase.NarrativeUseCase, logger log.Logger) *NarrativeService {
	return &NarrativeService{
		uc:  uc,
		log: log.NewHelper(logger),
	}
}

// Narrative GET/POST /api/narrative?token=&audio=
// 失败时同样返回 200 和失败信封。
func (s *NarrativeService) Narrative(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodGet && r.Method != nethttp.MethodPost {
		writeError(w, errors.New(nethttp.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use GET or POST"))
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			s.log.Errorf("narrative handler panic: %v", rec)
			writeJSON(w, nethttp.StatusOK, toReply(domain.FallbackBeat(s.uc.Progress().BeatCount)))
		}
	}()

	q := r.URL.Query()
	req := usecase.NarrateRequest{Token: q.Get("token")}
	if v := q.Get("audio"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			req.Audio = &on
		}
	}

	beat, err := s.uc.Narrate(r.Context(), req)
	if err != nil {
		s.log.Warnf("returning fallback beat: %v", err)
	}
	writeJSON(w, nethttp.StatusOK, toReply(beat))
}

// Beats GET /api/beats?limit=
func (s *NarrativeService) Beats(w nethttp.ResponseWriter, r *nethttp.Request) {
	limit := defaultBeatsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxBeatsLimit {
			writeError(w, errors.BadRequest("INVALID_LIMIT", "limit must be between 1 and 200"))
			return
		}
		limit = n
	}

	entries, err := s.uc.Recent(r.Context(), limit)
	if err != nil {
		s.log.Errorf("list beats: %v", err)
		writeError(w, errors.InternalServer("JOURNAL_UNAVAILABLE", "journal unavailable"))
		return
	}

	list := make([]BeatEntry, 0, len(entries))
	for _, e := range entries {
		list = append(list, BeatEntry{
			ID:        e.ID,
			Token:     e.Token,
			Narrative: e.Narrative,
			Era:       string(e.Era),
			MarketCap: e.MarketCap,
			Momentum:  string(e.Momentum),
			BeatCount: e.BeatCount,
			HasAudio:  e.HasAudio,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, nethttp.StatusOK, map[string]any{"beats": list})
}

// Healthz GET /healthz
func (s *NarrativeService) Healthz(w nethttp.ResponseWriter, _ *nethttp.Request) {
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"status":    "ok",
		"beatCount": s.uc.Progress().BeatCount,
	})
}

func toReply(b *domain.Beat) NarrativeReply {
	return NarrativeReply{
		Narrative: b.Narrative,
		Era:       string(b.Era),
		MarketCap: b.MarketCap,
		Momentum:  string(b.Momentum),
		BeatCount: b.BeatCount,
		Audio:     b.Audio,
	}
}

func writeJSON(w nethttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w nethttp.ResponseWriter, err *errors.Error) {
	writeJSON(w, int(err.Code), map[string]any{
		"code":    err.Code,
		"reason":  err.Reason,
		"message": err.Message,
	})
}
