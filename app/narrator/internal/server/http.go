package server

import (
	nethttp "net/http"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/sora_narrative/app/narrator/internal/conf"
	"github.com/iWorld-y/sora_narrative/app/narrator/internal/service"
)

func NewHTTPServer(c *conf.Server, s *service.NarrativeService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Filter(CORS),
	}
	if c != nil && c.Http != nil {
		if c.Http.Addr != "" {
			opts = append(opts, http.Address(c.Http.Addr))
		}
		if c.Http.Timeout != "" {
			if d, err := time.ParseDuration(c.Http.Timeout); err == nil {
				opts = append(opts, http.Timeout(d))
			}
		}
	}

	srv := http.NewServer(opts...)
	srv.HandleFunc("/api/narrative", s.Narrative)
	srv.HandleFunc("/api/beats", s.Beats)
	srv.HandleFunc("/healthz", s.Healthz)
	log.NewHelper(logger).Info("registered routes: /api/narrative /api/beats /healthz")
	return srv
}

// CORS 允许任意来源，OPTIONS 预检直接返回空的 200
func CORS(next nethttp.Handler) nethttp.Handler {
	return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == nethttp.MethodOptions {
			w.WriteHeader(nethttp.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
