// Package httpapi serves the local inspection endpoints: liveness of the
// store and the executor, and the table of armed reminder timers.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	hpprof "net/http/pprof"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"orgbot/internal/jobstore"
	rtsup "orgbot/internal/runtime/supervisor"
	"orgbot/internal/task/engine"
	logx "orgbot/pkg/logx"
)

type Config struct {
	Addr  string
	Pprof bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type JobLister interface {
	Jobs() []jobstore.Job
}

type EngineStats interface {
	Snapshot() engine.Snapshot
}

type Deps struct {
	Store  Pinger
	Jobs   JobLister
	Engine EngineStats
	Log    logx.Logger
	// Now stamps responses; time.Now when nil.
	Now func() time.Time
}

type Server struct {
	mu  sync.Mutex
	cfg Config
	d   Deps
	log logx.Logger

	ln  net.Listener
	srv *http.Server
	sup *rtsup.Supervisor
}

func New(cfg Config, d Deps) *Server {
	if d.Log.IsZero() {
		d.Log = logx.Nop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 5 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return &Server{cfg: cfg, d: d, log: d.Log}
}

// Handler builds the router. It is exported for tests and embedding.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.requestLog, middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Get("/jobs", s.jobs)

	if s.cfg.Pprof {
		r.HandleFunc("/debug/pprof/", hpprof.Index)
		r.HandleFunc("/debug/pprof/cmdline", hpprof.Cmdline)
		r.HandleFunc("/debug/pprof/profile", hpprof.Profile)
		r.HandleFunc("/debug/pprof/symbol", hpprof.Symbol)
		r.HandleFunc("/debug/pprof/trace", hpprof.Trace)
		r.Handle("/debug/pprof/{name}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hpprof.Handler(chi.URLParam(r, "name")).ServeHTTP(w, r)
		}))
	}
	return r
}

// Start listens on cfg.Addr and serves until Stop or ctx is done. The serve
// loop restarts with backoff if the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sup != nil {
		return nil
	}
	addr := strings.TrimSpace(s.cfg.Addr)
	if addr == "" || addr == "-" {
		return errors.New("http addr is empty")
	}
	if !isLoopbackAddr(addr) {
		s.log.Warn("inspection server bound to a non-loopback address", logx.String("addr", addr))
	}

	s.sup = rtsup.New(ctx,
		rtsup.WithLogger(s.log),
		rtsup.WithCancelOnError(false),
	)
	s.sup.GoRestart("http.serve", func(c context.Context) error {
		return s.serveOnce(c, addr)
	}, rtsup.WithRestartBackoff(500*time.Millisecond, 10*time.Second))
	return nil
}

func (s *Server) serveOnce(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		if ctx.Err() != nil {
			return context.Canceled
		}
		return err
	}
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.mu.Lock()
	s.ln, s.srv = ln, srv
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = srv.Shutdown(cctx)
		cancel()
	}()

	s.log.Info("http started", logx.String("addr", ln.Addr().String()), logx.Bool("pprof", s.cfg.Pprof))
	err = srv.Serve(ln)

	s.mu.Lock()
	if s.srv == srv {
		s.ln, s.srv = nil, nil
	}
	s.mu.Unlock()

	if ctx.Err() != nil {
		return context.Canceled
	}
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return errors.New("http server exited unexpectedly")
	}
	return err
}

// Addr is the bound listener address, empty when not serving.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (s *Server) Stop(ctx context.Context) {
	s.mu.Lock()
	sup := s.sup
	s.sup = nil
	s.mu.Unlock()
	if sup == nil {
		return
	}
	// Cancelling the supervisor shuts the listener down through serveOnce.
	if err := sup.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("http stop", logx.Err(err))
	}
	s.log.Info("http stopped")
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			logx.String("method", r.Method),
			logx.String("path", r.URL.Path),
			logx.Int("status", ww.Status()),
			logx.Duration("dur", time.Since(start)),
			logx.String("rid", middleware.GetReqID(r.Context())),
		)
	})
}

type healthResp struct {
	Status string           `json:"status"`
	Time   time.Time        `json:"time"`
	Store  string           `json:"store"`
	Jobs   int              `json:"jobs"`
	Engine *engine.Snapshot `json:"engine,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResp{Status: "ok", Time: s.d.Now(), Store: "ok"}
	code := http.StatusOK
	if s.d.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		err := s.d.Store.Ping(ctx)
		cancel()
		if err != nil {
			resp.Status, resp.Store = "degraded", err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	if s.d.Jobs != nil {
		resp.Jobs = len(s.d.Jobs.Jobs())
	}
	if s.d.Engine != nil {
		snap := s.d.Engine.Snapshot()
		snap.History = nil
		resp.Engine = &snap
		if !snap.Running {
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, resp)
}

type jobView struct {
	Key       string    `json:"key"`
	Kind      string    `json:"kind"`
	EntityID  int64     `json:"entity_id"`
	Day       string    `json:"day,omitempty"`
	Recipient int64     `json:"recipient,omitempty"`
	At        time.Time `json:"at"`
}

func (s *Server) jobs(w http.ResponseWriter, r *http.Request) {
	var list []jobstore.Job
	if s.d.Jobs != nil {
		list = s.d.Jobs.Jobs()
	}
	out := make([]jobView, 0, len(list))
	for _, j := range list {
		v := jobView{
			Key:       j.Key.String(),
			Kind:      j.Key.Kind.String(),
			EntityID:  j.Key.EntityID,
			Recipient: j.Key.Recipient,
			At:        j.At,
		}
		if !j.Key.Day.IsZero() {
			v.Day = j.Key.Day.String()
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func isLoopbackAddr(addr string) bool {
	h, _, err := net.SplitHostPort(addr)
	if err != nil || h == "" {
		return false
	}
	if strings.EqualFold(h, "localhost") {
		return true
	}
	ip := net.ParseIP(h)
	return ip != nil && ip.IsLoopback()
}
