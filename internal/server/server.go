// Package server 以 HTTP JSON 的形式对外提供分区数据。
//
// 所有 feed 路由都返回 200：列表或 trailer 失败已在 feed 层降级为空分区或 null。
package server

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/op/go-logging"

	"github.com/John-Robertt/flixfeed/internal/app/feed"
	"github.com/John-Robertt/flixfeed/internal/config"
	"github.com/John-Robertt/flixfeed/internal/domain"
	"github.com/John-Robertt/flixfeed/internal/provider"
)

var log = logging.MustGetLogger("server")

const shutdownTimeout = 5 * time.Second

type Server struct {
	eff    config.EffectiveConfig
	prov   provider.Provider
	client *http.Client
	tpl    *template.Template
}

// New 创建 Server；client 由调用方构造（通常是 feed.NewClient），整个进程共享。
func New(eff config.EffectiveConfig, prov provider.Provider, c *http.Client) *Server {
	return &Server{
		eff:    eff,
		prov:   prov,
		client: c,
		tpl:    template.Must(template.New("index").Parse(indexTpl)),
	}
}

// Routes 返回挂好中间件的 chi router。
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLog)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/health", handleHealth)
	r.Route("/sections", func(r chi.Router) {
		r.Get("/", s.handleSections)
		r.Get("/report", s.handleReport)
	})
	r.Route("/movies", func(r chi.Router) {
		r.Get("/popular", s.handlePopular)
		r.Get("/trending", s.handleTrending)
		r.Get("/{id}/trailer", s.handleTrailer)
	})
	return r
}

// Serve 在 l 上提供服务，直到 ctx 结束后优雅关闭。
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:      s.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		log.Infof("shutting down server addr=%s", l.Addr())
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownErr <- srv.Shutdown(sctx)
	}()

	log.Infof("starting server addr=%s", l.Addr())
	if err := srv.Serve(l); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := <-shutdownErr; err != nil {
		return err
	}
	log.Infof("stopped server addr=%s", l.Addr())
	return nil
}

// ListenAndServe 监听 eff.Listen 并调用 Serve。
func (s *Server) ListenAndServe(ctx context.Context) error {
	l, err := net.Listen("tcp", s.eff.Listen)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) feed(r *http.Request) domain.FeedReport {
	return feed.ExecuteWithClient(r.Context(), s.eff, s.prov, s.client, nil)
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.feed(r).SectionList())
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.feed(r))
}

func (s *Server) handlePopular(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, feed.Popular(r.Context(), s.prov, s.client))
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, feed.Trending(r.Context(), s.prov, s.client))
}

type trailerResponse struct {
	ID       string  `json:"id"`
	VideoURL *string `json:"videoUrl"`
}

func (s *Server) handleTrailer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, trailerResponse{
		ID:       id,
		VideoURL: feed.LookupTrailer(r.Context(), s.prov, s.client, id),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sections := s.feed(r).SectionList()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, sections); err != nil {
		log.Errorf("渲染首页失败: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("写入响应失败: %v", err)
	}
}

const indexTpl = `<!doctype html>
<html lang="en">
<meta charset="utf-8" />
<title>flixfeed</title>
<body>
{{- range .}}
<section class="section">
  <h2>{{.Title}}</h2>
  <ul>
  {{- range .Movies}}
    <li class="movie" data-id="{{.ID}}">
      <img src="{{.ThumbnailURL}}" alt="{{.Title}}" />
      <span class="title">{{.Title}}</span>
      {{- if .VideoURL}} <a class="trailer" href="{{.VideoURL}}">trailer</a>{{end}}
    </li>
  {{- else}}
    <li class="empty">no movies</li>
  {{- end}}
  </ul>
</section>
{{- end}}
</body>
</html>
`
