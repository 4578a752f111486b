package cli

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/SammySnake-d/markmap-sub002/pkg/pipeline"
)

// newServeCmd creates the live preview server command.
func newServeCmd(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve FILE.md",
		Short: "Serve an auto-reloading HTML preview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), args[0], *configPath, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

// previewServer owns the latest render and the connected SSE clients.
type previewServer struct {
	input  string
	runner *pipeline.Runner
	opts   pipeline.Options
	logger *log.Logger

	mu        sync.RWMutex
	artifacts map[string][]byte

	clientsMu sync.Mutex
	clients   map[string]chan string
}

func runServe(ctx context.Context, input, configPath, addr string) error {
	logger := loggerFromContext(ctx)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	c, err := openCache(cfg)
	if err != nil {
		return err
	}

	srv := &previewServer{
		input:  input,
		runner: pipeline.NewRunner(c, nil, logger),
		opts: pipeline.Options{
			Input:   input,
			Engine:  cfg.EngineOptions(),
			Formats: []string{pipeline.FormatSVG, pipeline.FormatJSON},
			Style:   cfg.StyleKey(),
			Logger:  logger,
		},
		logger:  logger,
		clients: make(map[string]chan string),
	}
	defer srv.runner.Close()

	if err := srv.render(ctx); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(input); err != nil {
		return err
	}
	go srv.watch(ctx, watcher)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", srv.handleIndex)
	r.Get("/mindmap.svg", srv.handleSVG)
	r.Get("/layout.json", srv.handleLayout)
	r.Get("/events", srv.handleEvents)

	httpSrv := &http.Server{Addr: addr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Infof("Serving %s on http://localhost%s", input, addr)
	if err := httpSrv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return ctx.Err()
}

// render runs the pipeline and swaps in the new artifacts.
func (s *previewServer) render(ctx context.Context) error {
	p := newProgress(s.logger)
	result, err := s.runner.Execute(ctx, s.opts)
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("Rendered %d nodes", result.Stats.NodeCount))

	s.mu.Lock()
	s.artifacts = result.Artifacts
	s.mu.Unlock()
	return nil
}

// watch re-renders on file changes and notifies connected clients. Editors
// often emit several events per save; a short debounce collapses them.
func (s *previewServer) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(100*time.Millisecond, func() {
				// Rename-style saves replace the watched inode.
				_ = watcher.Add(s.input)
				if err := s.render(ctx); err != nil {
					s.logger.Error("re-render failed", "error", err)
					return
				}
				s.broadcast("reload")
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("watcher error", "error", err)
		}
	}
}

// broadcast sends an event to every connected SSE client.
func (s *previewServer) broadcast(event string) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for id, ch := range s.clients {
		select {
		case ch <- event:
		default:
			s.logger.Debug("dropping slow client", "client", id)
		}
	}
}

func (s *previewServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, indexHTML, s.input)
}

func (s *previewServer) handleSVG(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	data := s.artifacts[pipeline.FormatSVG]
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

func (s *previewServer) handleLayout(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	data := s.artifacts[pipeline.FormatJSON]
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

// handleEvents streams reload notifications over SSE until the client
// disconnects.
func (s *previewServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	id := uuid.NewString()
	ch := make(chan string, 4)

	s.clientsMu.Lock()
	s.clients[id] = ch
	s.clientsMu.Unlock()
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, id)
		s.clientsMu.Unlock()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: connected\ndata: %s\n\n", id)
	flusher.Flush()

	s.logger.Debug("client connected", "client", id)
	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("client disconnected", "client", id)
			return
		case event := <-ch:
			fmt.Fprintf(w, "event: %s\ndata: {}\n\n", event)
			flusher.Flush()
		}
	}
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>mindmap: %s</title>
<style>
  body { margin: 0; background: #fafafa; }
  img { display: block; margin: 0 auto; max-width: 100vw; }
</style>
</head>
<body>
<img id="map" src="/mindmap.svg" alt="mindmap">
<script>
  const source = new EventSource("/events");
  source.addEventListener("reload", () => {
    document.getElementById("map").src = "/mindmap.svg?t=" + Date.now();
  });
</script>
</body>
</html>
`
