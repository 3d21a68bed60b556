// Package serve implements the local web studio: a localhost HTTP server
// hosting browser voice sessions over WebSocket, streaming chat, the
// image/video studio, and the media gallery.
package serve

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/vocalis-ai/vocalis/pkg/chat"
	"github.com/vocalis-ai/vocalis/pkg/livewire"
	"github.com/vocalis-ai/vocalis/pkg/studio"
	"github.com/vocalis-ai/vocalis/pkg/voice"
)

//go:embed templates/*
var templateFS embed.FS

var tmpl *template.Template

func init() {
	var err error
	tmpl, err = template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		panic(err)
	}
}

// Options configures a Server.
type Options struct {
	// Addr is the listen address. The server refuses to start on a
	// non-loopback host.
	Addr string

	// NewChannel dials the realtime endpoint for a browser voice session.
	NewChannel func(ctx context.Context) (livewire.Channel, error)

	// Chat is the streaming text backend.
	Chat chat.Backend

	// Studio generates images and videos. ImageModel and VideoModel are the
	// effective model names recorded in the gallery.
	Studio     *studio.Client
	ImageModel string
	VideoModel string

	// Gallery persists generated media.
	Gallery *studio.Gallery
}

// Server is the web studio.
type Server struct {
	opts Options

	chat *chat.Session

	// One browser voice session at a time. The frames hub keeps streaming
	// idle frames when no session is live.
	voiceMu sync.Mutex
	session *voice.Session

	frames *frameHub

	tasksMu sync.Mutex
	tasks   map[string]*videoTask
}

// New creates a Server.
func New(opts Options) (*Server, error) {
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:8487"
	}
	if !isLoopback(opts.Addr) {
		return nil, fmt.Errorf("serve: refusing non-loopback address %q", opts.Addr)
	}
	return &Server{
		opts:   opts,
		chat:   chat.NewSession(opts.Chat),
		frames: newFrameHub(),
		tasks:  make(map[string]*videoTask),
	}, nil
}

// Run serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ws/voice", s.handleVoice)
	mux.HandleFunc("GET /api/voice/frames", s.handleFrames)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/chat/reset", s.handleChatReset)
	mux.HandleFunc("POST /api/images", s.handleImages)
	mux.HandleFunc("POST /api/videos", s.handleVideoStart)
	mux.HandleFunc("GET /api/videos/{id}", s.handleVideoStatus)
	mux.HandleFunc("GET /api/gallery", s.handleGalleryList)
	mux.HandleFunc("GET /api/gallery/{id}/media", s.handleGalleryMedia)
	mux.HandleFunc("DELETE /api/gallery/{id}", s.handleGalleryDelete)

	srv := &http.Server{Addr: s.opts.Addr, Handler: mux}

	go s.frames.idleLoop(ctx, s.currentSession)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("web studio listening", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if err := tmpl.ExecuteTemplate(w, "index.html", nil); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// currentSession returns the live browser voice session, or nil.
func (s *Server) currentSession() *voice.Session {
	s.voiceMu.Lock()
	defer s.voiceMu.Unlock()
	return s.session
}

// claimSession installs sess as the current session. Only one browser tab
// may hold a voice session at a time.
func (s *Server) claimSession(sess *voice.Session) bool {
	s.voiceMu.Lock()
	defer s.voiceMu.Unlock()
	if s.session != nil && s.session.State().IsLive() {
		return false
	}
	s.session = sess
	return true
}

func (s *Server) releaseSession(sess *voice.Session) {
	s.voiceMu.Lock()
	defer s.voiceMu.Unlock()
	if s.session == sess {
		s.session = nil
	}
}

func isLoopback(addr string) bool {
	host := addr
	if i := strings.LastIndexByte(addr, ':'); i >= 0 {
		host = addr[:i]
	}
	switch host {
	case "", "localhost", "127.0.0.1", "[::1]", "::1":
		return true
	}
	return false
}
