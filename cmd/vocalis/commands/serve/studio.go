package serve

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/vocalis-ai/vocalis/pkg/studio"
)

// handleImages generates images and records them in the gallery.
func (s *Server) handleImages(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
		Count  int    `json:"count"`
		Aspect string `json:"aspect"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	images, err := s.opts.Studio.GenerateImages(r.Context(), studio.ImageRequest{
		Prompt:      req.Prompt,
		Count:       req.Count,
		AspectRatio: req.Aspect,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	items := make([]*studio.Item, 0, len(images))
	for _, img := range images {
		item, err := s.opts.Gallery.Add(r.Context(), studio.KindImage, req.Prompt, s.opts.ImageModel, img.MIMEType, img.Data)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		items = append(items, item)
	}
	writeJSON(w, items)
}

// videoTask tracks one in-flight video generation for status polling.
type videoTask struct {
	mu     sync.Mutex
	status studio.TaskStatus
	item   *studio.Item
	err    error
}

// handleVideoStart launches a video generation and returns a task id the
// page polls. The result lands in the gallery when the operation completes.
func (s *Server) handleVideoStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
		Aspect string `json:"aspect"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Generation outlives the HTTP request.
	ctx := context.Background()
	task, err := s.opts.Studio.GenerateVideo(ctx, studio.VideoRequest{
		Prompt:      req.Prompt,
		AspectRatio: req.Aspect,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	vt := &videoTask{status: studio.TaskStatusPending}
	s.tasksMu.Lock()
	s.tasks[task.ID] = vt
	s.tasksMu.Unlock()

	go func() {
		video, err := task.Wait(ctx)
		vt.mu.Lock()
		defer vt.mu.Unlock()
		if err != nil {
			vt.status = studio.TaskStatusFailed
			vt.err = err
			slog.Warn("video generation failed", "task", task.ID, "error", err)
			return
		}
		item, err := s.opts.Gallery.Add(ctx, studio.KindVideo, req.Prompt, s.opts.VideoModel, video.MIMEType, video.Data)
		if err != nil {
			vt.status = studio.TaskStatusFailed
			vt.err = err
			return
		}
		vt.status = studio.TaskStatusSuccess
		vt.item = item
	}()

	writeJSON(w, map[string]string{"id": task.ID})
}

func (s *Server) handleVideoStatus(w http.ResponseWriter, r *http.Request) {
	s.tasksMu.Lock()
	vt := s.tasks[r.PathValue("id")]
	s.tasksMu.Unlock()
	if vt == nil {
		http.Error(w, "unknown task", http.StatusNotFound)
		return
	}

	vt.mu.Lock()
	defer vt.mu.Unlock()
	resp := map[string]any{"status": vt.status}
	if vt.err != nil {
		resp["error"] = vt.err.Error()
	}
	if vt.item != nil {
		resp["item"] = vt.item
	}
	writeJSON(w, resp)
}

func (s *Server) handleGalleryList(w http.ResponseWriter, r *http.Request) {
	items, err := s.opts.Gallery.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []*studio.Item{}
	}
	writeJSON(w, items)
}

func (s *Server) handleGalleryMedia(w http.ResponseWriter, r *http.Request) {
	rc, item, err := s.opts.Gallery.Open(r.Context(), r.PathValue("id"))
	if errors.Is(err, studio.ErrItemNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", item.MIMEType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	io.Copy(w, rc)
}

func (s *Server) handleGalleryDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Gallery.Delete(r.Context(), r.PathValue("id")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
