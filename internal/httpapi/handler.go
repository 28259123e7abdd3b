package httpapi

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"

	"github.com/VitaminP8/forum/internal/post"
	"github.com/VitaminP8/forum/internal/subscription"
	"github.com/VitaminP8/forum/internal/thread"
	"github.com/gorilla/mux"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed assets/base.css
var baseCSS []byte

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Handler - тонкая HTTP обертка над хранилищем и сборщиком дерева
type Handler struct {
	posts   post.PostStorage
	threads *thread.Assembler
	subs    subscription.Manager
}

func NewHandler(posts post.PostStorage, threads *thread.Assembler, subs subscription.Manager) *Handler {
	return &Handler{
		posts:   posts,
		threads: threads,
		subs:    subs,
	}
}

func (h *Handler) serveCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Write(baseCSS)
}

func (h *Handler) showPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.GetRootPosts()
	if err != nil {
		writeError(w, r, err)
		return
	}

	render(w, r, "show_posts", map[string]any{"Posts": posts})
}

func (h *Handler) showCreatePost(w http.ResponseWriter, r *http.Request) {
	render(w, r, "show_create", nil)
}

func (h *Handler) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	created, err := h.posts.CreateRootPost(r.FormValue("author"), r.FormValue("message"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/post/%d", created.ID), http.StatusFound)
}

func (h *Handler) showPost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	found, err := h.posts.GetPostByID(id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	replies, err := h.threads.BuildTree(id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render(w, r, "show_post", map[string]any{
		"Post":    found,
		"Replies": replies,
	})
}

func (h *Handler) showCreateReply(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	parent, err := h.posts.GetPostByID(id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render(w, r, "show_reply", map[string]any{"Parent": parent})
}

func (h *Handler) handleCreateReply(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	reply, err := h.posts.CreateReply(id, r.FormValue("author"), r.FormValue("message"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	if h.subs != nil {
		h.subs.Publish(*reply.RootID, reply)
	}

	http.Redirect(w, r, fmt.Sprintf("/post/%d", *reply.RootID), http.StatusFound)
}

func (h *Handler) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	if err := h.posts.SoftDeletePost(id); err != nil {
		writeError(w, r, err)
		return
	}

	deleted, err := h.posts.GetPostByID(id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/post/%d", deleted.ThreadRootID()), http.StatusFound)
}

// threadEvents отдает новые ответы ветки как server-sent events
func (h *Handler) threadEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	found, err := h.posts.GetPostByID(id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok || h.subs == nil {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, cancel := h.subs.Subscribe(found.ThreadRootID())
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case reply, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(reply)
			if err != nil {
				log.Printf("encode reply %d: %v", reply.ID, err)
				continue
			}
			fmt.Fprintf(w, "event: reply\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func postID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil || id == 0 {
		http.NotFound(w, r)
		return 0, false
	}
	return uint(id), true
}

func render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("[%s] render %s: %v", RequestID(r.Context()), name, err)
	}
}

// writeError: ошибки клиента - 4xx, ошибки хранилища и блокировки - 500
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, post.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, post.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		log.Printf("[%s] %s %s: %v", RequestID(r.Context()), r.Method, r.URL.Path, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
