// Package http implements the HTTP transport for journal-store.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mindlog-app/journal-store/internal/model"
	"github.com/mindlog-app/journal-store/internal/service"
	"github.com/mindlog-app/journal-store/internal/store"
)

// UserIDHeader は上流の認証層が検証済みユーザーIDを渡すヘッダ
// 本サーバーは資格情報の検証を行わず、IDの不在のみを拒否する
const UserIDHeader = "X-User-Id"

// Config はHTTPサーバー設定
type Config struct {
	Addr string // listen address (例: "127.0.0.1:8765")
}

// Server はジャーナルAPIのHTTPサーバー
type Server struct {
	journals service.JournalService
	config   Config
	mux      *http.ServeMux
	srv      *http.Server
}

// New は新しいServerを生成
func New(journals service.JournalService, config Config) *Server {
	s := &Server{
		journals: journals,
		config:   config,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /journals", s.handleCreate)
	mux.HandleFunc("GET /journals", s.handleList)
	mux.HandleFunc("GET /journals/{id}", s.handleGet)
	mux.HandleFunc("PUT /journals/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /journals/{id}", s.handleDelete)
	s.mux = mux

	s.srv = &http.Server{
		Addr:    config.Addr,
		Handler: mux,
	}

	return s
}

// Handler はルーティング済みハンドラを返す（テスト用）
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run はサーバーを起動し、contextがキャンセルされるまで実行
func (s *Server) Run(ctx context.Context) error {
	// contextキャンセル時にShutdownを呼ぶ
	go func() {
		<-ctx.Done()
		s.srv.Shutdown(context.Background())
	}()

	slog.Info("journal server listening", "addr", s.config.Addr)

	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		// Graceful shutdownはエラーではない
		return nil
	}
	return err
}

// createJournalBody はジャーナル作成リクエストボディ
// userIdはボディではなくヘッダ由来（トークン検証済みのIDを信頼する）
type createJournalBody struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	CreatedAt *string  `json:"createdAt"`
}

// updateJournalBody はジャーナル更新リクエストボディ。nilは変更なし
type updateJournalBody struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var body createJournalBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	journal, err := s.journals.Create(r.Context(), &service.CreateJournalRequest{
		UserID:    uid,
		Title:     body.Title,
		Content:   body.Content,
		Tags:      body.Tags,
		CreatedAt: body.CreatedAt,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, journal)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireUser(w, r); !ok {
		return
	}

	journal, found, err := s.journals.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "journal not found")
		return
	}

	writeJSON(w, http.StatusOK, journal)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireUser(w, r); !ok {
		return
	}

	var body updateJournalBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	journal, err := s.journals.Update(r.Context(), r.PathValue("id"), &model.JournalPatch{
		Title:   body.Title,
		Content: body.Content,
		Tags:    body.Tags,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, journal)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireUser(w, r); !ok {
		return
	}

	if err := s.journals.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Journal deleted successfully",
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	req := &service.ListByOwnerRequest{UserID: uid}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		req.Limit = &limit
	}

	journals, err := s.journals.ListByOwner(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, journals)
}

// requireUser は検証済みユーザーIDをヘッダから取り出す
// 不在の場合は401を書き込み、falseを返す
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid := r.Header.Get(UserIDHeader)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized: No valid user found")
		return "", false
	}
	return uid, true
}

// writeServiceError はサービス層のエラーをHTTPステータスに変換する
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case service.IsValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrJournalNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, store.ErrRejected):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
