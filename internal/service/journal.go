package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mindlog-app/journal-store/internal/model"
	"github.com/mindlog-app/journal-store/internal/store"
)

// journalService はJournalServiceの実装
type journalService struct {
	store store.PointStore
}

// NewJournalService はJournalServiceの新しいインスタンスを作成
func NewJournalService(s store.PointStore) JournalService {
	return &journalService{
		store: s,
	}
}

// Create はジャーナルを新規作成する
func (s *journalService) Create(ctx context.Context, req *CreateJournalRequest) (*model.Journal, error) {
	// バリデーション
	if req.UserID == "" {
		return nil, ErrUserIDRequired
	}
	if req.Title == "" {
		return nil, ErrTitleRequired
	}
	if req.Content == "" {
		return nil, ErrContentRequired
	}
	if len(req.Title) > model.MaxTitleLength {
		return nil, ErrTitleTooLong
	}
	if len(req.Content) > model.MaxContentLength {
		return nil, ErrContentTooLong
	}

	// createdAtはクライアント指定を許容。未指定ならサーバー側で設定
	createdAt := time.Now().UTC().Format(time.RFC3339)
	if req.CreatedAt != nil {
		if _, err := time.Parse(time.RFC3339, *req.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTimeFormat, err)
		}
		createdAt = *req.CreatedAt
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	journal := &model.Journal{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		Title:     req.Title,
		Content:   req.Content,
		Tags:      tags,
		CreatedAt: createdAt,
	}

	if err := s.store.Upsert(ctx, CollectionJournals, journalPoint(journal)); err != nil {
		slog.Error("failed to create journal", "id", journal.ID, "error", err)
		return nil, fmt.Errorf("failed to create journal: %w", err)
	}

	return journal, nil
}

// Get はIDでジャーナルを取得する
// 未存在は (nil, false, nil) であり、正常な結果として扱う
func (s *journalService) Get(ctx context.Context, id string) (*model.Journal, bool, error) {
	if id == "" {
		return nil, false, ErrIDRequired
	}

	point, found, err := s.store.Retrieve(ctx, CollectionJournals, id)
	if err != nil {
		slog.Error("failed to get journal", "id", id, "error", err)
		return nil, false, fmt.Errorf("failed to get journal: %w", err)
	}
	if !found {
		return nil, false, nil
	}

	return payloadToJournal(id, point.Payload), true, nil
}

// Update は既存ジャーナルにパッチをマージして保存する
// バックエンドに部分更新プリミティブがないため、取得→マージ→全置換で実現する
// retrieve→upsertは原子的ではなく、同一IDへの並行更新は後勝ち（バージョン検査なし）
func (s *journalService) Update(ctx context.Context, id string, patch *model.JournalPatch) (*model.Journal, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if patch.Title != nil && len(*patch.Title) > model.MaxTitleLength {
		return nil, ErrTitleTooLong
	}
	if patch.Content != nil && len(*patch.Content) > model.MaxContentLength {
		return nil, ErrContentTooLong
	}

	point, found, err := s.store.Retrieve(ctx, CollectionJournals, id)
	if err != nil {
		slog.Error("failed to get journal for update", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get journal: %w", err)
	}
	if !found {
		return nil, ErrJournalNotFound
	}

	// 既存payloadを復元してからパッチを適用する
	// UserID/CreatedAtはパッチにフィールドがないため必ず保持される
	journal := payloadToJournal(id, point.Payload)
	patch.Apply(journal)

	updatedAt := time.Now().UTC().Format(time.RFC3339)
	journal.UpdatedAt = &updatedAt

	if err := s.store.Upsert(ctx, CollectionJournals, journalPoint(journal)); err != nil {
		slog.Error("failed to update journal", "id", id, "error", err)
		return nil, fmt.Errorf("failed to update journal: %w", err)
	}

	return journal, nil
}

// Delete はジャーナルを削除する。未存在IDでも成功する
func (s *journalService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}

	if err := s.store.Delete(ctx, CollectionJournals, id); err != nil {
		slog.Error("failed to delete journal", "id", id, "error", err)
		return fmt.Errorf("failed to delete journal: %w", err)
	}

	return nil
}

// ListByOwner は所有者のジャーナル一覧を取得する
// userIdの完全一致フィルタのみ。結果はcreatedAt降順に整列して返す
func (s *journalService) ListByOwner(ctx context.Context, req *ListByOwnerRequest) ([]*model.Journal, error) {
	if req.UserID == "" {
		return nil, ErrUserIDRequired
	}

	limit := DefaultListLimit
	if req.Limit != nil {
		limit = *req.Limit
		// limit=0は明示的な0件要求
		if limit == 0 {
			return []*model.Journal{}, nil
		}
	}

	filter := store.Filter{
		Must: []store.Condition{
			{Key: "userId", Value: req.UserID},
		},
	}

	points, err := s.store.Scroll(ctx, CollectionJournals, filter, uint32(limit))
	if err != nil {
		slog.Error("failed to list journals", "userId", req.UserID, "error", err)
		return nil, fmt.Errorf("failed to list journals: %w", err)
	}

	journals := make([]*model.Journal, 0, len(points))
	for _, point := range points {
		journals = append(journals, payloadToJournal(point.ID, point.Payload))
	}

	// Scrollは順序保証がないため、createdAt降順でソートする
	sort.Slice(journals, func(i, j int) bool {
		ti, erri := time.Parse(time.RFC3339, journals[i].CreatedAt)
		tj, errj := time.Parse(time.RFC3339, journals[j].CreatedAt)
		if erri != nil {
			return false
		}
		if errj != nil {
			return true
		}
		return ti.After(tj)
	})

	return journals, nil
}

// Helper functions

// placeholderVector は全要素0のプレースホルダベクトルを返す
// ランキングには使用されず、バックエンドのスキーマを満たすためだけに存在する
func placeholderVector() []float32 {
	return make([]float32, JournalVectorDim)
}

// journalPoint はJournalからストアのポイントを構築する
func journalPoint(j *model.Journal) *store.Point {
	return &store.Point{
		ID:      j.ID,
		Vector:  placeholderVector(),
		Payload: journalPayload(j),
	}
}

// journalPayload はJournalからpayloadを構築する（IDはpayloadに含めない）
func journalPayload(j *model.Journal) map[string]any {
	payload := map[string]any{
		"title":     j.Title,
		"content":   j.Content,
		"userId":    j.UserID,
		"tags":      j.Tags,
		"createdAt": j.CreatedAt,
	}
	if j.UpdatedAt != nil {
		payload["updatedAt"] = *j.UpdatedAt
	}
	return payload
}

// payloadToJournal はpayloadからJournalを復元する
func payloadToJournal(id string, payload map[string]any) *model.Journal {
	journal := &model.Journal{
		ID:        id,
		UserID:    stringField(payload, "userId"),
		Title:     stringField(payload, "title"),
		Content:   stringField(payload, "content"),
		Tags:      stringSliceField(payload, "tags"),
		CreatedAt: stringField(payload, "createdAt"),
	}

	if v := stringField(payload, "updatedAt"); v != "" {
		journal.UpdatedAt = &v
	}

	return journal
}

func stringField(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

// stringSliceField はtagsを復元する
// バックエンドやJSON経由の往復で[]stringが[]anyになるため両方を受ける
func stringSliceField(payload map[string]any, key string) []string {
	switch v := payload[key].(type) {
	case []string:
		result := make([]string, len(v))
		copy(result, v)
		return result
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	}
	return []string{}
}
