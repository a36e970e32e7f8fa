// Package service implements journal semantics on top of the point store.
package service

import (
	"context"
	"errors"

	"github.com/mindlog-app/journal-store/internal/model"
)

// JournalService はジャーナルのCRUD操作を提供する
type JournalService interface {
	// Create はジャーナルを新規作成する（IDはサーバー側で採番）
	Create(ctx context.Context, req *CreateJournalRequest) (*model.Journal, error)

	// Get はIDでジャーナルを取得する。未存在は (nil, false, nil)
	Get(ctx context.Context, id string) (*model.Journal, bool, error)

	// Update は既存ジャーナルにパッチをマージして保存する
	// 未存在IDはErrJournalNotFound
	Update(ctx context.Context, id string, patch *model.JournalPatch) (*model.Journal, error)

	// Delete はジャーナルを削除する。未存在IDでも成功する（冪等）
	Delete(ctx context.Context, id string) error

	// ListByOwner は所有者のジャーナル一覧を取得する
	ListByOwner(ctx context.Context, req *ListByOwnerRequest) ([]*model.Journal, error)
}

const (
	// CollectionJournals はジャーナルを保存するコレクション名
	CollectionJournals = "journals"

	// JournalVectorDim はプレースホルダベクトルの次元
	// バックエンドのスキーマ要件であり、意味的な役割はない
	JournalVectorDim = 384

	// DefaultListLimit はListByOwnerのデフォルト取得上限
	// それ以上必要な呼び出し側はLimitで明示的に指定する
	DefaultListLimit = 10
)

// エラー定義
var (
	ErrTitleRequired     = errors.New("title is required")
	ErrContentRequired   = errors.New("content is required")
	ErrUserIDRequired    = errors.New("userId is required")
	ErrIDRequired        = errors.New("id is required")
	ErrTitleTooLong      = errors.New("title must not exceed 200 characters")
	ErrContentTooLong    = errors.New("content must not exceed 1000 characters")
	ErrInvalidTimeFormat = errors.New("invalid time format (expected ISO8601 UTC)")
	ErrJournalNotFound   = errors.New("journal not found")
)

// IsValidationError は入力バリデーション起因のエラーかを返す
// バリデーションエラーはバックエンドに到達する前にローカルで棄却される
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrTitleRequired,
		ErrContentRequired,
		ErrUserIDRequired,
		ErrIDRequired,
		ErrTitleTooLong,
		ErrContentTooLong,
		ErrInvalidTimeFormat,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
