// Package store provides point storage interfaces and implementations.
package store

import (
	"context"
)

// PointStore はpoints-with-payloadストレージの抽象インターフェース
// バックエンド（Qdrant/SQLite/メモリ）のワイヤ詳細をドメイン層から隠蔽する
type PointStore interface {
	// EnsureCollection は指定次元のコレクションが存在する状態にする
	// バックエンドのcreateは冪等ではないため、存在確認を先に行う
	EnsureCollection(ctx context.Context, name string, dim uint64) error

	// Upsert はポイントを全置換で書き込む（insertとoverwriteを区別しない）
	Upsert(ctx context.Context, collection string, point *Point) error

	// Retrieve はIDでポイントを取得する
	// 未存在は (nil, false, nil) であり、エラーではない
	Retrieve(ctx context.Context, collection, id string) (*Point, bool, error)

	// Delete はポイントを削除する。IDが存在しなくても成功する（冪等）
	Delete(ctx context.Context, collection, id string) error

	// Scroll はフィルタに一致するポイントをlimit件まで返す（順序保証なし）
	Scroll(ctx context.Context, collection string, filter Filter, limit uint32) ([]*Point, error)

	// Ping は接続診断用の読み取り専用呼び出し
	Ping(ctx context.Context) error

	// Close はストアをクローズする
	Close() error
}
