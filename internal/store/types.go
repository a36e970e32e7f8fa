package store

import "errors"

// Point はバックエンドに保存する1件のポイントを表す
// Payloadは任意フィールドのマッピング（スキーマはドメイン層が所有する）
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// Condition はpayloadフィールドの完全一致条件
type Condition struct {
	Key   string
	Value string
}

// Filter はScroll用のフィルタ（Must条件のAND結合のみ）
type Filter struct {
	Must []Condition
}

// Matches はpayloadが全条件を満たすかを判定する
// Qdrant以外の実装（memory/sqlite）がGo側でフィルタを評価するために使う
func (f Filter) Matches(payload map[string]any) bool {
	for _, cond := range f.Must {
		v, ok := payload[cond.Key]
		if !ok {
			return false
		}
		s, ok := v.(string)
		if !ok || s != cond.Value {
			return false
		}
	}
	return true
}

// エラー定義
var (
	ErrNotInitialized   = errors.New("store not initialized")
	ErrConnectionFailed = errors.New("failed to connect to store")
	ErrUnavailable      = errors.New("store unavailable")
	ErrRejected         = errors.New("backend rejected request")
	ErrCollectionExists = errors.New("collection already exists")
)

// DefaultScrollLimit はScrollのデフォルト取得件数
const DefaultScrollLimit = 10
