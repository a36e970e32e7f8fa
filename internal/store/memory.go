package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore はテスト用のインメモリPointStore実装
// 実バックエンドと同様、未作成コレクションへの操作はErrRejectedになる
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]uint64            // name -> vector dim
	points      map[string]map[string]*Point // collection -> id -> point
}

// NewMemoryStore はMemoryStoreを作成する
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]uint64),
		points:      make(map[string]map[string]*Point),
	}
}

// EnsureCollection はコレクションが存在する状態にする
func (s *MemoryStore) EnsureCollection(ctx context.Context, name string, dim uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[name]; ok {
		return nil
	}

	s.collections[name] = dim
	s.points[name] = make(map[string]*Point)
	return nil
}

// Upsert はポイントを全置換で書き込む
func (s *MemoryStore) Upsert(ctx context.Context, collection string, point *Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dim, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("%w: upsert point %s: collection not found", ErrRejected, collection)
	}
	if uint64(len(point.Vector)) != dim {
		return fmt.Errorf("%w: upsert point %s/%s: vector dimension %d, expected %d",
			ErrRejected, collection, point.ID, len(point.Vector), dim)
	}

	s.points[collection][point.ID] = s.copyPoint(point)
	return nil
}

// Retrieve はIDでポイントを取得する。未存在は (nil, false, nil)
func (s *MemoryStore) Retrieve(ctx context.Context, collection, id string) (*Point, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.collections[collection]; !ok {
		return nil, false, fmt.Errorf("%w: retrieve point %s: collection not found", ErrRejected, collection)
	}

	point, ok := s.points[collection][id]
	if !ok {
		return nil, false, nil
	}

	return s.copyPoint(point), true, nil
}

// Delete はポイントを削除する。IDが存在しなくても成功する
func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection]; !ok {
		return fmt.Errorf("%w: delete point %s: collection not found", ErrRejected, collection)
	}

	delete(s.points[collection], id)
	return nil
}

// Scroll はフィルタに一致するポイントをlimit件まで返す（順序保証なし）
func (s *MemoryStore) Scroll(ctx context.Context, collection string, filter Filter, limit uint32) ([]*Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.collections[collection]; !ok {
		return nil, fmt.Errorf("%w: scroll points %s: collection not found", ErrRejected, collection)
	}

	var results []*Point
	for _, point := range s.points[collection] {
		if !filter.Matches(point.Payload) {
			continue
		}
		results = append(results, s.copyPoint(point))
		if limit > 0 && uint32(len(results)) >= limit {
			break
		}
	}

	return results, nil
}

// Ping は常に成功する
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close はストアをクローズする
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.collections = make(map[string]uint64)
	s.points = make(map[string]map[string]*Point)
	return nil
}

// copyPoint はポイントをディープコピーする
// 呼び出し元とストア内部でpayloadを共有しないため
func (s *MemoryStore) copyPoint(point *Point) *Point {
	vectorCopy := make([]float32, len(point.Vector))
	copy(vectorCopy, point.Vector)

	return &Point{
		ID:      point.ID,
		Vector:  vectorCopy,
		Payload: copyPayload(point.Payload),
	}
}

// copyPayload はpayloadをJSON経由でディープコピーする
func copyPayload(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}

	b, _ := json.Marshal(payload)
	var result map[string]any
	json.Unmarshal(b, &result)
	return result
}
