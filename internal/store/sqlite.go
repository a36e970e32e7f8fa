package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore はSQLiteを使用したPointStore実装（ローカル単一ファイル向け）
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore はSQLiteStoreを作成し、スキーマを初期化する
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WALモードを有効化
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	schemaSQL := `
	CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY,
		dim INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS points (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		vector BLOB,
		payload TEXT NOT NULL,
		PRIMARY KEY (collection, id)
	);
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// EnsureCollection はコレクションが存在する状態にする
// 既存コレクションの次元が異なる場合はErrRejected
func (s *SQLiteStore) EnsureCollection(ctx context.Context, name string, dim uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing uint64
	err := s.db.QueryRowContext(ctx, `SELECT dim FROM collections WHERE name = ?`, name).Scan(&existing)
	if err == nil {
		if existing != dim {
			return fmt.Errorf("%w: create collection %s: dimension %d, existing %d",
				ErrRejected, name, dim, existing)
		}
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("%w: check collection %s: %v", ErrUnavailable, name, err)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO collections (name, dim) VALUES (?, ?)`, name, dim); err != nil {
		return fmt.Errorf("%w: create collection %s: %v", ErrUnavailable, name, err)
	}

	return nil
}

// Upsert はポイントを全置換で書き込む
func (s *SQLiteStore) Upsert(ctx context.Context, collection string, point *Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dim, err := s.collectionDim(ctx, collection)
	if err != nil {
		return fmt.Errorf("upsert point %s/%s: %w", collection, point.ID, err)
	}
	if uint64(len(point.Vector)) != dim {
		return fmt.Errorf("%w: upsert point %s/%s: vector dimension %d, expected %d",
			ErrRejected, collection, point.ID, len(point.Vector), dim)
	}

	payloadJSON, err := json.Marshal(point.Payload)
	if err != nil {
		return fmt.Errorf("%w: upsert point %s/%s: %v", ErrRejected, collection, point.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO points (collection, id, vector, payload)
		VALUES (?, ?, ?, ?)
	`, collection, point.ID, encodeVector(point.Vector), string(payloadJSON))
	if err != nil {
		return fmt.Errorf("%w: upsert point %s/%s: %v", ErrUnavailable, collection, point.ID, err)
	}

	return nil
}

// Retrieve はIDでポイントを取得する。未存在は (nil, false, nil)
func (s *SQLiteStore) Retrieve(ctx context.Context, collection, id string) (*Point, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.collectionDim(ctx, collection); err != nil {
		return nil, false, fmt.Errorf("retrieve point %s/%s: %w", collection, id, err)
	}

	var payloadJSON string
	var vectorBlob []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT vector, payload FROM points WHERE collection = ? AND id = ?
	`, collection, id).Scan(&vectorBlob, &payloadJSON)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: retrieve point %s/%s: %v", ErrUnavailable, collection, id, err)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return nil, false, fmt.Errorf("retrieve point %s/%s: decode payload: %w", collection, id, err)
	}

	return &Point{
		ID:      id,
		Vector:  decodeVector(vectorBlob),
		Payload: payload,
	}, true, nil
}

// Delete はポイントを削除する。IDが存在しなくても成功する
func (s *SQLiteStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.collectionDim(ctx, collection); err != nil {
		return fmt.Errorf("delete point %s/%s: %w", collection, id, err)
	}

	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM points WHERE collection = ? AND id = ?
	`, collection, id); err != nil {
		return fmt.Errorf("%w: delete point %s/%s: %v", ErrUnavailable, collection, id, err)
	}

	return nil
}

// Scroll はフィルタに一致するポイントをlimit件まで返す（順序保証なし）
// フィルタはpayloadをデコードしてGo側で評価する
func (s *SQLiteStore) Scroll(ctx context.Context, collection string, filter Filter, limit uint32) ([]*Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.collectionDim(ctx, collection); err != nil {
		return nil, fmt.Errorf("scroll points %s: %w", collection, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, payload FROM points WHERE collection = ?
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("%w: scroll points %s: %v", ErrUnavailable, collection, err)
	}
	defer rows.Close()

	var results []*Point
	for rows.Next() {
		var id, payloadJSON string
		if err := rows.Scan(&id, &payloadJSON); err != nil {
			return nil, fmt.Errorf("%w: scroll points %s: %v", ErrUnavailable, collection, err)
		}

		var payload map[string]any
		if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
			continue
		}

		if !filter.Matches(payload) {
			continue
		}

		results = append(results, &Point{ID: id, Payload: payload})
		if limit > 0 && uint32(len(results)) >= limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scroll points %s: %v", ErrUnavailable, collection, err)
	}

	return results, nil
}

// Ping は接続診断用にコレクション数を取得する（読み取り専用）
func (s *SQLiteStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM collections`).Scan(&count); err != nil {
		return fmt.Errorf("%w: ping %s: %v", ErrUnavailable, s.dbPath, err)
	}
	return nil
}

// Close はストアをクローズする
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// collectionDim はコレクションの次元を返す。未作成はErrRejected
func (s *SQLiteStore) collectionDim(ctx context.Context, collection string) (uint64, error) {
	var dim uint64
	err := s.db.QueryRowContext(ctx, `SELECT dim FROM collections WHERE name = ?`, collection).Scan(&dim)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("%w: collection not found", ErrRejected)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return dim, nil
}

// encodeVector はfloat32ベクトルをBLOBにエンコードする
func encodeVector(vector []float32) []byte {
	buf := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeVector はBLOBからfloat32ベクトルを復元する
func decodeVector(blob []byte) []float32 {
	if len(blob) == 0 {
		return nil
	}
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}
