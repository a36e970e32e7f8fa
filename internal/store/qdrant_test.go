package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const testQdrantCollection = "test-journal-points"

// getQdrantURL は環境変数からQdrant URLを取得、未設定時はデフォルトを返す
func getQdrantURL() string {
	if url := os.Getenv("QDRANT_URL"); url != "" {
		return url
	}
	return DefaultQdrantURL
}

// setupQdrantTestStore はQdrant実体が必要なテスト用のストアを作成する
// 接続はlazyなので、疎通確認に失敗した場合はテストをスキップする
func setupQdrantTestStore(t *testing.T) *QdrantStore {
	t.Helper()

	store, err := NewQdrantStore(getQdrantURL())
	if err != nil {
		t.Fatalf("Failed to create QdrantStore: %v", err)
	}

	if err := store.Ping(context.Background()); err != nil {
		store.Close()
		t.Skip("Qdrant is not available, skipping test")
	}

	t.Cleanup(func() { store.Close() })
	return store
}

func setupQdrantTestCollection(t *testing.T) *QdrantStore {
	t.Helper()
	store := setupQdrantTestStore(t)

	if err := store.EnsureCollection(context.Background(), testQdrantCollection, 4); err != nil {
		t.Fatalf("EnsureCollection failed: %v", err)
	}
	return store
}

// TestParseQdrantAddr はURLからgRPC接続先への変換をテスト
func TestParseQdrantAddr(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{"default http port maps to grpc", "http://localhost:6333", "localhost", 6334, false},
		{"explicit grpc port", "http://localhost:6334", "localhost", 6334, false},
		{"custom port kept as-is", "http://qdrant.internal:7000", "qdrant.internal", 7000, false},
		{"no port defaults to grpc", "http://qdrant.internal", "qdrant.internal", 6334, false},
		{"missing host", "http://", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, err := parseQdrantAddr(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseQdrantAddr failed: %v", err)
			}
			if host != tt.wantHost {
				t.Errorf("expected host %s, got %s", tt.wantHost, host)
			}
			if port != tt.wantPort {
				t.Errorf("expected port %d, got %d", tt.wantPort, port)
			}
		})
	}
}

// TestClassifyError はgRPCエラーのストアエラーへの変換をテスト
func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unavailable", status.Error(codes.Unavailable, "connection refused"), ErrUnavailable},
		{"deadline exceeded", status.Error(codes.DeadlineExceeded, "timeout"), ErrUnavailable},
		{"invalid argument", status.Error(codes.InvalidArgument, "bad vector"), ErrRejected},
		{"already exists", status.Error(codes.AlreadyExists, "collection exists"), ErrCollectionExists},
		{"context deadline", context.DeadlineExceeded, ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err, "test op", "detail")
			if !errors.Is(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

// TestClassifyError_Unclassified は分類できないエラーが元のエラーを包んで返ることをテスト
func TestClassifyError_Unclassified(t *testing.T) {
	original := errors.New("something else")

	got := classifyError(original, "test op", "detail")
	if !errors.Is(got, original) {
		t.Errorf("expected wrapped original error, got %v", got)
	}
	if errors.Is(got, ErrUnavailable) || errors.Is(got, ErrRejected) {
		t.Errorf("unclassified error should not match store sentinels: %v", got)
	}
}

// TestBuildQdrantFilter はFilterからQdrantフィルタへの変換をテスト
func TestBuildQdrantFilter(t *testing.T) {
	if got := buildQdrantFilter(Filter{}); got != nil {
		t.Errorf("expected nil for empty filter, got %v", got)
	}

	filter := Filter{Must: []Condition{
		{Key: "userId", Value: "u1"},
		{Key: "title", Value: "T"},
	}}
	got := buildQdrantFilter(filter)
	if got == nil {
		t.Fatal("expected non-nil filter")
	}
	if len(got.Must) != 2 {
		t.Errorf("expected 2 conditions, got %d", len(got.Must))
	}
}

// TestConvertQdrantValue はQdrant Valueの変換をテスト
func TestConvertQdrantValue(t *testing.T) {
	strVal := &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: "hello"}}
	if got := convertQdrantValue(strVal); got != "hello" {
		t.Errorf("expected hello, got %v", got)
	}

	intVal := &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: 42}}
	if got := convertQdrantValue(intVal); got != int64(42) {
		t.Errorf("expected 42, got %v", got)
	}

	boolVal := &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: true}}
	if got := convertQdrantValue(boolVal); got != true {
		t.Errorf("expected true, got %v", got)
	}

	listVal := &qdrant.Value{Kind: &qdrant.Value_ListValue{ListValue: &qdrant.ListValue{
		Values: []*qdrant.Value{
			{Kind: &qdrant.Value_StringValue{StringValue: "a"}},
			{Kind: &qdrant.Value_StringValue{StringValue: "b"}},
		},
	}}}
	got, ok := convertQdrantValue(listVal).([]any)
	if !ok || len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("expected [a b], got %v", convertQdrantValue(listVal))
	}

	if got := convertQdrantValue(nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

// TestQdrantStore_UpsertRetrieveDelete はQdrant実体に対するCRUDの往復をテスト
// （Qdrantが起動していない環境ではスキップされる）
func TestQdrantStore_UpsertRetrieveDelete(t *testing.T) {
	store := setupQdrantTestCollection(t)
	ctx := context.Background()

	id := uuid.New().String()
	point := &Point{
		ID:     id,
		Vector: []float32{0, 0, 0, 0},
		Payload: map[string]any{
			"title":  "T",
			"userId": "u1",
		},
	}
	if err := store.Upsert(ctx, testQdrantCollection, point); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, found, err := store.Retrieve(ctx, testQdrantCollection, id)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if !found {
		t.Fatal("expected point to be found")
	}
	if got.Payload["title"] != "T" || got.Payload["userId"] != "u1" {
		t.Errorf("unexpected payload: %v", got.Payload)
	}

	if err := store.Delete(ctx, testQdrantCollection, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, found, err = store.Retrieve(ctx, testQdrantCollection, id)
	if err != nil {
		t.Fatalf("Retrieve after delete failed: %v", err)
	}
	if found {
		t.Error("expected point to be gone")
	}

	// 再削除も成功
	if err := store.Delete(ctx, testQdrantCollection, id); err != nil {
		t.Errorf("second Delete failed: %v", err)
	}
}

// TestQdrantStore_Scroll はQdrant実体に対するフィルタ付きScrollをテスト
// （Qdrantが起動していない環境ではスキップされる）
func TestQdrantStore_Scroll(t *testing.T) {
	store := setupQdrantTestCollection(t)
	ctx := context.Background()

	owner := uuid.New().String()
	var ids []string
	for i := 0; i < 3; i++ {
		id := uuid.New().String()
		ids = append(ids, id)
		point := &Point{
			ID:      id,
			Vector:  []float32{0, 0, 0, 0},
			Payload: map[string]any{"userId": owner},
		}
		if err := store.Upsert(ctx, testQdrantCollection, point); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}
	defer func() {
		for _, id := range ids {
			store.Delete(ctx, testQdrantCollection, id)
		}
	}()

	filter := Filter{Must: []Condition{{Key: "userId", Value: owner}}}
	points, err := store.Scroll(ctx, testQdrantCollection, filter, 10)
	if err != nil {
		t.Fatalf("Scroll failed: %v", err)
	}
	if len(points) != 3 {
		t.Errorf("expected 3 points, got %d", len(points))
	}
	for _, p := range points {
		if p.Payload["userId"] != owner {
			t.Errorf("expected only owner's points, got %v", p.Payload["userId"])
		}
	}

	points, err = store.Scroll(ctx, testQdrantCollection, filter, 2)
	if err != nil {
		t.Fatalf("Scroll with limit failed: %v", err)
	}
	if len(points) != 2 {
		t.Errorf("expected 2 points, got %d", len(points))
	}
}

// TestQdrantStore_EnsureCollection_Idempotent は既存コレクションに対する
// EnsureCollectionが成功することをテスト
// （Qdrantが起動していない環境ではスキップされる）
func TestQdrantStore_EnsureCollection_Idempotent(t *testing.T) {
	store := setupQdrantTestCollection(t)

	if err := store.EnsureCollection(context.Background(), testQdrantCollection, 4); err != nil {
		t.Errorf("EnsureCollection on existing collection failed: %v", err)
	}
}
