package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// DefaultQdrantURL はデフォルトのQdrantサーバーURL
	DefaultQdrantURL = "http://localhost:6333"

	// qdrantTimeout はバックエンド呼び出し1回あたりのタイムアウト
	// 超過した呼び出しはErrUnavailableとして呼び出し元に返る（内部リトライなし）
	qdrantTimeout = 5 * time.Second
)

// QdrantStore はQdrantを使用したPointStore実装
// clientはプロセス起動時に1度だけ生成され、並行利用できる
type QdrantStore struct {
	client  *qdrant.Client
	url     string
	timeout time.Duration
}

// NewQdrantStore はQdrantStoreを作成する
// 接続はlazyであり、バックエンド未起動でも生成自体は成功する
// （起動時の疎通確認はPingで行い、失敗してもストアは使用可能のまま）
func NewQdrantStore(urlStr string) (*QdrantStore, error) {
	if urlStr == "" {
		urlStr = DefaultQdrantURL
	}

	host, port, err := parseQdrantAddr(urlStr)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:                   host,
		Port:                   port,
		SkipCompatibilityCheck: true, // バージョンチェックをスキップ
	})
	if err != nil {
		return nil, ErrConnectionFailed
	}

	return &QdrantStore{
		client:  client,
		url:     urlStr,
		timeout: qdrantTimeout,
	}, nil
}

// parseQdrantAddr はURLからgRPC接続先のhost/portを取り出す
// Qdrant gRPCポートはデフォルト6334（HTTPは6333）
func parseQdrantAddr(urlStr string) (string, int, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, fmt.Errorf("failed to parse URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		return "", 0, fmt.Errorf("invalid qdrant URL: %q", urlStr)
	}

	port := 6334
	if portStr := parsedURL.Port(); portStr != "" {
		// HTTPポート指定の場合はgRPCポートに変換
		// 例: http://localhost:6333 -> 6334
		if p, err := strconv.Atoi(portStr); err == nil {
			if p == 6333 {
				port = 6334
			} else {
				port = p
			}
		}
	}

	return host, port, nil
}

// opCtx は1回の呼び出しにタイムアウトを設定する
func (s *QdrantStore) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// classifyError はgRPCエラーをストアのエラー種別に変換する
// collection/id/操作名を含めて、呼び出し元がそのままログに使える形にする
func classifyError(err error, op, detail string) error {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, op, detail, err)
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s %s: %v", ErrRejected, op, detail, err)
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s %s: %v", ErrCollectionExists, op, detail, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, op, detail, err)
	}
	return fmt.Errorf("%s %s: %w", op, detail, err)
}

// EnsureCollection はコレクションが存在する状態にする
// Qdrantのcreateは既存コレクションに対して失敗するため、存在確認を先に行い、
// 並行作成との競合（AlreadyExists）は成功として扱う
func (s *QdrantStore) EnsureCollection(ctx context.Context, name string, dim uint64) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return classifyError(err, "check collection", name)
	}
	if exists {
		return nil
	}

	// ベクトルは定数のプレースホルダなので距離メトリックは機能しないが、
	// Qdrantのスキーマ上は有効な値が必須
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dim,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		wrapped := classifyError(err, "create collection", name)
		if errors.Is(wrapped, ErrCollectionExists) {
			return nil
		}
		return wrapped
	}

	return nil
}

// Upsert はポイントを全置換で書き込む
func (s *QdrantStore) Upsert(ctx context.Context, collection string, point *Point) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(point.ID),
				Vectors: qdrant.NewVectors(point.Vector...),
				Payload: qdrant.NewValueMap(point.Payload),
			},
		},
	})
	if err != nil {
		return classifyError(err, "upsert point", collection+"/"+point.ID)
	}

	return nil
}

// Retrieve はIDでポイントを取得する。未存在は (nil, false, nil)
func (s *QdrantStore) Retrieve(ctx context.Context, collection, id string) (*Point, bool, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: collection,
		Ids:            []*qdrant.PointId{qdrant.NewID(id)},
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, false, classifyError(err, "retrieve point", collection+"/"+id)
	}

	if len(points) == 0 {
		return nil, false, nil
	}

	return &Point{
		ID:      id,
		Payload: fromQdrantPayload(points[0].Payload),
	}, true, nil
}

// Delete はポイントを削除する。IDが存在しなくても成功する
func (s *QdrantStore) Delete(ctx context.Context, collection, id string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         qdrant.NewPointsSelector(qdrant.NewID(id)),
	})
	if err != nil {
		return classifyError(err, "delete point", collection+"/"+id)
	}

	return nil
}

// Scroll はフィルタに一致するポイントをlimit件まで返す（順序保証なし）
func (s *QdrantStore) Scroll(ctx context.Context, collection string, filter Filter, limit uint32) ([]*Point, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	scrollResp, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: collection,
		Filter:         buildQdrantFilter(filter),
		Limit:          qdrant.PtrOf(limit),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, classifyError(err, "scroll points", collection)
	}

	points := make([]*Point, 0, len(scrollResp))
	for _, p := range scrollResp {
		points = append(points, &Point{
			ID:      p.Id.GetUuid(),
			Payload: fromQdrantPayload(p.Payload),
		})
	}

	return points, nil
}

// Ping は接続診断用にコレクション一覧を取得する（読み取り専用）
func (s *QdrantStore) Ping(ctx context.Context) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if _, err := s.client.ListCollections(ctx); err != nil {
		return classifyError(err, "list collections", s.url)
	}
	return nil
}

// Close はストアをクローズする
func (s *QdrantStore) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}

// buildQdrantFilter はFilterからQdrantのフィルタを構築する
func buildQdrantFilter(filter Filter) *qdrant.Filter {
	if len(filter.Must) == 0 {
		return nil
	}

	conditions := make([]*qdrant.Condition, 0, len(filter.Must))
	for _, cond := range filter.Must {
		conditions = append(conditions, qdrant.NewMatch(cond.Key, cond.Value))
	}

	return &qdrant.Filter{
		Must: conditions,
	}
}

// fromQdrantPayload はQdrantのpayloadをGoの値に変換する
func fromQdrantPayload(payload map[string]*qdrant.Value) map[string]any {
	result := make(map[string]any, len(payload))
	for key, value := range payload {
		result[key] = convertQdrantValue(value)
	}
	return result
}

// convertQdrantValue はQdrantのValueをGoの値に変換する
func convertQdrantValue(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch v.Kind.(type) {
	case *qdrant.Value_StringValue:
		return v.GetStringValue()
	case *qdrant.Value_IntegerValue:
		return v.GetIntegerValue()
	case *qdrant.Value_DoubleValue:
		return v.GetDoubleValue()
	case *qdrant.Value_BoolValue:
		return v.GetBoolValue()
	case *qdrant.Value_StructValue:
		structVal := v.GetStructValue()
		if structVal != nil && structVal.Fields != nil {
			result := make(map[string]any)
			for key, field := range structVal.Fields {
				result[key] = convertQdrantValue(field)
			}
			return result
		}
	case *qdrant.Value_ListValue:
		listVal := v.GetListValue()
		if listVal != nil {
			var values []any
			for _, item := range listVal.Values {
				values = append(values, convertQdrantValue(item))
			}
			return values
		}
	}
	return nil
}
