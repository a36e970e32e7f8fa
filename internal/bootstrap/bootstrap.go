// Package bootstrap provides common initialization logic for journal-store.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mindlog-app/journal-store/internal/model"
	"github.com/mindlog-app/journal-store/internal/service"
	"github.com/mindlog-app/journal-store/internal/store"
)

// Services は初期化されたサービス群を保持
type Services struct {
	JournalService service.JournalService
	Store          store.PointStore
	Config         *model.Config
}

// Initialize は設定からストアとサービスを初期化する
func Initialize(ctx context.Context, cfg *model.Config) (*Services, func(), error) {
	var st store.PointStore
	var err error

	switch cfg.Store.Type {
	case model.StoreTypeSQLite:
		st, err = store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create sqlite store: %w", err)
		}
	case model.StoreTypeMemory:
		st = store.NewMemoryStore()
	case model.StoreTypeQdrant, "":
		st, err = store.NewQdrantStore(cfg.Store.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create qdrant store: %w", err)
		}
	default:
		return nil, nil, fmt.Errorf("unknown store type: %s", cfg.Store.Type)
	}

	// 起動時の疎通確認は診断目的のみ。失敗してもプロセスは継続し、
	// 以降の呼び出しは個別に成否が決まる
	if err := st.Ping(ctx); err != nil {
		slog.Warn("store connectivity check failed",
			"type", cfg.Store.Type,
			"error", err)
	} else {
		slog.Info("successfully connected to store", "type", cfg.Store.Type)
	}

	// コレクション作成もバックエンド未起動の可能性があるため致命的にしない
	if err := st.EnsureCollection(ctx, service.CollectionJournals, service.JournalVectorDim); err != nil {
		slog.Warn("failed to ensure journals collection", "error", err)
	}

	journalService := service.NewJournalService(st)

	cleanup := func() {
		st.Close()
	}

	return &Services{
		JournalService: journalService,
		Store:          st,
		Config:         cfg,
	}, cleanup, nil
}
