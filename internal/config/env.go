// Package config loads runtime configuration from the environment.
package config

import (
	"os"

	"github.com/mindlog-app/journal-store/internal/model"
)

// 環境変数名の定数
const (
	EnvQdrantURL  = "QDRANT_URL"
	EnvStoreType  = "JOURNAL_STORE_TYPE"
	EnvSQLitePath = "JOURNAL_SQLITE_PATH"
	EnvListenAddr = "JOURNAL_LISTEN_ADDR"
)

// デフォルト値
const (
	DefaultQdrantURL  = "http://localhost:6333"
	DefaultSQLitePath = "journal.db"
	DefaultListenAddr = "127.0.0.1:8765"
)

// Load は環境変数から設定を構築する。未設定の項目はデフォルト値になる
func Load() *model.Config {
	cfg := &model.Config{
		Store: model.StoreConfig{
			Type: model.StoreTypeQdrant,
			URL:  DefaultQdrantURL,
			Path: DefaultSQLitePath,
		},
		Server: model.ServerConfig{
			Addr: DefaultListenAddr,
		},
	}

	ApplyEnvOverrides(cfg)
	return cfg
}

// ApplyEnvOverrides は環境変数による設定上書きを適用する
// cfg を直接変更する
func ApplyEnvOverrides(cfg *model.Config) {
	if v := os.Getenv(EnvStoreType); v != "" {
		cfg.Store.Type = v
	}
	if v := os.Getenv(EnvQdrantURL); v != "" {
		cfg.Store.URL = v
	}
	if v := os.Getenv(EnvSQLitePath); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv(EnvListenAddr); v != "" {
		cfg.Server.Addr = v
	}
}
