package model

// Config はサーバー全体の設定を表す
type Config struct {
	Store  StoreConfig  `json:"store"`
	Server ServerConfig `json:"server"`
}

// StoreConfig はpoint store設定
type StoreConfig struct {
	Type string `json:"type"`           // "qdrant" | "sqlite" | "memory"
	URL  string `json:"url,omitempty"`  // Qdrant用
	Path string `json:"path,omitempty"` // SQLite用
}

// ServerConfig はHTTPサーバー設定
type ServerConfig struct {
	Addr string `json:"addr"` // listen address (例: "127.0.0.1:8765")
}

// Store Type定数
const (
	StoreTypeQdrant = "qdrant"
	StoreTypeSQLite = "sqlite"
	StoreTypeMemory = "memory"
)
