package main

import "testing"

// TestParseFlags_DefaultOptions は引数なしで全オプションが未指定になることをテスト
func TestParseFlags_DefaultOptions(t *testing.T) {
	opts, err := parseFlags([]string{})
	if err != nil {
		t.Fatalf("parseFlags failed: %v", err)
	}

	if opts.Addr != "" || opts.StoreType != "" || opts.QdrantURL != "" || opts.SQLitePath != "" {
		t.Errorf("expected empty options, got %+v", opts)
	}
}

// TestParseFlags_ServeOptions はserveコマンドのオプション指定をテスト
func TestParseFlags_ServeOptions(t *testing.T) {
	opts, err := parseFlags([]string{"serve", "-a", "0.0.0.0:8080", "-s", "sqlite", "--sqlite-path", "/tmp/j.db"})
	if err != nil {
		t.Fatalf("parseFlags failed: %v", err)
	}

	if opts.Addr != "0.0.0.0:8080" {
		t.Errorf("expected addr 0.0.0.0:8080, got %s", opts.Addr)
	}
	if opts.StoreType != "sqlite" {
		t.Errorf("expected store type sqlite, got %s", opts.StoreType)
	}
	if opts.SQLitePath != "/tmp/j.db" {
		t.Errorf("expected sqlite path /tmp/j.db, got %s", opts.SQLitePath)
	}
}

// TestParseFlags_QdrantURL は--qdrant-urlオプションをテスト
func TestParseFlags_QdrantURL(t *testing.T) {
	opts, err := parseFlags([]string{"serve", "--qdrant-url", "http://remote:6333"})
	if err != nil {
		t.Fatalf("parseFlags failed: %v", err)
	}

	if opts.QdrantURL != "http://remote:6333" {
		t.Errorf("expected qdrant URL http://remote:6333, got %s", opts.QdrantURL)
	}
}

// TestParseFlags_InvalidStoreType は不正なストア種別がエラーになることをテスト
func TestParseFlags_InvalidStoreType(t *testing.T) {
	_, err := parseFlags([]string{"serve", "-s", "dynamodb"})
	if err == nil {
		t.Fatal("expected error for invalid store type")
	}
}

// TestParseFlags_UnknownCommand はserve以外のコマンドがエラーになることをテスト
func TestParseFlags_UnknownCommand(t *testing.T) {
	_, err := parseFlags([]string{"destroy"})
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
}
