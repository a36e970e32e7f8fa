package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mindlog-app/journal-store/internal/bootstrap"
	"github.com/mindlog-app/journal-store/internal/config"
	"github.com/mindlog-app/journal-store/internal/model"
	"github.com/mindlog-app/journal-store/internal/transport/http"
)

// ビルド時変数（-ldflags で変更可能）
var version = "dev"

// Options はCLI引数オプション
// 空値は「未指定」を意味し、環境変数・デフォルト値が使われる
type Options struct {
	Addr       string
	StoreType  string
	QdrantURL  string
	SQLitePath string
}

func main() {
	var err error

	// 引数なしの場合はserveをデフォルト実行
	if len(os.Args) < 2 {
		err = run([]string{})
	} else {
		switch os.Args[1] {
		case "serve":
			err = run(os.Args[1:])
		case "version", "-v", "--version":
			printVersion()
			return
		case "help", "-h", "--help":
			printUsage()
			return
		default:
			fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
			printUsage()
			os.Exit(1)
		}
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// printUsage prints the usage information
func printUsage() {
	fmt.Println(`journal-store - Journal API backed by a vector point store

Usage:
  journal-store <command> [options]

Commands:
  serve     Start the journal HTTP server
  version   Print version information
  help      Print this help message

Serve Options:
  -a, --addr string         Listen address (default: 127.0.0.1:8765)
  -s, --store string        Store type: qdrant, sqlite, memory (default: qdrant)
  --qdrant-url string       Qdrant URL (default: http://localhost:6333)
  --sqlite-path string      SQLite database path (default: journal.db)

Environment:
  JOURNAL_LISTEN_ADDR, JOURNAL_STORE_TYPE, QDRANT_URL, JOURNAL_SQLITE_PATH
  (flags take precedence over environment variables)

Examples:
  journal-store serve
  journal-store serve -a 0.0.0.0:8080
  journal-store serve -s sqlite --sqlite-path ~/journals.db`)
}

// printVersion prints the version information
func printVersion() {
	fmt.Printf("journal-store version %s\n", version)
}

// run は実際の処理を行う（テスト容易性のため分離）
func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := setupSignalHandler()
	defer cancel()

	return runServe(ctx, opts)
}

// parseFlags は引数をパースしてOptionsを返す
func parseFlags(args []string) (*Options, error) {
	fs := flag.NewFlagSet("journal-store", flag.ContinueOnError)

	opts := &Options{}
	fs.StringVar(&opts.Addr, "addr", "", "Listen address")
	fs.StringVar(&opts.Addr, "a", "", "Listen address (shorthand)")
	fs.StringVar(&opts.StoreType, "store", "", "Store type: qdrant, sqlite, memory")
	fs.StringVar(&opts.StoreType, "s", "", "Store type (shorthand)")
	fs.StringVar(&opts.QdrantURL, "qdrant-url", "", "Qdrant URL")
	fs.StringVar(&opts.SQLitePath, "sqlite-path", "", "SQLite database path")

	// 引数なしまたは"serve"で始まる場合のみ許可
	var flagArgs []string
	if len(args) == 0 {
		flagArgs = []string{}
	} else if args[0] == "serve" {
		flagArgs = args[1:]
	} else {
		return nil, fmt.Errorf("usage: journal-store serve [options]")
	}

	if err := fs.Parse(flagArgs); err != nil {
		return nil, err
	}

	// バリデーション
	switch opts.StoreType {
	case "", model.StoreTypeQdrant, model.StoreTypeSQLite, model.StoreTypeMemory:
	default:
		return nil, fmt.Errorf("invalid store type: %s (must be qdrant, sqlite or memory)", opts.StoreType)
	}

	return opts, nil
}

// setupSignalHandler はSIGINT/SIGTERMを受けてcontextをキャンセルする
func setupSignalHandler() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}

// runServe はserveコマンドを実行
func runServe(ctx context.Context, opts *Options) error {
	cfg := config.Load()

	// フラグは環境変数より優先
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}
	if opts.StoreType != "" {
		cfg.Store.Type = opts.StoreType
	}
	if opts.QdrantURL != "" {
		cfg.Store.URL = opts.QdrantURL
	}
	if opts.SQLitePath != "" {
		cfg.Store.Path = opts.SQLitePath
	}

	services, cleanup, err := bootstrap.Initialize(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	server := http.New(services.JournalService, http.Config{
		Addr: cfg.Server.Addr,
	})
	return server.Run(ctx)
}
