package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/ironsheep/mask-annotations-mcp/internal/annotations"
	"github.com/ironsheep/mask-annotations-mcp/internal/config"
	"github.com/ironsheep/mask-annotations-mcp/internal/geometry"
	"github.com/ironsheep/mask-annotations-mcp/internal/mask"
	"github.com/ironsheep/mask-annotations-mcp/internal/server"
	"github.com/ironsheep/mask-annotations-mcp/internal/store"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	envFile := ""

	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("mask-annotations-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("mask-annotations-mcp - MCP server for mask and annotation conversion")
			fmt.Println()
			fmt.Println("Usage: mask-annotations-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println("  --env-file PATH  Read settings from PATH instead of ./.env")
			fmt.Println()
			fmt.Println("Environment variables (also read from ./.env):")
			fmt.Println("  MASK_MCP_LOG_LEVEL=debug           Enable debug logging")
			fmt.Println("  MASK_MCP_DB=/path/annotations.db   Enable the save/load tools")
			fmt.Println("  MASK_MCP_EPSILON=1e-6              Shape deduplication tolerance")
			fmt.Println("  MASK_MCP_THRESHOLD=128             Default image-to-mask threshold")
			fmt.Println("  MASK_MCP_MAX_REQUEST_BYTES=67108864  Largest accepted request line")
			fmt.Println("  MASK_MCP_MAX_PIXELS=67108864       Largest mask or image a request may create")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		case "--env-file":
			if len(os.Args) < 3 {
				fmt.Fprintln(os.Stderr, "--env-file requires a path")
				os.Exit(2)
			}
			envFile = os.Args[2]
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	var cfg *config.Config
	if envFile != "" {
		var err error
		cfg, err = config.LoadFile(envFile)
		if err != nil {
			log.Fatalf("Config error: %v", err)
		}
	} else {
		cfg = config.Load()
	}
	geometry.Epsilon = cfg.Epsilon
	mask.MaxPixels = cfg.MaxPixels

	if cfg.LogLevel == "debug" {
		log.Printf("Mask Annotations MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		annotations.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.SlogLevel(),
		})))
	}

	var st *store.Store
	if cfg.DBPath != "" {
		var err error
		st, err = store.Open(cfg.DBPath)
		if err != nil {
			log.Fatalf("Store error: %v", err)
		}
		defer st.Close()
		if cfg.LogLevel == "debug" {
			log.Printf("Annotation store: %s", cfg.DBPath)
		}
	}

	srv := server.New(cfg, st)
	if err := srv.Run(); err != nil {
		log.Printf("Server error: %v", err)
		if st != nil {
			st.Close()
		}
		os.Exit(1)
	}
}
