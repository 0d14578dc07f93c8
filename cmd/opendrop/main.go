package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
)

// Set via -ldflags at build time:
//
//	go build -ldflags "-X main.version=0.1.0 -X main.commit=$(git rev-parse --short HEAD)" -o opendrop ./cmd/opendrop
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "receive":
		runReceive(os.Args[2:])
	case "send":
		runSend(os.Args[2:])
	case "find":
		runFind(os.Args[2:])
	case "version", "--version":
		printVersion()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("opendrop %s (%s)\n", version, commit)
	fmt.Printf("Go %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func printUsage() {
	fmt.Println("Usage: opendrop <command> [options]")
	fmt.Println()
	fmt.Println("  receive [--config path] [--iface awdl0] [--download-dir dir]")
	fmt.Println("      Advertise over mDNS and accept incoming transfers.")
	fmt.Println()
	fmt.Println("  find [--config path] [--iface awdl0] [--timeout 5s]")
	fmt.Println("      Browse for peers and print what's discoverable.")
	fmt.Println()
	fmt.Println("  send --to <service-id> <file> [<file>...] [--config path] [--iface awdl0] [--url]")
	fmt.Println("      Ask a discovered peer to accept one or more files.")
	fmt.Println()
	fmt.Println("  version")
	fmt.Println("      Show version information.")
	fmt.Println()
	fmt.Println("Without --config, opendrop uses its built-in defaults.")
}
