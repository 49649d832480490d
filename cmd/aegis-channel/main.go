// Command aegis-channel is a demo and benchmark tool for the Aegis-Flow
// hybrid secure channel.
package main

import (
	"flag"
	"fmt"
	"os"

	pkgversion "github.com/aegis-flow/aegis-go/pkg/version"
)

// Build-time variables (set via -ldflags)
var (
	version   = ""        // Set via -ldflags "-X main.version=x.y.z"
	buildTime = "unknown" // Set via -ldflags "-X main.buildTime=..."
	gitCommit = "unknown" // Set via -ldflags "-X main.gitCommit=..."
)

func getVersion() string {
	if version != "" {
		return version
	}
	return pkgversion.String()
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "demo":
		demoCommand()
	case "bench":
		benchCommand()
	case "version":
		fmt.Printf("aegis-channel version %s\n", getVersion())
		if buildTime != "unknown" {
			fmt.Printf("Built: %s\n", buildTime)
		}
		if gitCommit != "unknown" {
			fmt.Printf("Commit: %s\n", gitCommit)
		}
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`aegis-channel - Hybrid Post-Quantum Secure Channel Tool

USAGE:
    aegis-channel <command> [options]

COMMANDS:
    demo      Run an echo demo (server/client)
    bench     Run handshake and throughput benchmarks
    version   Print version information
    help      Show this help message

EXAMPLES:
    # Start demo server
    aegis-channel demo --mode server --addr :8474

    # Connect demo client
    aegis-channel demo --mode client --addr localhost:8474

    # Benchmark 100 handshakes
    aegis-channel bench --handshakes 100`)
}

func demoCommand() {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	mode := fs.String("mode", "server", "demo mode: server or client")
	addr := fs.String("addr", "localhost:8474", "address to listen on or connect to")
	message := fs.String("message", "hello over the hybrid channel", "message the client sends")
	configPath := fs.String("config", "", "optional YAML configuration file")
	suite := fs.String("suite", "", "cipher suite override (aes-256-gcm or chacha20-poly1305)")
	variant := fs.String("kem", "", "KEM variant override (ml-kem-768 or ml-kem-1024)")
	logLevel := fs.String("log-level", "info", "log level (debug, info, warn, error)")
	_ = fs.Parse(os.Args[2:])

	runDemo(*mode, *addr, *message, *configPath, *suite, *variant, *logLevel)
}

func benchCommand() {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	handshakes := fs.Int("handshakes", 0, "number of handshakes to benchmark")
	throughput := fs.Bool("throughput", false, "run the throughput benchmark")
	size := fs.Int("size", 1<<20, "payload size in bytes for throughput")
	seconds := fs.Int("seconds", 5, "duration of the throughput benchmark")
	suite := fs.String("suite", "chacha20-poly1305", "cipher suite to benchmark")
	_ = fs.Parse(os.Args[2:])

	runBench(*handshakes, *throughput, *size, *seconds, *suite)
}
