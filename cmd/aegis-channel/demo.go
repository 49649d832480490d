package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aegis-flow/aegis-go/pkg/channel"
	"github.com/aegis-flow/aegis-go/pkg/config"
	"github.com/aegis-flow/aegis-go/pkg/metrics"
)

// demoChannelConfig resolves the channel configuration from a YAML file
// and command line overrides.
func demoChannelConfig(configPath, suite, variant, logLevel string) (channel.Config, *metrics.Logger) {
	var fileCfg *config.Config
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
			os.Exit(1)
		}
		fileCfg = loaded
	}

	logger := metrics.NewLogger(metrics.WithLevel(metrics.ParseLevel(logLevel)))
	cfg := channel.Config{}

	if fileCfg != nil {
		resolved, err := fileCfg.ChannelConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg = resolved
		logger = fileCfg.Logger()
	}

	if suite != "" {
		s, err := config.ParseCipherSuite(suite)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg.CipherSuite = s
	}
	if variant != "" {
		v, err := config.ParseKEMVariant(variant)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg.KEMVariant = v
	}

	metrics.SetLogger(logger)
	return cfg, logger
}

func runDemo(mode, addr, message, configPath, suite, variant, logLevel string) {
	cfg, logger := demoChannelConfig(configPath, suite, variant, logLevel)

	switch mode {
	case "server":
		cfg.Observer = metrics.NewChannelObserver(metrics.AsRole("responder"))
		runDemoServer(addr, cfg, logger)
	case "client":
		cfg.Observer = metrics.NewChannelObserver(metrics.AsRole("initiator"))
		runDemoClient(addr, message, cfg)
	default:
		fmt.Fprintf(os.Stderr, "Invalid mode: %s (use 'server' or 'client')\n", mode)
		os.Exit(1)
	}
}

func runDemoServer(addr string, cfg channel.Config, logger *metrics.Logger) {
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Aegis-Flow Echo Server")
	fmt.Printf("  Suite:   %v\n", cfg.CipherSuite)
	fmt.Printf("  KEM:     %v + X25519\n", cfg.KEMVariant)
	fmt.Println()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to listen: %v\n", err)
		os.Exit(1)
	}
	defer listener.Close()

	fmt.Printf("Listening on %s (Ctrl+C to stop)\n", listener.Addr())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		listener.Close()

		snap := metrics.Global().Snapshot()
		fmt.Printf("Served %d channels, %d records sealed, %d opened\n",
			snap.ChannelsTotal, snap.RecordsSealed, snap.RecordsOpened)
		os.Exit(0)
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Accept error: %v\n", err)
			return
		}
		go serveEcho(conn, cfg, logger)
	}
}

func serveEcho(conn net.Conn, cfg channel.Config, logger *metrics.Logger) {
	defer conn.Close()

	ch, err := channel.Server(context.Background(), conn, cfg)
	if err != nil {
		logger.Warn("handshake failed", metrics.Fields{
			"remote": conn.RemoteAddr().String(),
			"error":  err.Error(),
		})
		return
	}
	defer ch.Close()

	logger.Info("channel established", metrics.Fields{
		"id":          ch.ID(),
		"remote":      conn.RemoteAddr().String(),
		"fingerprint": ch.Fingerprint(),
	})

	scanner := bufio.NewScanner(ch)
	for scanner.Scan() {
		line := scanner.Text()
		if _, err := fmt.Fprintf(ch, "echo: %s\n", line); err != nil {
			return
		}
	}
}

func runDemoClient(addr, message string, cfg channel.Config) {
	fmt.Printf("Connecting to %s...\n", addr)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	ch, err := channel.Dial(ctx, "tcp", addr, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer ch.Close()

	fmt.Printf("Channel established in %v (id %d)\n", time.Since(start).Round(time.Microsecond), ch.ID())
	fmt.Printf("Algorithms: %s\n", ch.AlgorithmName())
	fmt.Printf("Fingerprint: %s (compare with the server log)\n", ch.Fingerprint())

	if _, err := fmt.Fprintf(ch, "%s\n", message); err != nil {
		fmt.Fprintf(os.Stderr, "Error: write failed: %v\n", err)
		os.Exit(1)
	}

	reply := bufio.NewScanner(ch)
	if !reply.Scan() {
		fmt.Fprintf(os.Stderr, "Error: no reply: %v\n", reply.Err())
		os.Exit(1)
	}

	fmt.Printf("Server replied: %s\n", reply.Text())
}
