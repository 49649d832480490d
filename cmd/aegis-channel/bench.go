package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aegis-flow/aegis-go/pkg/channel"
	"github.com/aegis-flow/aegis-go/pkg/config"
	"github.com/aegis-flow/aegis-go/pkg/crypto"
)

func runBench(handshakes int, throughput bool, size, seconds int, suiteName string) {
	if handshakes == 0 && !throughput {
		fmt.Println("No benchmarks specified. Use --handshakes or --throughput")
		os.Exit(1)
	}

	suite, err := config.ParseCipherSuite(suiteName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg := channel.Config{CipherSuite: suite}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Aegis-Flow Channel Benchmark")
	fmt.Printf("  Suite: %v, KEM: %v + X25519\n\n", cfg.CipherSuite, cfg.KEMVariant)

	if handshakes > 0 {
		benchHandshakes(handshakes, cfg)
		fmt.Println()
	}
	if throughput {
		benchThroughput(size, time.Duration(seconds)*time.Second, cfg)
	}
}

// acceptLoop serves responder handshakes and returns established
// channels on a channel until the listener closes.
func acceptLoop(listener net.Listener, cfg channel.Config, out chan<- *channel.Channel) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			close(out)
			return
		}
		go func() {
			ch, err := channel.Server(context.Background(), conn, cfg)
			if err != nil {
				conn.Close()
				return
			}
			out <- ch
		}()
	}
}

func benchHandshakes(count int, cfg channel.Config) {
	fmt.Printf("Benchmarking handshakes (%d iterations)\n", count)
	fmt.Println(strings.Repeat("-", 60))

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer listener.Close()

	serverChans := make(chan *channel.Channel, count)
	go acceptLoop(listener, cfg, serverChans)
	go func() {
		for ch := range serverChans {
			ch.Close()
		}
	}()

	durations := make([]time.Duration, 0, count)
	failures := 0
	start := time.Now()

	for i := 0; i < count; i++ {
		hsStart := time.Now()
		ch, err := channel.Dial(context.Background(), "tcp", listener.Addr().String(), cfg)
		if err != nil {
			failures++
			continue
		}
		durations = append(durations, time.Since(hsStart))
		ch.Close()
	}
	total := time.Since(start)

	if len(durations) == 0 {
		fmt.Println("All handshakes failed")
		return
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	fmt.Printf("Completed:  %d ok, %d failed in %v\n", len(durations), failures, total.Round(time.Millisecond))
	fmt.Printf("Mean:       %v\n", (sum / time.Duration(len(durations))).Round(time.Microsecond))
	fmt.Printf("Median:     %v\n", durations[len(durations)/2].Round(time.Microsecond))
	fmt.Printf("P95:        %v\n", durations[len(durations)*95/100].Round(time.Microsecond))
	fmt.Printf("Rate:       %.1f handshakes/sec\n", float64(len(durations))/total.Seconds())
}

func benchThroughput(size int, duration time.Duration, cfg channel.Config) {
	fmt.Printf("Benchmarking throughput (%d-byte writes for %v)\n", size, duration)
	fmt.Println(strings.Repeat("-", 60))

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer listener.Close()

	serverChans := make(chan *channel.Channel, 1)
	go acceptLoop(listener, cfg, serverChans)

	client, err := channel.Dial(context.Background(), "tcp", listener.Addr().String(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	server := <-serverChans
	defer server.Close()

	// Drain everything the client sends.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = io.Copy(io.Discard, server)
	}()

	// Incompressible payload.
	payload, err := crypto.SecureRandomBytes(size)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	var bytesSent uint64
	deadline := time.Now().Add(duration)

	for time.Now().Before(deadline) {
		n, err := client.Write(payload)
		bytesSent += uint64(n)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Write error: %v\n", err)
			break
		}
	}
	client.Close()
	wg.Wait()

	mb := float64(bytesSent) / (1 << 20)
	fmt.Printf("Transferred: %.1f MiB in %v\n", mb, duration)
	fmt.Printf("Throughput:  %.1f MiB/sec\n", mb/duration.Seconds())
	fmt.Printf("Records:     %d sealed\n", client.SendSequence())
}
