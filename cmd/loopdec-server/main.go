// ABOUTME: Entry point for the loopdec stream server
// ABOUTME: Parses CLI flags and serves one looping file to every client
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Sendspin/loopdec/internal/formats"
	"github.com/Sendspin/loopdec/internal/server"
	"github.com/Sendspin/loopdec/pkg/diag"
	"github.com/Sendspin/loopdec/pkg/engine"
)

var (
	port       = flag.Int("port", 8927, "WebSocket server port")
	name       = flag.String("name", "", "Server friendly name (default: hostname-loopdec-server)")
	logFile    = flag.String("log-file", "loopdec-server.log", "Log file path")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	noMDNS     = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	noTUI      = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	in         = flag.String("in", "", "File to stream")
	loopTarget = flag.Int("loops", 0, "Times each client's stream repeats the loop; 0 loops forever")
	chunkMs    = flag.Int("chunk-ms", server.DefaultChunkMs, "Audio chunk duration in milliseconds")
	bufferMs   = flag.Int("buffer-ms", server.DefaultBufferAheadMs, "How far ahead of real time audio is sent")

	raw formats.Flags
)

func main() {
	raw.Register(flag.CommandLine)
	flag.Parse()

	if *in == "" {
		fmt.Fprintln(os.Stderr, "usage: loopdec-server [flags] -in FILE")
		flag.PrintDefaults()
		os.Exit(2)
	}

	useTUI := !*noTUI

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	if useTUI {
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	serverName := *name
	if serverName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		serverName = fmt.Sprintf("%s-loopdec-server", hostname)
	}

	rawConfig, err := raw.Config()
	if err != nil {
		log.Fatalf("%v", err)
	}

	var sink diag.Sink = diag.Discard{}
	if *debug {
		sink = diag.LogSink{}
		log.Printf("Debug logging enabled")
	}

	// Fail early on a bad file rather than on the first client
	probe, err := formats.OpenFile(*in, rawConfig, raw.LoopScanMode(), diag.LogSink{})
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *in, err)
	}
	log.Printf("Streaming %s:\n%s", *in, probe.Describe())
	probe.Close()

	log.Printf("Starting loopdec server: %s on port %d", serverName, *port)
	log.Printf("Logging to: %s", *logFile)

	srv := server.New(server.Config{
		Port:       *port,
		Name:       serverName,
		EnableMDNS: !*noMDNS,
		Debug:      *debug,
		UseTUI:     useTUI,
		Title:      filepath.Base(*in),
		LoopTarget: *loopTarget,
		Open: func() (*engine.Stream, error) {
			return formats.OpenFile(*in, rawConfig, raw.LoopScanMode(), sink)
		},
		ChunkMs:       *chunkMs,
		BufferAheadMs: *bufferMs,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received %v signal, shutting down gracefully...", sig)
		srv.Stop()
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Printf("Server stopped")
}
