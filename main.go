// ABOUTME: Entry point for the loopdec player
// ABOUTME: Decodes a looping game-audio file to a WAV file, the speakers or stdout info
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

	"github.com/Sendspin/loopdec/internal/app"
	"github.com/Sendspin/loopdec/internal/export"
	"github.com/Sendspin/loopdec/internal/formats"
	"github.com/Sendspin/loopdec/internal/version"
	"github.com/Sendspin/loopdec/pkg/audio/output"
	"github.com/Sendspin/loopdec/pkg/diag"
	"github.com/Sendspin/loopdec/pkg/engine"
)

var (
	in          = flag.String("in", "", "Input file")
	out         = flag.String("out", "", "Write decoded audio to this WAV file instead of playing it")
	play        = flag.Bool("play", false, "Play through the default audio device (default when -out is not set)")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	loops       = flag.Float64("loops", 2, "Times to play the loop region; 0 loops forever (playback only)")
	fade        = flag.Float64("fade", 10, "Seconds played past the last loop")
	fadeDelay   = flag.Float64("fade-delay", 0, "Extra seconds played before the fade time")
	info        = flag.Bool("info", false, "Print the stream description and exit")
	resampleTo  = flag.Int("resample", 0, "Output sample rate; 0 keeps the stream rate")
	connect     = flag.String("connect", "", "Play the stream of a loopdec server at host:port")
	discover    = flag.Bool("discover", false, "Find a loopdec server with mDNS and play its stream")
	bitDepth    = flag.Int("bit-depth", 16, "PCM bit depth requested from servers (16 or 24)")
	name        = flag.String("name", "", "Player name sent to servers (default: hostname-loopdec)")
	logFile     = flag.String("log-file", "loopdec.log", "Log file path")
	showVersion = flag.Bool("version", false, "Print version and exit")

	raw formats.Flags
)

func main() {
	raw.Register(flag.CommandLine)
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return
	}

	remote := *connect != "" || *discover
	if !remote && *in == "" {
		if flag.NArg() == 0 {
			fmt.Fprintln(os.Stderr, "usage: loopdec [flags] -in FILE")
			flag.PrintDefaults()
			os.Exit(2)
		}
		*in = flag.Arg(0)
	}
	if *out != "" && *play {
		log.Fatalf("-out and -play are exclusive")
	}

	useTUI := !*noTUI && *out == "" && !*info

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stderr, f))
	}

	if remote {
		runRemote(useTUI)
		return
	}

	rawConfig, err := raw.Config()
	if err != nil {
		log.Fatalf("%v", err)
	}

	// The loop never stops by itself; playLength bounds playback and the
	// fade tail runs on into the next loop
	stream, err := formats.OpenFile(*in, rawConfig, raw.LoopScanMode(), diag.LogSink{}, engine.WithLoopTarget(0))
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *in, err)
	}
	defer stream.Close()

	if *info {
		fmt.Print(stream.Describe())
		if stream.Looping() {
			fmt.Printf("play samples: %d (%g loops, %gs fade)\n", stream.PlaySamples(*loops, *fade, *fadeDelay), *loops, *fade)
		}
		return
	}

	limit := playLength(stream)
	if limit == 0 && *out != "" {
		log.Fatalf("-loops 0 loops forever; give a loop count for WAV output")
	}
	var dest output.Output
	if *out != "" {
		dest = export.NewWAV(*out)
	} else {
		dest = output.NewOto()
	}

	player := app.New(app.Config{
		Name:         playerName(),
		Source:       filepath.Base(*in),
		UseTUI:       useTUI,
		ResampleRate: *resampleTo,
	}, dest)
	stopOnSignal(player)

	log.Printf("Playing %s: %d samples", *in, limit)
	if err := player.PlayStream(stream, limit); err != nil {
		log.Fatalf("Playback failed: %v", err)
	}
	if *out != "" {
		log.Printf("Wrote %s", *out)
	}
}

// playLength returns the frames to play: the counted loops plus the fade
// tail, the whole stream without a loop, or 0 to loop forever
func playLength(stream *engine.Stream) int {
	if !stream.Looping() {
		return stream.NumSamples()
	}
	if *loops <= 0 {
		return 0
	}
	return stream.PlaySamples(*loops, *fade, *fadeDelay)
}

func runRemote(useTUI bool) {
	addr := *connect
	if *discover {
		addr = ""
	}

	player := app.New(app.Config{
		Name:         playerName(),
		ServerAddr:   addr,
		UseTUI:       useTUI,
		ResampleRate: *resampleTo,
		BitDepth:     *bitDepth,
	}, output.NewOto())
	stopOnSignal(player)

	if err := player.PlayRemote(); err != nil {
		log.Fatalf("Remote playback failed: %v", err)
	}
}

func playerName() string {
	if *name != "" {
		return *name
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s-loopdec", hostname)
}

func stopOnSignal(player *app.Player) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received %v signal, stopping", sig)
		player.Stop()
	}()
}
