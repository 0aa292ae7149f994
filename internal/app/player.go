// ABOUTME: Player application orchestration
// ABOUTME: Plays a local stream or a server stream into an output, with optional TUI
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Sendspin/loopdec/internal/discovery"
	"github.com/Sendspin/loopdec/internal/ui"
	"github.com/Sendspin/loopdec/internal/version"
	"github.com/Sendspin/loopdec/pkg/audio/output"
	"github.com/Sendspin/loopdec/pkg/audio/resample"
	"github.com/Sendspin/loopdec/pkg/engine"
	"github.com/Sendspin/loopdec/pkg/protocol"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

const (
	chunkFrames    = 1024
	statusInterval = 100 * time.Millisecond
)

// Config holds player configuration
type Config struct {
	Name         string
	Source       string // shown in the TUI
	ServerAddr   string // remote mode; empty browses mDNS
	UseTUI       bool
	ResampleRate int // 0 keeps the stream rate
	BitDepth     int // requested from servers; 16 or 24
}

// volumeControl is implemented by live outputs
type volumeControl interface {
	SetVolume(volume int)
	SetMuted(muted bool)
}

// Player drives one output from a stream
type Player struct {
	config   Config
	output   output.Output
	controls *ui.Controls
	tuiProg  *tea.Program
	tuiDone  chan struct{}

	channels  int
	resampler *resample.Resampler
	resampled []int16

	playerState string
	lastStatus  time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new player writing to out
func New(config Config, out output.Output) *Player {
	ctx, cancel := context.WithCancel(context.Background())

	if config.BitDepth == 0 {
		config.BitDepth = 16
	}

	return &Player{
		config:      config,
		output:      out,
		controls:    ui.NewControls(),
		playerState: "idle",
		ctx:         ctx,
		cancel:      cancel,
	}
}

// PlayStream plays a local stream until it ends, limit frames have been
// played (limit 0 means no limit), the user quits or Stop is called
func (p *Player) PlayStream(stream *engine.Stream, limit int) error {
	if err := p.openOutput(stream.SampleRate(), stream.Channels()); err != nil {
		return err
	}
	defer p.output.Close()

	p.startTUI()
	defer p.stopTUI()

	total := limit
	if total == 0 && !stream.Looping() {
		total = stream.NumSamples()
	}
	p.status(ui.StatusMsg{
		Source:      p.config.Source,
		Description: stream.Describe(),
		SampleRate:  stream.SampleRate(),
		Channels:    stream.Channels(),
		Total:       total,
	})

	p.playerState = "playing"
	defer func() { p.playerState = "stopped" }()

	buf := make([]int16, chunkFrames*stream.Channels())
	played := 0
	for limit == 0 || played < limit {
		select {
		case <-p.ctx.Done():
			return nil
		case req := <-p.controls.Requests:
			switch req.Action {
			case ui.ActionVolume:
				p.setVolume(req.Volume, req.Muted)
			case ui.ActionRestart:
				stream.Reset()
				played = 0
				if p.resampler != nil {
					p.resampler.Reset()
				}
			case ui.ActionReleaseLoop:
				stream.SetLoopTarget(stream.LoopCount() + 1)
			case ui.ActionQuit:
				return nil
			}
			continue
		default:
		}

		want := chunkFrames
		if limit > 0 && limit-played < want {
			want = limit - played
		}
		if !stream.Looping() {
			want = min(want, stream.NumSamples()-stream.CurrentSample())
		}
		if want <= 0 {
			break
		}

		n := stream.Decode(buf, want)
		if n == 0 {
			break
		}
		if err := p.write(buf[:n*stream.Channels()]); err != nil {
			return err
		}
		played += n

		if time.Since(p.lastStatus) >= statusInterval {
			p.lastStatus = time.Now()
			pos := stream.CurrentSample()
			p.status(ui.StatusMsg{Position: &pos, LoopCount: stream.LoopCount(), Looping: stream.Looping()})
		}
	}

	log.Printf("Playback finished: %d frames, %d loops", played, stream.LoopCount())
	p.status(ui.StatusMsg{Finished: true})
	return nil
}

// PlayRemote connects to a server, or the first one found over mDNS, and
// plays its stream until it ends
func (p *Player) PlayRemote() error {
	addr := p.config.ServerAddr
	if addr == "" {
		found, err := p.discover()
		if err != nil {
			return err
		}
		addr = found
	}

	client := protocol.NewClient(protocol.Config{
		ServerAddr: addr,
		ClientID:   uuid.New().String(),
		Name:       p.config.Name,
		DeviceInfo: protocol.DeviceInfo{
			ProductName:     version.Product,
			Manufacturer:    version.Manufacturer,
			SoftwareVersion: version.Version,
		},
		SupportedFormats: []protocol.AudioFormat{
			{Codec: "pcm", BitDepth: p.config.BitDepth},
		},
	})
	if err := client.Connect(); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer client.Close()

	log.Printf("Connected to server: %s", addr)

	var start protocol.StreamStart
	select {
	case start = <-client.StreamStart:
	case <-client.Done():
		return fmt.Errorf("server closed the connection before streaming")
	case <-p.ctx.Done():
		return nil
	}
	log.Printf("Stream starting: %s %dHz %dch %dbit", start.Codec, start.SampleRate, start.Channels, start.BitDepth)

	if err := p.openOutput(start.SampleRate, start.Channels); err != nil {
		return err
	}
	defer p.output.Close()

	p.startTUI()
	defer p.stopTUI()

	connected := true
	source := p.config.Source
	if source == "" {
		source = client.Server.Name
	}
	p.status(ui.StatusMsg{
		Connected:   &connected,
		Source:      source,
		Description: start.Description,
		SampleRate:  start.SampleRate,
		Channels:    start.Channels,
	})

	p.playerState = "playing"
	defer func() { p.playerState = "stopped" }()

	loops := 0
	for {
		select {
		case <-p.ctx.Done():
			client.SendGoodbye("shutdown")
			return nil

		case <-client.Done():
			return fmt.Errorf("connection lost")

		case req := <-p.controls.Requests:
			switch req.Action {
			case ui.ActionVolume:
				p.setVolume(req.Volume, req.Muted)
			case ui.ActionRestart:
				client.SendCommand(protocol.ClientCommand{Command: protocol.CommandReset})
			case ui.ActionReleaseLoop:
				client.SendCommand(protocol.ClientCommand{Command: protocol.CommandLoopTarget, LoopTarget: loops + 1})
			case ui.ActionQuit:
				client.SendGoodbye("user_request")
				return nil
			}

		case state := <-client.ServerState:
			loops = state.LoopCount
			pos := state.Position
			p.status(ui.StatusMsg{Position: &pos, LoopCount: state.LoopCount, Looping: state.Looping})

		case chunk := <-client.AudioChunks:
			if err := p.write(chunk.Samples(start.BitDepth)); err != nil {
				return err
			}

		case end := <-client.StreamEnd:
			log.Printf("Stream ended: %s", end.Reason)
			for {
				select {
				case chunk := <-client.AudioChunks:
					if err := p.write(chunk.Samples(start.BitDepth)); err != nil {
						return err
					}
				default:
					client.SendGoodbye("finished")
					p.status(ui.StatusMsg{Finished: true})
					return nil
				}
			}
		}
	}
}

// discover browses mDNS until a server shows up
func (p *Player) discover() (string, error) {
	mgr := discovery.NewManager(discovery.Config{ServiceName: p.config.Name})
	if err := mgr.Browse(); err != nil {
		return "", fmt.Errorf("discovery failed: %w", err)
	}
	defer mgr.Stop()

	log.Printf("Browsing for servers...")
	select {
	case server := <-mgr.Servers():
		log.Printf("Found server %s at %s:%d", server.Name, server.Host, server.Port)
		return fmt.Sprintf("%s:%d", server.Host, server.Port), nil
	case <-p.ctx.Done():
		return "", fmt.Errorf("discovery cancelled")
	}
}

func (p *Player) openOutput(sampleRate, channels int) error {
	p.channels = channels
	rate := sampleRate
	if p.config.ResampleRate > 0 && p.config.ResampleRate != sampleRate {
		rate = p.config.ResampleRate
		p.resampler = resample.New(sampleRate, rate, channels)
		log.Printf("Resampling %d Hz -> %d Hz", sampleRate, rate)
	}
	if err := p.output.Open(rate, channels); err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}
	return nil
}

// write sends samples to the output through the resampler, if any
func (p *Player) write(samples []int16) error {
	if p.resampler == nil || len(samples) == 0 {
		return p.output.Write(samples)
	}

	need := p.resampler.OutputSamplesNeeded(len(samples)) + 2*p.channels
	if cap(p.resampled) < need {
		p.resampled = make([]int16, need)
	}
	n := p.resampler.Resample(samples, p.resampled[:need])
	if n == 0 {
		return nil
	}
	return p.output.Write(p.resampled[:n])
}

func (p *Player) setVolume(volume int, muted bool) {
	vc, ok := p.output.(volumeControl)
	if !ok {
		return
	}
	vc.SetVolume(volume)
	vc.SetMuted(muted)
}

func (p *Player) startTUI() {
	if !p.config.UseTUI {
		return
	}
	p.tuiProg = ui.Run(p.controls)
	p.tuiDone = make(chan struct{})
	go func() {
		defer close(p.tuiDone)
		if _, err := p.tuiProg.Run(); err != nil {
			log.Printf("TUI error: %v", err)
		}
	}()
}

func (p *Player) stopTUI() {
	if p.tuiProg == nil {
		return
	}
	p.tuiProg.Quit()
	<-p.tuiDone
	p.tuiProg = nil
}

func (p *Player) status(msg ui.StatusMsg) {
	if p.tuiProg != nil {
		p.tuiProg.Send(msg)
	}
}

// State returns the player state: idle, playing or stopped
func (p *Player) State() string {
	return p.playerState
}

// Stop stops playback
func (p *Player) Stop() {
	p.cancel()
}
