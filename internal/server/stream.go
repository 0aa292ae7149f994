// ABOUTME: Per-client streaming loop: paced decode, encode and send
// ABOUTME: Applies client commands between chunks on the streaming goroutine
package server

import (
	"fmt"
	"log"
	"time"

	"github.com/Sendspin/loopdec/pkg/audio"
	"github.com/Sendspin/loopdec/pkg/audio/encode"
	"github.com/Sendspin/loopdec/pkg/engine"
	"github.com/Sendspin/loopdec/pkg/protocol"
)

// streamTo decodes the client's stream and sends it until the stream ends or
// the client goes away. Audio is sent at most BufferAheadMs ahead of real time.
func (s *Server) streamTo(client *Client, stream *engine.Stream) {
	format := client.Format
	format.SampleRate = stream.SampleRate()
	format.Channels = stream.Channels()

	enc, err := encode.NewPCM(audio.Format{
		Codec:      format.Codec,
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
		BitDepth:   format.BitDepth,
	})
	if err != nil {
		log.Printf("Failed to create encoder for %s: %v", client.Name, err)
		return
	}
	defer enc.Close()

	client.mu.Lock()
	client.Format = format
	client.State = "streaming"
	client.mu.Unlock()
	s.updateTUI()

	if err := s.sendMessage(client, protocol.TypeStreamStart, streamStart(stream, format, s.config.LoopTarget)); err != nil {
		return
	}

	chunkFrames := format.SampleRate * s.config.ChunkMs / 1000
	if chunkFrames < 1 {
		chunkFrames = 1
	}
	pcm := make([]int16, chunkFrames*format.Channels)
	ahead := time.Duration(s.config.BufferAheadMs) * time.Millisecond

	ticker := time.NewTicker(time.Duration(s.config.ChunkMs) * time.Millisecond)
	defer ticker.Stop()

	started := time.Now()
	sent := 0
	lastLoop := stream.LoopCount()

	for {
		select {
		case <-client.done:
			return
		case <-s.stopChan:
			s.sendMessage(client, protocol.TypeStreamEnd, protocol.StreamEnd{Reason: "shutdown"})
			return

		case cmd := <-client.commands:
			if err := applyCommand(stream, cmd); err != nil {
				log.Printf("Command %s from %s failed: %v", cmd.Command, client.Name, err)
				s.sendMessage(client, protocol.TypeServerError, protocol.ServerError{
					Error:   "bad_command",
					Message: err.Error(),
				})
				continue
			}
			if cmd.Command == protocol.CommandReset {
				// Playback restarts at zero; re-anchor pacing to now
				started = time.Now()
				sent = 0
			}
			s.sendState(client, stream)

		case <-ticker.C:
			playhead := time.Since(started) + ahead
			for time.Duration(sent)*time.Second/time.Duration(format.SampleRate) < playhead {
				position := stream.CurrentSample()
				want := chunkFrames
				if left := stream.NumSamples() - position; !stream.Looping() && left < want {
					want = left
				}
				if want <= 0 {
					s.finish(client)
					return
				}

				n := stream.Decode(pcm, want)
				if n == 0 {
					// data ran out before the declared length
					s.finish(client)
					return
				}
				data, err := enc.Encode(pcm[:n*format.Channels])
				if err != nil {
					log.Printf("Encode error for %s: %v", client.Name, err)
					return
				}
				if err := s.queue(client, protocol.CreateAudioChunk(int64(sent), data)); err != nil {
					return
				}
				sent += n

				client.mu.Lock()
				client.Position = stream.CurrentSample()
				client.LoopCount = stream.LoopCount()
				client.mu.Unlock()

				if count := stream.LoopCount(); count != lastLoop {
					lastLoop = count
					s.sendState(client, stream)
					s.updateTUI()
				}
			}
		}
	}
}

// finish reports the natural end of a stream
func (s *Server) finish(client *Client) {
	client.mu.Lock()
	client.State = "finished"
	client.mu.Unlock()
	s.updateTUI()

	log.Printf("Stream finished for %s", client.Name)
	s.sendMessage(client, protocol.TypeStreamEnd, protocol.StreamEnd{Reason: "finished"})
}

func (s *Server) sendState(client *Client, stream *engine.Stream) {
	s.sendMessage(client, protocol.TypeServerState, protocol.ServerState{
		Position:  stream.CurrentSample(),
		LoopCount: stream.LoopCount(),
		Looping:   stream.Looping(),
	})
}

func streamStart(stream *engine.Stream, format protocol.AudioFormat, loopTarget int) protocol.StreamStart {
	start := protocol.StreamStart{
		Codec:       format.Codec,
		SampleRate:  format.SampleRate,
		Channels:    format.Channels,
		BitDepth:    format.BitDepth,
		NumSamples:  stream.NumSamples(),
		Description: stream.Describe(),
	}
	if stream.Looping() {
		desc := stream.Descriptor()
		start.Loop = &protocol.LoopInfo{
			Start:  desc.LoopStart,
			End:    desc.LoopEnd,
			Target: loopTarget,
		}
	}
	return start
}

// applyCommand runs a client command against the stream
func applyCommand(stream *engine.Stream, cmd protocol.ClientCommand) error {
	switch cmd.Command {
	case protocol.CommandReset:
		stream.Reset()
	case protocol.CommandLoopTarget:
		if cmd.LoopTarget < 0 {
			return fmt.Errorf("negative loop target: %d", cmd.LoopTarget)
		}
		stream.SetLoopTarget(cmd.LoopTarget)
	case protocol.CommandForceLoop:
		return stream.ForceLoop(cmd.Enabled, cmd.LoopStart, cmd.LoopEnd)
	default:
		return fmt.Errorf("unknown command: %s", cmd.Command)
	}
	return nil
}
