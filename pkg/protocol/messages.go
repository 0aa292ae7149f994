// ABOUTME: loopdec protocol message type definitions
// ABOUTME: JSON control messages and the binary audio chunk layout
package protocol

import (
	"encoding/binary"
	"fmt"
)

// Message types
const (
	TypeClientHello   = "client/hello"
	TypeClientCommand = "client/command"
	TypeClientGoodbye = "client/goodbye"
	TypeServerHello   = "server/hello"
	TypeServerState   = "server/state"
	TypeServerError   = "server/error"
	TypeStreamStart   = "stream/start"
	TypeStreamEnd     = "stream/end"
)

// Commands carried by client/command
const (
	CommandReset      = "reset"
	CommandLoopTarget = "loop_target"
	CommandForceLoop  = "force_loop"
)

const (
	// ProtocolVersion is the version sent in hello messages
	ProtocolVersion = 1

	// BinaryMessageHeaderSize is the size of binary message header (type byte + position)
	BinaryMessageHeaderSize = 1 + 8

	// AudioChunkMessageType is the binary message type ID for audio chunks
	AudioChunkMessageType = 4
)

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ClientHello is sent by clients to initiate the handshake
type ClientHello struct {
	ClientID         string        `json:"client_id"`
	Name             string        `json:"name"`
	Version          int           `json:"version"`
	DeviceInfo       *DeviceInfo   `json:"device_info,omitempty"`
	SupportedFormats []AudioFormat `json:"supported_formats"`
}

// DeviceInfo contains device identification
type DeviceInfo struct {
	ProductName     string `json:"product_name"`
	Manufacturer    string `json:"manufacturer"`
	SoftwareVersion string `json:"software_version"`
}

// AudioFormat describes a supported audio format
type AudioFormat struct {
	Codec      string `json:"codec"`
	Channels   int    `json:"channels"`
	SampleRate int    `json:"sample_rate"`
	BitDepth   int    `json:"bit_depth"`
}

// ServerHello is the server's response to client/hello
type ServerHello struct {
	ServerID   string      `json:"server_id"`
	Name       string      `json:"name"`
	Version    int         `json:"version"`
	DeviceInfo *DeviceInfo `json:"device_info,omitempty"`
}

// StreamStart announces the format and loop layout of a stream
type StreamStart struct {
	Codec       string    `json:"codec"`
	SampleRate  int       `json:"sample_rate"`
	Channels    int       `json:"channels"`
	BitDepth    int       `json:"bit_depth"`
	NumSamples  int       `json:"num_samples"`
	Loop        *LoopInfo `json:"loop,omitempty"`
	Description string    `json:"description,omitempty"`
}

// LoopInfo describes the loop region of a stream
type LoopInfo struct {
	Start  int `json:"start"`
	End    int `json:"end"`
	Target int `json:"target"` // 0 loops forever
}

// ServerState reports the decode position of the client's stream
type ServerState struct {
	Position  int  `json:"position"`
	LoopCount int  `json:"loop_count"`
	Looping   bool `json:"looping"`
}

// StreamEnd is sent when the stream has no more samples
type StreamEnd struct {
	Reason string `json:"reason"` // "finished", "shutdown"
}

// ClientCommand steers the client's stream
type ClientCommand struct {
	Command    string `json:"command"`
	LoopTarget int    `json:"loop_target,omitempty"`
	Enabled    bool   `json:"enabled,omitempty"`
	LoopStart  int    `json:"loop_start,omitempty"`
	LoopEnd    int    `json:"loop_end,omitempty"`
}

// ClientGoodbye is sent before graceful disconnect
type ClientGoodbye struct {
	Reason string `json:"reason"` // "shutdown", "user_request"
}

// ServerError reports a rejected request
type ServerError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// AudioChunk is one binary audio message
type AudioChunk struct {
	Position int64  // frames sent before this chunk
	Data     []byte // little-endian PCM
}

// CreateAudioChunk creates a binary audio chunk message
func CreateAudioChunk(position int64, audioData []byte) []byte {
	// Binary format: [message_type:1][position:8][audio_data:N]
	chunk := make([]byte, BinaryMessageHeaderSize+len(audioData))
	chunk[0] = AudioChunkMessageType
	binary.BigEndian.PutUint64(chunk[1:BinaryMessageHeaderSize], uint64(position))
	copy(chunk[BinaryMessageHeaderSize:], audioData)
	return chunk
}

// ParseAudioChunk splits a binary message into its header and payload
func ParseAudioChunk(data []byte) (AudioChunk, error) {
	if len(data) < BinaryMessageHeaderSize {
		return AudioChunk{}, fmt.Errorf("invalid binary message: too short")
	}
	if data[0] != AudioChunkMessageType {
		return AudioChunk{}, fmt.Errorf("unknown binary message type: %d", data[0])
	}
	return AudioChunk{
		Position: int64(binary.BigEndian.Uint64(data[1:BinaryMessageHeaderSize])),
		Data:     data[BinaryMessageHeaderSize:],
	}, nil
}

// Samples decodes the chunk payload into 16-bit samples
func (c AudioChunk) Samples(bitDepth int) []int16 {
	switch bitDepth {
	case 24:
		out := make([]int16, len(c.Data)/3)
		for i := range out {
			out[i] = int16(uint16(c.Data[i*3+1]) | uint16(c.Data[i*3+2])<<8)
		}
		return out
	default:
		out := make([]int16, len(c.Data)/2)
		for i := range out {
			out[i] = int16(binary.LittleEndian.Uint16(c.Data[i*2:]))
		}
		return out
	}
}
