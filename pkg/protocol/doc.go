// ABOUTME: loopdec streaming wire protocol package
// ABOUTME: Defines protocol messages and WebSocket client
// Package protocol implements the loopdec streaming protocol.
//
// A client says hello with the PCM formats it accepts, the server answers
// with stream/start and then sends binary audio chunks carrying decoded,
// already-looped PCM. Clients steer the per-connection stream with
// client/command messages.
//
// Example:
//
//	client := protocol.NewClient(protocol.Config{ServerAddr: "localhost:8928"})
//	err := client.Connect()
//	start := <-client.StreamStart
package protocol
