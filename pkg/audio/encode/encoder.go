// ABOUTME: Encoder interface definition
// ABOUTME: Serializes decoded samples into wire formats
package encode

// Encoder serializes interleaved 16-bit samples
type Encoder interface {
	// Encode converts PCM samples to wire bytes
	Encode(samples []int16) ([]byte, error)

	// Close releases encoder resources
	Close() error
}
