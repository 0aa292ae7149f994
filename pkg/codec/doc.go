// ABOUTME: Frame codec package for game-audio ADPCM and PCM variants
// ABOUTME: Decodes per-channel frames from a Source into 16-bit samples
// Package codec implements the per-channel frame decoders used by the
// playback engine.
//
// Each supported coding has a Decoder that turns frames read from a
// streamfile.Source into signed 16-bit samples. Decoders are stateless;
// everything that must survive between calls lives in a Channel:
//   - PS-ADPCM (PSX, PSXConfigurable): *History
//   - Nintendo DSP ADPCM (DSP): *DSPState
//   - IMA ADPCM (IMA): *IMAState
//   - PCM: no state
//
// A decode call addresses samples relative to the channel's current
// offset, so any run of samples can be requested as long as the codec's
// history was carried contiguously up to that point.
//
// FindPSXLoops scans PS-ADPCM frame flags for embedded loop points.
//
// Example:
//
//	dec, err := codec.New(codec.CodingPSX, 0, rep)
//	ch := codec.NewChannel(src, 0x30, dec)
//	out := make([]int16, 28)
//	dec.Decode(&ch, out, 1, 0, 28)
package codec
