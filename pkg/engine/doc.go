// ABOUTME: Playback driver package for looping game-audio streams
// ABOUTME: Combines codec, layout and loop state into a pull-based Stream
// Package engine drives decoding of one described audio stream.
//
// A Descriptor, usually produced by a container parser, says where each
// channel's data lives, how it is coded and laid out, and where the loop
// region is. Open turns it into a Stream that fills caller buffers with
// interleaved 16-bit PCM, jumping back to the loop start with bit-exact
// decoder state each time the loop end is reached.
//
// Example:
//
//	st, err := engine.Open(desc, src, engine.WithLoopTarget(2))
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//	buf := make([]int16, 1024*st.Channels())
//	n := st.Decode(buf, 1024)
package engine
