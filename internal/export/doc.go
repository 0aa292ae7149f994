// Package export writes decoded audio to files.
//
// WAV satisfies the same Open/Write/Close contract as the live outputs in
// pkg/audio/output, so a player can render to disk instead of a device:
//
//	out := export.NewWAV("bgm.wav")
//	if err := out.Open(stream.SampleRate(), stream.Channels()); err != nil {
//		return err
//	}
//	defer out.Close()
package export
