// ABOUTME: Loop controller package for sample-accurate loop playback
// ABOUTME: Three-phase state machine driven by the playback position
// Package loop decides when the playback driver must snapshot or restore
// decode state to repeat a loop region.
//
// The Controller moves through three phases:
//   - NotLooped: the loop start has not been reached yet
//   - Armed: state was snapshotted at the loop start; reaching the loop end restores it
//   - Finished: the loop target was met; playback continues past the loop end
//
// Example:
//
//	ctl := loop.New(true, 28, 112)
//	ctl.SetTarget(2)
//	run = ctl.Cap(current, run)
//	switch ctl.Step(current) {
//	case loop.ActionSnapshot:
//	    // save channel and block state
//	case loop.ActionRestore:
//	    // restore it and continue from the loop start
//	}
package loop
