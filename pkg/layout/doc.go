// ABOUTME: Block layout package mapping sample positions to physical blocks
// ABOUTME: Flat, interleaved and headered-block layouts behind one Engine
// Package layout tracks which physical block holds the current samples of
// each channel and moves the channels across block boundaries.
//
// A Layout knows how one container arranges its data:
//   - Flat: each channel is one contiguous run
//   - Interleave: fixed-size per-channel blocks, optionally with a smaller last block
//   - Blocked: headered blocks read by a BlockParser (EABlocks for SCDl/SCEl streams)
//
// The Engine owns the current block State and caps each decode run to
// what is left in the block. The State is a plain value, so the playback
// driver snapshots it by copy at the loop start.
package layout
