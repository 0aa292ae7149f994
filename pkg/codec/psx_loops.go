// ABOUTME: PS-ADPCM loop point discovery from per-frame flags
// ABOUTME: Optional full-loop heuristic for files that repeat without markers
package codec

import (
	"bytes"

	"github.com/Sendspin/loopdec/pkg/diag"
	"github.com/Sendspin/loopdec/pkg/streamfile"
)

// PS-ADPCM frame flags relevant to looping
const (
	psxFlagEnd       = 0x01
	psxFlagLoopEnd   = 0x03
	psxFlagLoopStart = 0x06
)

// LoopScanMode selects how aggressively FindPSXLoops detects loops
type LoopScanMode int

const (
	// LoopScanFlags only trusts explicit loop start/end flags
	LoopScanFlags LoopScanMode = iota

	// LoopScanFull additionally assumes a whole-file loop when an end
	// flag is not followed by a known end-of-stream frame. Imprecise: it
	// can loop tracks that should stop and miss tracks that repeat.
	LoopScanFull
)

// End-of-stream frames that commonly follow a final frame flagged 1
var (
	psxEOF1 = []byte{0x00, 0x07, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77}
	psxEOF2 = []byte{0x00, 0x07, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
)

// LoopPoints is a loop region in samples, end exclusive
type LoopPoints struct {
	Start int
	End   int
}

// FindPSXLoops walks PS-ADPCM frames of the first channel in
// [start, start+size) and reports the loop region encoded in the frame
// flags. interleave is the per-channel block size in bytes, 0 for mono or
// channel-contiguous data. Only a region with both a start and an end
// counts as a loop.
func FindPSXLoops(src streamfile.Source, start, size int64, channels int, interleave int64, mode LoopScanMode, rep *diag.Reporter) (LoopPoints, bool) {
	var (
		numSamples, loopStart, loopEnd int
		startFound, endFound           bool
		consumed                       int64
	)

	offset := start
	maxOffset := start + size

	for offset < maxOffset {
		flag := streamfile.U8(src, offset+0x01) & 0x0f

		if startFound && flag == psxFlagLoopStart {
			rep.Once(diag.LoopMultipleStarts, "PS loops: multiple loop starts found at %x", offset)
		}

		if flag == psxFlagLoopStart && !startFound {
			loopStart = numSamples
			startFound = true
		}

		if flag == psxFlagLoopEnd && loopEnd == 0 {
			loopEnd = numSamples + psxSamplesPerFrame
			endFound = true

			// a mono end immediately followed by another start is noise
			if channels == 1 && offset+psxFrameSize < maxOffset &&
				streamfile.U8(src, offset+psxFrameSize+0x01)&0x0f == psxFlagLoopStart {
				loopEnd = 0
				endFound = false
			}

			if startFound && endFound {
				break
			}
		}

		if flag == psxFlagEnd && mode == LoopScanFull && psxLoopsFully(src, offset) {
			loopStart = psxSamplesPerFrame // first frame is conventionally null
			loopEnd = numSamples + psxSamplesPerFrame
			startFound = true
			endFound = true
			break
		}

		numSamples += psxSamplesPerFrame
		offset += psxFrameSize

		consumed += psxFrameSize
		if interleave > 0 && consumed == interleave {
			consumed = 0
			offset += interleave * int64(channels-1)
		}
	}

	if startFound && !endFound {
		rep.Always(diag.LoopStartWithoutEnd, "PS loops: found loop start but not loop end")
	}
	if endFound && !startFound {
		rep.Always(diag.LoopEndWithoutStart, "PS loops: found loop end but not loop start")
	}

	if startFound && endFound {
		return LoopPoints{Start: loopStart, End: loopEnd}, true
	}
	return LoopPoints{}, false
}

// psxLoopsFully inspects the frame after an end-flagged frame
func psxLoopsFully(src streamfile.Source, offset int64) bool {
	next := make([]byte, psxFrameSize)
	if src.Read(next, offset+psxFrameSize) == 0 {
		return false
	}

	// padding and a few known titles put these in the first byte
	switch next[0] {
	case 0x00, 0x0c, 0x3c:
		return false
	}

	return !bytes.Equal(next, psxEOF1) && !bytes.Equal(next, psxEOF2)
}

// PSXBytesToSamples converts a byte count of all channels to samples per channel
func PSXBytesToSamples(size int64, channels int) int {
	if channels <= 0 {
		return 0
	}
	return int(size / int64(channels) / psxFrameSize * psxSamplesPerFrame)
}
