// Package audio converts rendered float samples into the byte layouts
// accepted by audio devices.
package audio

import (
	"encoding/binary"
	"math"

	"github.com/leandrodaf/midiplayer/sdk/contracts"
)

// Channels is the channel count of every stream produced here.
const Channels = 2

// FrameSize is the number of bytes of one interleaved stereo frame.
func FrameSize(f contracts.Format) int {
	return Channels * f.BytesPerSample()
}

// AppendInterleaved interleaves left and right and appends them to dst in
// format f. Samples outside [-1, 1] are clamped. left and right must have
// equal length.
func AppendInterleaved(dst []byte, left, right []float32, f contracts.Format) []byte {
	for i := range left {
		dst = appendSample(dst, left[i], f)
		dst = appendSample(dst, right[i], f)
	}
	return dst
}

func appendSample(dst []byte, v float32, f contracts.Format) []byte {
	if v < -1 {
		v = -1
	} else if v > 1 {
		v = 1
	} else if v != v {
		v = 0
	}
	switch f {
	case contracts.FormatInt16LE:
		return binary.LittleEndian.AppendUint16(dst, uint16(int16(v*math.MaxInt16)))
	case contracts.FormatUint8:
		return append(dst, uint8(math.Round(float64(v)*127+128)))
	}
	return binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
}
