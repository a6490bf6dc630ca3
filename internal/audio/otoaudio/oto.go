// Package otoaudio plays engine streams on the default audio device with oto.
package otoaudio

import (
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/leandrodaf/midiplayer/internal/audio"
	"github.com/leandrodaf/midiplayer/sdk/contracts"
)

const bufferSize = 8192

// oto allows a single context per process, so every Output shares it.
var (
	shared       *oto.Context
	sharedRate   int
	sharedFormat contracts.Format
	sharedMu     sync.Mutex
)

func sharedContext(sampleRate int, format contracts.Format) (*oto.Context, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared != nil {
		if sampleRate != sharedRate || format != sharedFormat {
			return nil, fmt.Errorf("oto context already running at %d Hz %s, cannot switch to %d Hz %s",
				sharedRate, sharedFormat, sampleRate, format)
		}
		return shared, nil
	}

	c, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: audio.Channels,
		Format:       otoFormat(format),
		BufferSize:   0,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	shared, sharedRate, sharedFormat = c, sampleRate, format
	return shared, nil
}

func otoFormat(f contracts.Format) oto.Format {
	switch f {
	case contracts.FormatInt16LE:
		return oto.FormatSignedInt16LE
	case contracts.FormatUint8:
		return oto.FormatUnsignedInt8
	}
	return oto.FormatFloat32LE
}

// Output is one playing stream.
type Output struct {
	ctx    *oto.Context
	player *oto.Player
}

// Open prepares an output on the shared context.
func Open(sampleRate int, format contracts.Format) (*Output, error) {
	c, err := sharedContext(sampleRate, format)
	if err != nil {
		return nil, err
	}
	return &Output{ctx: c}, nil
}

// Start pulls audio from r until Close.
func (o *Output) Start(r io.Reader) error {
	o.player = o.ctx.NewPlayer(r)
	o.player.SetBufferSize(bufferSize * audio.Channels)
	o.player.Play()
	if err := o.player.Err(); err != nil {
		return fmt.Errorf("cannot start oto player: %w", err)
	}
	return nil
}

// Close stops the stream. The shared context stays alive for later outputs.
func (o *Output) Close() error {
	if o.player == nil {
		return nil
	}
	o.player.Pause()
	if err := o.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	o.player = nil
	return nil
}
