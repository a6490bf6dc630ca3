package midi

import (
	"fmt"
	"maps"

	"github.com/leandrodaf/midiplayer/internal/engine/synth"
	"github.com/leandrodaf/midiplayer/internal/logger"
	"github.com/leandrodaf/midiplayer/sdk/contracts"
)

const (
	defaultClientName     = "midiplayer"
	defaultProgressBuffer = 32
)

// applyDefaultOptions sets default values for PlayerOptions if not explicitly provided.
//
// opts ...contracts.Option: A variadic list of option functions that can modify PlayerOptions.
//
// Returns:
//   - contracts.PlayerOptions: The finalized options with defaults applied.
//   - error: An error if an option holds an invalid value.
func applyDefaultOptions(opts ...contracts.Option) (contracts.PlayerOptions, error) {
	options := &contracts.PlayerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.SampleRate < 0 {
		return contracts.PlayerOptions{}, fmt.Errorf("%w: sample rate %d", contracts.ErrInvalidConfig, options.SampleRate)
	}
	if options.Gain < 0 {
		return contracts.PlayerOptions{}, fmt.Errorf("%w: gain %v", contracts.ErrInvalidConfig, options.Gain)
	}
	if options.ProgressBuffer < 0 {
		return contracts.PlayerOptions{}, fmt.Errorf("%w: progress buffer %d", contracts.ErrInvalidConfig, options.ProgressBuffer)
	}

	// Set defaults if options are not provided
	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.SampleRate == 0 {
		options.SampleRate = synth.DefaultSampleRate
	}
	if options.Gain == 0 {
		options.Gain = 1
	}
	if options.ClientName == "" {
		options.ClientName = defaultClientName
	}
	if options.ProgressBuffer == 0 {
		options.ProgressBuffer = defaultProgressBuffer
	}

	engines := defaultEngines()
	maps.Copy(engines, options.Engines)
	options.Engines = engines

	options.Logger.SetLevel(options.LogLevel)
	if options.LogFilePath != "" {
		options.Logger.SetDestination(contracts.FileLog, options.LogFilePath)
	}
	return *options, nil
}
