package contracts

import "net/http"

// PlayerOptions defines the configuration options for a player and the
// engines it constructs.
type PlayerOptions struct {
	Logger         Logger                // Logger for logging events and errors.
	LogLevel       LogLevel              // Level of logging to use.
	LogFilePath    string                // File path for logging if file logging is enabled.
	SampleRate     int                   // Output sample rate for audio-producing engines.
	Gain           float64               // Master gain applied by audio-producing engines.
	OutputDevice   string                // Name prefix of the MIDI output to open; empty picks the first.
	ClientName     string                // Name the player registers with the OS MIDI service.
	HTTPClient     *http.Client          // Client used to fetch remote soundfonts.
	ProgressBuffer int                   // Capacity of each Pending progress channel.
	Engines        map[API]EngineFactory // Engine constructors keyed by API.
}

// Option is a function that modifies PlayerOptions.
type Option func(*PlayerOptions)

// WithLogger sets the logger for the player.
func WithLogger(l Logger) Option {
	return func(opts *PlayerOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level for the player.
func WithLogLevel(level LogLevel) Option {
	return func(opts *PlayerOptions) {
		opts.LogLevel = level
	}
}

// WithLogFile directs log output to the given file.
func WithLogFile(path string) Option {
	return func(opts *PlayerOptions) {
		opts.LogFilePath = path
	}
}

// WithSampleRate sets the sample rate used by the soundfont synthesizer.
func WithSampleRate(rate int) Option {
	return func(opts *PlayerOptions) {
		opts.SampleRate = rate
	}
}

// WithGain sets the master gain of the soundfont synthesizer.
func WithGain(gain float64) Option {
	return func(opts *PlayerOptions) {
		opts.Gain = gain
	}
}

// WithOutputDevice selects the MIDI output whose name starts with prefix.
func WithOutputDevice(prefix string) Option {
	return func(opts *PlayerOptions) {
		opts.OutputDevice = prefix
	}
}

// WithClientName sets the name registered with CoreMIDI.
func WithClientName(name string) Option {
	return func(opts *PlayerOptions) {
		opts.ClientName = name
	}
}

// WithHTTPClient sets the client used for http(s) soundfont URLs.
func WithHTTPClient(c *http.Client) Option {
	return func(opts *PlayerOptions) {
		opts.HTTPClient = c
	}
}

// WithProgressBuffer sets how many progress notifications a Pending buffers
// before further ones are dropped.
func WithProgressBuffer(n int) Option {
	return func(opts *PlayerOptions) {
		opts.ProgressBuffer = n
	}
}

// WithEngine registers or replaces the engine constructor for api.
func WithEngine(api API, factory EngineFactory) Option {
	return func(opts *PlayerOptions) {
		if opts.Engines == nil {
			opts.Engines = make(map[API]EngineFactory)
		}
		opts.Engines[api] = factory
	}
}
