package midi

import (
	"github.com/leandrodaf/midiplayer/sdk/contracts"
)

// NewPlayer creates a new player with the specified options.
// It applies default options; no engine is created until Initialize.
//
// opts ...contracts.Option: A variadic list of option functions to customize the player configuration.
//
// Returns:
//   - *Player: An uninitialized player.
//   - error: An error, if any option was invalid.
func NewPlayer(opts ...contracts.Option) (*Player, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	return &Player{
		logger: options.Logger,
		opts:   options,
		state:  contracts.StateUninitialized,
	}, nil
}
