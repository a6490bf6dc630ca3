package contracts

// Progress is one loading notification. Fraction is in [0, 1].
type Progress struct {
	Stage    string
	Fraction float64
}

// ProgressFunc receives progress from an engine while it loads. Engines may
// report any value; the player clamps it before publishing.
type ProgressFunc func(stage string, fraction float64)
