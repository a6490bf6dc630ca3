package contracts

// Instrument is one entry of a player's instrument catalog.
type Instrument struct {
	Name    string // Normalised General MIDI name, e.g. "acoustic_grand_piano".
	Program uint8  // General MIDI program number.
	Bank    uint16 // Bank the program lives in (128 for percussion).
	Data    any    // Engine specific payload, e.g. a soundfont preset.
}
