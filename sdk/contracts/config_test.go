package contracts_test

import (
	"errors"
	"testing"

	"github.com/leandrodaf/midiplayer/sdk/contracts"
)

func TestSynthConfigNormalizedDefaults(t *testing.T) {
	cfg, err := contracts.SynthConfig{}.Normalized()
	if err != nil {
		t.Fatalf("Normalized error: %v", err)
	}
	if cfg.API != contracts.APISynth {
		t.Fatalf("API = %v, want synth", cfg.API)
	}
	if cfg.TargetFormat != contracts.FormatFloat32LE {
		t.Fatalf("TargetFormat = %v, want f32le", cfg.TargetFormat)
	}
	if len(cfg.Instruments) != 1 || cfg.Instruments[0] != contracts.DefaultInstrument {
		t.Fatalf("Instruments = %v, want [%s]", cfg.Instruments, contracts.DefaultInstrument)
	}
}

func TestSynthConfigNormalizedDoesNotAlias(t *testing.T) {
	in := []string{"violin", "cello", "violin"}
	cfg, err := contracts.SynthConfig{Instruments: in}.Normalized()
	if err != nil {
		t.Fatalf("Normalized error: %v", err)
	}
	if len(cfg.Instruments) != 2 {
		t.Fatalf("Instruments = %v, want duplicates removed", cfg.Instruments)
	}
	cfg.Instruments[0] = "changed"
	if in[0] != "violin" {
		t.Fatalf("caller slice was mutated: %v", in)
	}
}

func TestSynthConfigNormalizedRejects(t *testing.T) {
	cases := []contracts.SynthConfig{
		{TargetFormat: contracts.Format(42)},
		{API: contracts.API(-1)},
		{Instruments: []string{"violin", ""}},
	}
	for _, c := range cases {
		if _, err := c.Normalized(); !errors.Is(err, contracts.ErrInvalidConfig) {
			t.Errorf("Normalized(%+v) error = %v, want ErrInvalidConfig", c, err)
		}
	}
}

func TestParseFormatAndAPI(t *testing.T) {
	for _, f := range []contracts.Format{contracts.FormatFloat32LE, contracts.FormatInt16LE, contracts.FormatUint8} {
		got, err := contracts.ParseFormat(f.String())
		if err != nil || got != f {
			t.Errorf("ParseFormat(%q) = %v, %v", f.String(), got, err)
		}
	}
	for _, a := range []contracts.API{contracts.APISynth, contracts.APINative, contracts.APIRtMidi} {
		got, err := contracts.ParseAPI(a.String())
		if err != nil || got != a {
			t.Errorf("ParseAPI(%q) = %v, %v", a.String(), got, err)
		}
	}
	if _, err := contracts.ParseAPI("webaudio"); !errors.Is(err, contracts.ErrInvalidConfig) {
		t.Errorf("ParseAPI(webaudio) error = %v, want ErrInvalidConfig", err)
	}
}

func TestCapabilityHas(t *testing.T) {
	c := contracts.CapProgramChange | contracts.CapPitchBend
	if !c.Has(contracts.CapPitchBend) {
		t.Fatal("expected pitch bend")
	}
	if c.Has(contracts.CapPolyAftertouch) {
		t.Fatal("unexpected poly aftertouch")
	}
	if c.Has(contracts.CapNone) {
		t.Fatal("CapNone should never be reported as supported")
	}
	if got, want := c.String(), "program_change|pitch_bend"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestRangeErrorUnwraps(t *testing.T) {
	err := error(&contracts.RangeError{Param: "channel", Value: 16, Min: 0, Max: 15})
	if !errors.Is(err, contracts.ErrOutOfRange) {
		t.Fatalf("errors.Is(%v, ErrOutOfRange) = false", err)
	}
}
