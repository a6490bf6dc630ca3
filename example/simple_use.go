package main

import (
	"context"
	"fmt"
	"time"

	"github.com/leandrodaf/midiplayer/internal/logger"
	"github.com/leandrodaf/midiplayer/sdk/contracts"
	"github.com/leandrodaf/midiplayer/sdk/midi"
)

func main() {
	log := logger.NewDevelopmentLogger()

	player, err := midi.NewPlayer(
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
	)
	if err != nil {
		log.Error("Failed to create player", log.Field().Error("error", err))
		return
	}
	defer player.Close()

	pending, err := player.Initialize(contracts.SynthConfig{
		SoundfontURL: "soundfont/default.sf2",
		Instruments:  []string{"acoustic_grand_piano", "violin"},
		TargetFormat: contracts.FormatFloat32LE,
		API:          contracts.APISynth,
	})
	if err != nil {
		log.Error("Invalid configuration", log.Field().Error("error", err))
		return
	}

	for p := range pending.Progress() {
		fmt.Printf("%-30s %3.0f%%\n", p.Stage, p.Fraction*100)
	}
	if err := pending.Wait(context.Background()); err != nil {
		log.Error("Failed to load engine", log.Field().Error("error", err))
		return
	}
	fmt.Println("Capabilities:", player.Capabilities())

	// C major arpeggio, scheduled ahead through the delay argument.
	for i, note := range []int{60, 64, 67, 72} {
		at := time.Duration(i) * 250 * time.Millisecond
		if err := player.NoteOn(0, note, 100, at); err != nil {
			log.Error("NoteOn", log.Field().Error("error", err))
			return
		}
		if err := player.NoteOff(0, note, at+240*time.Millisecond); err != nil {
			log.Error("NoteOff", log.Field().Error("error", err))
			return
		}
	}
	if player.Supports(contracts.CapPitchBend) {
		player.PitchBend(0, contracts.PitchBendCenter, 0)
	}

	time.Sleep(1500 * time.Millisecond)
}
