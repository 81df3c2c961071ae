package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/clearpath/voicedrop-go/pkg/audio/wav"
)

var synthCmd = &cobra.Command{
	Use:   "synth [directory]",
	Short: "Generate synthetic greeting fixtures",
	Long: `Generate a set of synthetic voicemail greetings covering the cases the
detectors care about: a greeting ending in a beep, one trailing off into
silence, a too-short recording, and one that never goes quiet.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		rate, _ := cmd.Flags().GetInt("rate")

		logger := setupLogger()
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}

		fixtures := map[string]*wav.Synth{
			"beep.wav":      wav.NewSynth(rate).Speech(2.8).Silence(0.2).Tone(1000, 0.8, 0.3).Silence(0.5),
			"silence.wav":   wav.NewSynth(rate).Speech(2.0).Silence(4.0),
			"short.wav":     wav.NewSynth(rate).Silence(1.0),
			"talkative.wav": wav.NewSynth(rate).Speech(8.0),
			"noisy.wav":     wav.NewSynth(rate).Speech(2.0).Noise(0.005, 3.0, 1),
		}

		transcripts := map[string]string{
			"beep.wav":    "please leave a message after the tone",
			"silence.wav": "hi you have reached the front desk leave your name and number",
		}

		for name, synth := range fixtures {
			path := filepath.Join(dir, name)
			if err := synth.WriteFile(path); err != nil {
				return err
			}
			logger.Info("fixture written", slog.String("path", path))
		}
		for name, text := range transcripts {
			txt := filepath.Join(dir, name[:len(name)-len(".wav")]+".txt")
			if err := os.WriteFile(txt, []byte(text+"\n"), 0o644); err != nil {
				return err
			}
		}

		fmt.Printf("wrote %d fixtures to %s\n", len(fixtures), dir)
		return nil
	},
}

func init() {
	synthCmd.Flags().Int("rate", 16000, "Sample rate of generated fixtures")
}
