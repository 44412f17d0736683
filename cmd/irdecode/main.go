package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	irdetect "github.com/sigrokproject/go-irdetect"
	"github.com/sigrokproject/go-irdetect/internal/audio"
)

var (
	flagRate   int
	flagFormat string
)

var rootCmd = &cobra.Command{
	Use:   "irdecode <capture-file>",
	Short: "Decode IR remote-control frames from a capture file",
	Long: `Decode IR remote-control frames from a recorded capture.

WAV captures of a demodulated receiver are thresholded to logic levels;
raw captures are taken as one logic-level byte per sample. Everything is
resampled to the detector's fixed rate before decoding.`,
	Args: cobra.ExactArgs(1),
	RunE: run,
}

func init() {
	rootCmd.Flags().IntVar(&flagRate, "rate", 0, "sample rate of raw/pcm16 captures in Hz")
	rootCmd.Flags().StringVar(&flagFormat, "format", "", "capture format: wav, pcm16 or raw (default: by file extension)")
}

func run(cmd *cobra.Command, args []string) error {
	path := args[0]
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	format := flagFormat
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".wav":
			format = "wav"
		case ".pcm", ".pcm16":
			format = "pcm16"
		default:
			format = "raw"
		}
	}

	var (
		levels []uint8
		sr     int
	)
	switch format {
	case "wav":
		levels, sr, err = audio.DecodeWAVToLevels(b)
	case "pcm16":
		levels, sr, err = audio.DecodePCM16LEToLevels(b, flagRate)
	case "raw":
		levels, sr = b, flagRate
		if sr <= 0 {
			sr = int(irdetect.GetSampleRate())
		}
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return err
	}
	if sr != int(irdetect.GetSampleRate()) {
		levels = audio.ResampleLevels(levels, sr, int(irdetect.GetSampleRate()))
	}

	det := irdetect.New()
	det.Reset()

	frames := 0
	for len(levels) > 0 {
		before := det.SamplePosition()
		fd := det.Detect(levels)
		consumed := det.SamplePosition() - before
		levels = levels[consumed:]
		if fd.ProtocolID == 0 && fd.EndSample == 0 {
			break
		}
		frames++
		log.Info().
			Str("protocol", fd.ProtocolName).
			Uint32("address", fd.Address).
			Uint32("command", fd.Command).
			Bool("repeat", fd.Repeat()).
			Uint64("start_sample", fd.StartSample).
			Uint64("end_sample", fd.EndSample).
			Msg("frame")
	}
	log.Info().Int("frames", frames).Uint64("samples", det.SamplePosition()).Msg("capture done")
	return nil
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("irdecode failed")
	}
}
