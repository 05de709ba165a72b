package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/nestrack/nestrack"
	"github.com/nestrack/nestrack/render"
	"github.com/spf13/cobra"
)

func newBounceCmd() *cobra.Command {
	var seconds float64
	var pcm16 bool
	cmd := &cobra.Command{
		Use:   "bounce FILE OUT",
		Short: "Render a session to an audio file",
		Long: `Render a session offline to OUT. A .wav extension writes a wave file,
anything else raw interleaved little-endian stereo samples. Without
--seconds, rendering stops where the last active clip ends.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sampleRate, blockSize, err := audioSettings()
			if err != nil {
				return err
			}
			s, err := openSession(cmd, args[0])
			if err != nil {
				return err
			}
			defer s.Close()
			frames := nestrack.Length(s.Tracks())
			if seconds > 0 {
				frames = int64(seconds * float64(sampleRate))
			}
			r := render.NewRenderer(s.Exchange(), nil)
			buffer := render.Bounce(r, int(frames), blockSize)
			var contents []byte
			if strings.EqualFold(filepath.Ext(args[1]), ".wav") {
				if contents, err = render.Wav(buffer, sampleRate, pcm16); err != nil {
					return err
				}
			} else if contents, err = render.Raw(buffer, pcm16); err != nil {
				return err
			}
			if err := os.WriteFile(args[1], contents, 0o644); err != nil {
				return errors.Wrapf(err, "writing %s", args[1])
			}
			logger.Info("bounced", "file", args[0], "out", args[1], "frames", frames)
			return nil
		},
	}
	cmd.Flags().Float64Var(&seconds, "seconds", 0, "length of the render in seconds")
	cmd.Flags().BoolVarP(&pcm16, "pcm", "c", false, "write 16-bit signed PCM instead of 32-bit float wave data")
	return cmd
}

var bounceCmd = newBounceCmd()

func init() {
	rootCmd.AddCommand(bounceCmd)
}
