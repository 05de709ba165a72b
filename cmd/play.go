package cmd

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/nestrack/nestrack"
	"github.com/nestrack/nestrack/midiin"
	"github.com/nestrack/nestrack/oto"
	"github.com/nestrack/nestrack/render"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newPlayCmd() *cobra.Command {
	var loop bool
	cmd := &cobra.Command{
		Use:   "play FILE",
		Short: "Play a session on the default audio device",
		Long: `Play a session until its last active clip ends, or until interrupted.
If a MIDI input is given, its control changes are relayed to the plugin
parameters bound to them.`,
		Args: cobra.ExactArgs(1),
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
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			r := render.NewRenderer(s.Exchange(), nil)
			if name := viper.GetString(midiInputKey); name != "" {
				midi := midiin.NewContext(r.QueueMIDI)
				defer midi.Close()
				if err := midi.Open(name); err != nil {
					cmd.PrintErrln("warning:", err)
				}
			}
			out, err := oto.NewOutput(r, sampleRate, blockSize)
			if err != nil {
				return err
			}
			defer out.Close()
			length := time.Duration(nestrack.Length(s.Tracks())) * time.Second / time.Duration(sampleRate)
			if loop || length == 0 {
				<-ctx.Done()
				return nil
			}
			select {
			case <-ctx.Done():
			case <-time.After(length):
			}
			return out.Err()
		},
	}
	cmd.Flags().BoolVarP(&loop, "loop", "l", false, "keep playing until interrupted")
	cmd.Flags().String(midiInputFlagName, viper.GetString(midiInputKey), "relay control changes from the first MIDI input starting with this name")
	bindFlagToConfig(cmd.Flags().Lookup(midiInputFlagName), midiInputKey)
	return cmd
}

var playCmd = newPlayCmd()

func init() {
	rootCmd.AddCommand(playCmd)
}
