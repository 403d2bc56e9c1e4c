package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"restream/internal/relay"
	"restream/internal/relayrun"
)

const destinationEnv = "RESTREAM_DESTINATION"

// exitError carries a non-zero exit status for a relay that ran but did not
// end cleanly. The run summary has already been logged.
type exitError struct {
	code   int
	reason relay.Reason
}

func (e *exitError) Error() string {
	return fmt.Sprintf("relay ended: %s", e.reason)
}

func newRelayCommand(ctx *commandContext) *cobra.Command {
	var quality string
	var direct bool
	var exitTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "restream <source-url> [destination-url]",
		Short: "Relay a live stream to an RTMP ingest endpoint without re-encoding",
		Long: "Relay a live stream to an RTMP ingest endpoint without re-encoding.\n\n" +
			"The source is resolved with yt-dlp (or fetched directly with --direct) and\n" +
			"remuxed to FLV by ffmpeg. The destination may also be supplied through\n" +
			destinationEnv + ".",
		Example: "  restream 'https://www.youtube.com/watch?v=LIVE_ID' 'rtmp://a.rtmp.youtube.com/live2/KEY'\n" +
			"  restream -q 720p 'https://www.twitch.tv/channel' 'rtmp://ingest.example.com/live/KEY'",
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			destination := ""
			if len(args) > 1 {
				destination = args[1]
			}
			if strings.TrimSpace(destination) == "" {
				destination = os.Getenv(destinationEnv)
			}
			if strings.TrimSpace(destination) == "" {
				return fmt.Errorf("destination url required (argument or %s)", destinationEnv)
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			result, err := relayrun.Run(cmd.Context(), cfg, relayrun.Options{
				SourceURL:   args[0],
				Destination: destination,
				Quality:     quality,
				Direct:      direct,
				ExitTimeout: exitTimeout,
				Logger:      logger,
				Diagnostics: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			if code := result.ExitCode(); code != 0 {
				return &exitError{code: code, reason: result.Outcome.Reason}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&quality, "quality", "q", "", "yt-dlp format selector (best, 720p, ...); defaults to source.quality")
	cmd.Flags().BoolVar(&direct, "direct", false, "Fetch the source URL over HTTP instead of resolving it with yt-dlp")
	cmd.Flags().DurationVar(&exitTimeout, "exit-timeout", 0, "How long to wait for ffmpeg after its input closes (default sink.exit_timeout)")
	return cmd
}
