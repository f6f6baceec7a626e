package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/PriviQ/pkg/errors"
)

// DefaultAudioFile is where speak writes audio unless --out is given.
const DefaultAudioFile = "speech.mp3"

func textArg(flag string, args []string) (string, error) {
	text := strings.TrimSpace(flag)
	if text == "" {
		text = strings.TrimSpace(strings.Join(args, " "))
	}
	if text == "" {
		return "", errors.New(errors.ErrCodeValidation, "text is required").WithDetail("pass --text or a positional argument")
	}
	return text, nil
}

func newTranslateCmd() *cobra.Command {
	var text, language string
	cmd := &cobra.Command{
		Use:     "translate [text]",
		Short:   "Translate text into a supported language",
		Example: `  priviq translate --language fr "We share your data with partners."`,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := textArg(text, args)
			if err != nil {
				return err
			}
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cc.withTimeout(cmd)
			defer cancel()

			r, err := cc.Backend.Translate(ctx, t, language)
			if err != nil {
				return err
			}
			return PrintResult(cmd, (*translateView)(r))
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "text to translate")
	cmd.Flags().StringVarP(&language, "language", "l", "en", "target language code or name")
	return cmd
}

func newSpeakCmd() *cobra.Command {
	var text, language, out string
	cmd := &cobra.Command{
		Use:     "speak [text]",
		Short:   "Read text aloud into an MP3 file",
		Example: `  priviq speak --language de --out summary.mp3 "We track your location."`,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := textArg(text, args)
			if err != nil {
				return err
			}
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cc.withTimeout(cmd)
			defer cancel()

			audio, err := cc.Backend.Speak(ctx, t, language)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, audio, 0o644); err != nil {
				return errors.Wrap(err, errors.ErrCodeInternal, "failed to write audio").WithDetail("path=" + out)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", len(audio), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "text to speak")
	cmd.Flags().StringVarP(&language, "language", "l", "en", "spoken language code or name")
	cmd.Flags().StringVar(&out, "out", DefaultAudioFile, "output MP3 path")
	return cmd
}

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List languages accepted by translate, speak and analyze --language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cc.withTimeout(cmd)
			defer cancel()

			langs, err := cc.Backend.Languages(ctx)
			if err != nil {
				return err
			}
			return PrintResult(cmd, languagesView(langs))
		},
	}
}
