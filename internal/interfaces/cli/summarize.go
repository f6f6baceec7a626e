package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/PriviQ/pkg/errors"
)

// Summary modes accepted by --mode.
const (
	ModeExtractive = "extractive"
	ModeRisky      = "risky"
)

// DefaultSummaryFile is written by a bare --download.
const DefaultSummaryFile = "summary.txt"

func newSummarizeCmd() *cobra.Command {
	req := &Request{}
	var mode, download string

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize a policy",
		Long: "extractive mode picks the most representative sentences of the whole\n" +
			"policy; risky mode summarizes only the sentences holding risky keywords.",
		Example: "  priviq summarize --file policy.txt --sentences 5\n" +
			"  priviq summarize --url https://example.com/privacy --mode risky\n" +
			"  priviq summarize --file policy.txt --download",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if mode != ModeExtractive && mode != ModeRisky {
				return errors.New(errors.ErrCodeValidation, "invalid summary mode").
					WithDetail("expected risky or extractive, got " + mode)
			}
			if req.Sentences < 0 {
				return errors.New(errors.ErrCodeValidation, "--sentences must not be negative")
			}
			return runDocument(cmd, req, func(ctx context.Context, b Backend) (interface{}, []string, error) {
				call := b.SummarizeExtractive
				if mode == ModeRisky {
					call = b.SummarizeRisky
				}
				r, err := call(ctx, req)
				if err != nil {
					return nil, nil, err
				}
				if download != "" {
					if err := os.WriteFile(download, []byte(r.Summary), 0o644); err != nil {
						return nil, nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to write summary").WithDetail("path=" + download)
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "Summary written to %s\n", download)
				}
				return (*summaryView)(r), r.Warnings, nil
			})
		},
	}
	addInputFlags(cmd, &req.Input)
	f := cmd.Flags()
	f.StringVarP(&mode, "mode", "m", ModeExtractive, "summary mode (risky, extractive)")
	f.IntVarP(&req.Sentences, "sentences", "n", 0, "extractive summary length (default from config)")
	f.StringSliceVarP(&req.Keywords, "keywords", "k", nil, "risky mode keywords (default: the lexicon)")
	f.StringVar(&download, "download", "", "also write the summary to this file")
	f.Lookup("download").NoOptDefVal = DefaultSummaryFile
	return cmd
}
