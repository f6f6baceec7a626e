package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/PriviQ/pkg/errors"
)

var errNoInput = errors.New(errors.ErrCodeEmptyDocument, "no policy given").
	WithDetail("set one of --text, --file, --url or --object")

func addInputFlags(cmd *cobra.Command, in *Input) {
	f := cmd.Flags()
	f.StringVarP(&in.Text, "text", "t", "", "policy text")
	f.StringVarP(&in.File, "file", "f", "", "path to a .txt policy file")
	f.StringVarP(&in.URL, "url", "u", "", "web page holding the policy")
	f.StringVar(&in.Object, "object", "", "stored policy as bucket/object")
}

// runDocument validates input and hands the backend call the command
// context.
func runDocument(cmd *cobra.Command, req *Request, fn func(ctx context.Context, b Backend) (interface{}, []string, error)) error {
	req.Input.Text = strings.TrimSpace(req.Input.Text)
	req.Input.URL = strings.TrimSpace(req.Input.URL)
	req.Input.File = strings.TrimSpace(req.Input.File)
	req.Input.Object = strings.TrimSpace(req.Input.Object)
	if req.Input.empty() {
		return errNoInput
	}

	cc, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := cc.withTimeout(cmd)
	defer cancel()

	view, warnings, err := fn(ctx, cc.Backend)
	if err != nil {
		return err
	}
	PrintWarnings(cmd, warnings)
	return PrintResult(cmd, view)
}

func newAnalyzeCmd() *cobra.Command {
	req := &Request{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Produce the full risk report of a policy",
		Long: "Runs every analysis over one policy: tiered keywords and risk score,\n" +
			"density, categories, highlighted sentences, both summaries and the\n" +
			"compliance check. --language also translates both summaries.",
		Example: "  priviq analyze --url https://example.com/privacy\n" +
			"  priviq analyze --file policy.txt --language fr -o json",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocument(cmd, req, func(ctx context.Context, b Backend) (interface{}, []string, error) {
				r, err := b.Analyze(ctx, req)
				if err != nil {
					return nil, nil, err
				}
				return (*reportView)(r), r.Document.Warnings, nil
			})
		},
	}
	addInputFlags(cmd, &req.Input)
	cmd.Flags().StringVarP(&req.Language, "language", "l", "", "translate both summaries into this language")
	cmd.Flags().IntVarP(&req.Sentences, "sentences", "n", 0, "extractive summary length (default from config)")
	return cmd
}

func newClassifyCmd() *cobra.Command {
	req := &Request{}
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "List risky keywords per severity tier with the risk score",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocument(cmd, req, func(ctx context.Context, b Backend) (interface{}, []string, error) {
				r, err := b.Classify(ctx, req)
				if err != nil {
					return nil, nil, err
				}
				return (*classifyView)(r), nil, nil
			})
		},
	}
	addInputFlags(cmd, &req.Input)
	return cmd
}

func newScoreCmd() *cobra.Command {
	req := &Request{}
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute the weighted risk density of a policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocument(cmd, req, func(ctx context.Context, b Backend) (interface{}, []string, error) {
				r, err := b.ScoreDensity(ctx, req)
				if err != nil {
					return nil, nil, err
				}
				return (*densityView)(r), r.Warnings, nil
			})
		},
	}
	addInputFlags(cmd, &req.Input)
	return cmd
}

func newCategorizeCmd() *cobra.Command {
	req := &Request{}
	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Group risky keywords into risk categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocument(cmd, req, func(ctx context.Context, b Backend) (interface{}, []string, error) {
				r, err := b.Categorize(ctx, req)
				if err != nil {
					return nil, nil, err
				}
				return (*categorizeView)(r), nil, nil
			})
		},
	}
	addInputFlags(cmd, &req.Input)
	return cmd
}

func newHighlightCmd() *cobra.Command {
	req := &Request{}
	cmd := &cobra.Command{
		Use:   "highlight",
		Short: "Show risky sentences colored by severity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocument(cmd, req, func(ctx context.Context, b Backend) (interface{}, []string, error) {
				r, err := b.Highlight(ctx, req)
				if err != nil {
					return nil, nil, err
				}
				return (*highlightView)(r), r.Warnings, nil
			})
		},
	}
	addInputFlags(cmd, &req.Input)
	return cmd
}

func newComplianceCmd() *cobra.Command {
	req := &Request{}
	cmd := &cobra.Command{
		Use:   "compliance",
		Short: "List required clauses the policy never mentions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocument(cmd, req, func(ctx context.Context, b Backend) (interface{}, []string, error) {
				r, err := b.CheckCompliance(ctx, req)
				if err != nil {
					return nil, nil, err
				}
				if r.Missing == nil {
					r.Missing = []string{}
				}
				return (*complianceView)(r), nil, nil
			})
		},
	}
	addInputFlags(cmd, &req.Input)
	return cmd
}
