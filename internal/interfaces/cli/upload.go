package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/turtacn/PriviQ/pkg/errors"
)

func newUploadCmd() *cobra.Command {
	var file, object string
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Store a .txt policy in object storage for later --object analysis",
		Long: "Uploads a local policy into the configured MinIO bucket. --object may be\n" +
			"\"bucket/name\" or a bare name in the default bucket; it defaults to the\n" +
			"file name.",
		Example: "  priviq upload --file acme.txt --object policies/acme.txt",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if cc.Objects == nil {
				return errors.New(errors.ErrCodeFeatureDisabled, "object storage is not configured").
					WithDetail("enable minio in the config file")
			}
			if !strings.EqualFold(filepath.Ext(file), ".txt") {
				return errors.New(errors.ErrCodeSourceUnsupported, "only .txt files are supported").WithDetail("path=" + file)
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeValidation, "failed to read file").WithDetail("path=" + file)
			}
			if !utf8.Valid(data) {
				return errors.New(errors.ErrCodeSourceUnsupported, "file is not valid UTF-8 text").WithDetail("path=" + file)
			}
			if object == "" {
				object = filepath.Base(file)
			}

			ctx, cancel := cc.withTimeout(cmd)
			defer cancel()
			ref, err := cc.Objects.PutText(ctx, object, string(data))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s to %s\n", file, ref)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to a .txt policy file")
	cmd.Flags().StringVar(&object, "object", "", "destination bucket/object (default: the file name)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
