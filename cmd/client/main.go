package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/csv-backend/backend/internal/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultRoot = "cleandata"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds csv-client. Every flag can also come from a
// CSV_CLIENT_* environment variable; flags win.
func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("csv_client")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "csv-client",
		Short: "Upload every CSV file in a directory to the csv backend",
		Long: `Upload every *.csv file directly inside a directory to the csv backend.

Each file is parsed first; lines with the wrong number of fields are
skipped and reported. The remaining rows are re-encoded with an index
column and POSTed to the upload endpoint, one file at a time.

Exits non-zero if any file could not be delivered.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, v)
		},
	}

	flags := cmd.Flags()
	flags.String("root", defaultRoot, "directory holding the CSV files")
	flags.String("url", client.DefaultURL, "upload endpoint")
	flags.Duration("timeout", 30*time.Second, "per-request timeout (0 waits indefinitely)")
	flags.Bool("fail-fast", false, "stop at the first file that fails")
	_ = v.BindPFlags(flags)

	return cmd
}

func run(cmd *cobra.Command, v *viper.Viper) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := v.GetString("root")
	runner := &client.Runner{
		Sender:   client.NewHTTPSender(v.GetString("url"), v.GetDuration("timeout")),
		Out:      cmd.OutOrStdout(),
		FailFast: v.GetBool("fail-fast"),
	}

	sum, err := runner.Run(ctx, root)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Sent %d of %d file(s) from %s\n", sum.Sent, sum.Files, root)
	if sum.Failed() {
		for _, f := range sum.Failures {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %v\n", f.Path, f.Err)
		}
		return fmt.Errorf("%d file(s) failed", len(sum.Failures))
	}
	return nil
}
