package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rpggio/statusboard/internal/config"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Reload every sheet and update local snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(stderrLog)
		if err != nil {
			return err
		}
		defer a.Close()

		results := a.loader.RefreshAll(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), renderRefresh(results, time.Now()))
		for _, res := range results {
			if res.Source.Degraded() {
				return fmt.Errorf("one or more datasets could not be read from the source")
			}
		}
		return nil
	},
}

func stderrLog(config.Config) io.Writer {
	return os.Stderr
}
