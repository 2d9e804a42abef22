package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/demand-sim/demand-sim/sim/store"
)

var listMapName string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the scenarios stored for a map",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		st, closeStore, err := openStore(ctx, storeKind, LoadConfig())
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer closeStore()

		if _, err := listScenarios(ctx, os.Stdout, st, listMapName); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// listScenarios prints one scenario name per line and returns how many.
func listScenarios(ctx context.Context, w io.Writer, st store.Store, mapName string) (int, error) {
	names, err := st.List(ctx, mapName)
	if err != nil {
		return 0, err
	}
	for _, name := range names {
		fmt.Fprintln(w, name)
	}
	logrus.Infof("%d scenarios stored for %s", len(names), mapName)
	return len(names), nil
}

func init() {
	listCmd.Flags().StringVar(&listMapName, "map-name", "", "Map whose scenarios to list")
	_ = listCmd.MarkFlagRequired("map-name")

	rootCmd.AddCommand(listCmd)
}
