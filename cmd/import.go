package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/demand-sim/demand-sim/sim"
)

var (
	importFile    string
	importMapName string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Store a hand-written scenario YAML",
	Run: func(cmd *cobra.Command, args []string) {
		s, err := importScenario(importFile, importMapName)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := saveScenario(cmd.Context(), LoadConfig(), s); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// importScenario loads a scenario YAML. A non-empty mapName replaces the
// map named in the file.
func importScenario(path, mapName string) (*sim.Scenario, error) {
	s, err := sim.LoadScenarioYAML(path)
	if err != nil {
		return nil, err
	}
	if mapName != "" && mapName != s.MapName {
		logrus.Infof("Importing %s for map %s (file says %s)", s.ScenarioName, mapName, s.MapName)
		s.MapName = mapName
	}
	return s, nil
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "Path to the scenario YAML")
	importCmd.Flags().StringVar(&importMapName, "map-name", "", "Store under this map instead of the one in the file")
	_ = importCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(importCmd)
}
