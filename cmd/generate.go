package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/demand-sim/demand-sim/sim"
	"github.com/demand-sim/demand-sim/sim/network"
	"github.com/demand-sim/demand-sim/sim/population"
)

var (
	populationPath string
	generateSeed   int64
	generateYAML   bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a commuter scenario from a population spec",
	Long: "Load a population spec YAML and generate home-work-home commuters on the given map. " +
		"The scenario is saved to the store, or written to stdout as YAML with --yaml.",
	Run: func(cmd *cobra.Command, args []string) {
		net, err := network.Load(mapPath)
		if err != nil {
			logrus.Fatalf("Failed to load map: %v", err)
		}
		spec, err := population.LoadSpec(populationPath)
		if err != nil {
			logrus.Fatalf("Failed to load population spec: %v", err)
		}
		var seedOverride *int64
		if cmd.Flags().Changed("seed") {
			seedOverride = &generateSeed
		}
		s, err := generate(spec, net, seedOverride)
		if err != nil {
			logrus.Fatalf("Generation failed: %v", err)
		}

		if generateYAML {
			enc := yaml.NewEncoder(os.Stdout)
			if err := enc.Encode(s); err != nil {
				logrus.Fatalf("Failed to write scenario: %v", err)
			}
			_ = enc.Close()
			return
		}
		if err := saveScenario(cmd.Context(), LoadConfig(), s); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// generate applies a --seed override, if any, over the spec's own seed.
func generate(spec *population.Spec, geo population.Geography, seedOverride *int64) (*sim.Scenario, error) {
	if seedOverride != nil {
		logrus.Infof("CLI --seed %d overrides population spec seed %d", *seedOverride, spec.Seed)
		spec.Seed = *seedOverride
	}
	return population.Generate(spec, geo)
}

func init() {
	generateCmd.Flags().StringVar(&mapPath, "map", "", "Path to the network YAML")
	generateCmd.Flags().StringVar(&populationPath, "population", "", "Path to the population spec YAML")
	generateCmd.Flags().Int64Var(&generateSeed, "seed", 0, "Override the population spec's seed")
	generateCmd.Flags().BoolVar(&generateYAML, "yaml", false, "Write the scenario to stdout as YAML instead of saving it")
	_ = generateCmd.MarkFlagRequired("map")
	_ = generateCmd.MarkFlagRequired("population")

	rootCmd.AddCommand(generateCmd)
}
