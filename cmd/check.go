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

var (
	checkMapName string
	checkFix     bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report people with inconsistent schedules in a stored scenario",
	Long: "Load a stored scenario and check every person's schedule: departures must strictly increase " +
		"and each trip must start where the previous one ended. With --fix, drop those people and save.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		st, closeStore, err := openStore(ctx, storeKind, LoadConfig())
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer closeStore()

		bad, err := checkScenario(ctx, os.Stdout, st, checkMapName, scenarioName, checkFix)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if bad > 0 && !checkFix {
			closeStore()
			os.Exit(1)
		}
	},
}

// checkScenario prints one line per bad schedule and returns how many there
// were. With fix, the filtered scenario replaces the stored one.
func checkScenario(ctx context.Context, w io.Writer, st store.Store, mapName, name string, fix bool) (int, error) {
	s, err := st.Load(ctx, mapName, name)
	if err != nil {
		return 0, err
	}
	bad := 0
	for i := range s.People {
		if err := s.People[i].CheckSchedule(); err != nil {
			fmt.Fprintln(w, err)
			bad++
		}
	}
	fmt.Fprintf(w, "%d of %d people have nonsense schedules\n", bad, len(s.People))

	parked := 0
	for _, n := range s.CountParkedCarsPerBuilding() {
		parked += n
	}
	fmt.Fprintf(w, "%d cars start the day parked\n", parked)

	if fix && bad > 0 {
		if err := saveTo(ctx, st, s.RemoveWeirdSchedules()); err != nil {
			return bad, err
		}
	}
	return bad, nil
}

func init() {
	checkCmd.Flags().StringVar(&checkMapName, "map-name", "", "Map the scenario belongs to")
	checkCmd.Flags().StringVar(&scenarioName, "scenario", "", "Scenario name")
	checkCmd.Flags().BoolVar(&checkFix, "fix", false, "Drop people with bad schedules and save the scenario")
	_ = checkCmd.MarkFlagRequired("map-name")
	_ = checkCmd.MarkFlagRequired("scenario")

	rootCmd.AddCommand(checkCmd)
}
