package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sid-reconciliation-service/internal/matcher"
)

var stationsJSON bool

// stationsCmd represents the stations command
var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "List the known police stations",
	Long: `Stations prints the station table used to attribute case identifiers:
the 8-digit code every identifier starts with and the station name.`,
	RunE: runStations,
}

func init() {
	rootCmd.AddCommand(stationsCmd)
	stationsCmd.Flags().BoolVar(&stationsJSON, "json", false, "print as JSON")
}

func runStations(cmd *cobra.Command, args []string) error {
	stations := matcher.KnownStations()

	if stationsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(stations)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tNAME")
	for _, s := range stations {
		fmt.Fprintf(w, "%s\t%s\n", s.Code, s.Name)
	}
	return w.Flush()
}
