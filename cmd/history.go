/*
 *     Copyright 2025 The CNAI Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/modelpack/modlink/internal/events"
	"github.com/modelpack/modlink/pkg/config"
	"github.com/modelpack/modlink/pkg/history"
	"github.com/modelpack/modlink/pkg/ledger"
)

var historyConfig = config.NewHistory()

// historyCmd represents the modlink command for history.
var historyCmd = &cobra.Command{
	Use:                "history",
	Short:              "Show recorded operations, recent events and statistics",
	Args:               cobra.NoArgs,
	DisableAutoGenTag:  true,
	SilenceUsage:       true,
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := historyConfig.Validate(); err != nil {
			return err
		}

		return runHistory()
	},
}

// init initializes history command.
func init() {
	flags := historyCmd.Flags()
	flags.BoolVar(&historyConfig.Manifests, "manifests", false, "show the operation manifests")
	flags.BoolVar(&historyConfig.Events, "events", false, "show recent events")
	flags.BoolVar(&historyConfig.Stats, "stats", false, "show statistics")
	flags.IntVar(&historyConfig.Limit, "limit", historyConfig.Limit, "limit the number of items shown")
	flags.StringVar(&historyConfig.Date, "date", "", "only read events of a day (YYYY-MM-DD)")
	flags.StringVar(&historyConfig.Filter, "filter", historyConfig.Filter, "only show operations whose id matches the pattern, e.g. ext-2025*")

	if err := viper.BindPFlags(flags); err != nil {
		panic(fmt.Errorf("bind history flags to viper: %w", err))
	}
}

// runHistory runs the history modlink.
func runHistory() error {
	manifests, err := ledger.New(rootConfig.ManifestsDir).List(historyConfig.Filter)
	if err != nil {
		return err
	}

	recorded, err := events.Load(rootConfig.LogDir, historyConfig.Date)
	if err != nil {
		return err
	}

	showAll := historyConfig.ShowAll()
	if historyConfig.Stats || showAll {
		printStats(history.Summarize(manifests, recorded, 10))
	}

	if historyConfig.Manifests || showAll {
		printOperations(manifests)
	}

	if historyConfig.Events || showAll {
		printEvents(recorded)
	}

	return nil
}

func printStats(s *history.Stats) {
	fmt.Println("Statistics")
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  Operations:\t%d\n", s.Operations)
	fmt.Fprintf(tw, "  Successful:\t%d\n", s.Succeeded)
	fmt.Fprintf(tw, "  Partial:\t%d\n", s.Partial)
	fmt.Fprintf(tw, "  Pending:\t%d\n", s.Pending)
	fmt.Fprintf(tw, "  Failed:\t%d\n", s.Failed)
	fmt.Fprintf(tw, "  Events:\t%d\n", s.Events)
	tw.Flush()

	if len(s.TopEvents) > 0 {
		fmt.Println("Top events")
		for _, e := range s.TopEvents {
			fmt.Printf("  %s: %d\n", e.Event, e.Count)
		}
	}
	fmt.Println()
}

func printOperations(manifests []ledger.Manifest) {
	if len(manifests) == 0 {
		fmt.Println("No manifests found.")
		return
	}

	fmt.Printf("Operations (%d)\n", len(manifests))
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
	fmt.Fprintln(tw, "OPERATION\tMODE\tSTATUS\tTARGET\tFILE\tWRITTEN\tDETAIL")
	for i, m := range manifests {
		if i == historyConfig.Limit {
			break
		}

		op := history.FromManifest(m)
		file := "-"
		if op.Filename != "" {
			file = fmt.Sprintf("%s (%s)", op.Filename, humanize.IBytes(uint64(op.SizeBytes)))
		}

		written := "-"
		if !op.WrittenAt.IsZero() {
			written = humanize.Time(op.WrittenAt)
		}

		detail := ""
		switch {
		case op.Deployed:
			detail = "deployed"
		case op.Error != "":
			detail = truncate(op.Error, 60)
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", op.ID, op.Mode, op.Status, op.Target, file, written, detail)
	}
	tw.Flush()
	fmt.Println()
}

func printEvents(recorded []map[string]any) {
	if len(recorded) == 0 {
		fmt.Println("No events found.")
		return
	}

	shown := min(historyConfig.Limit, len(recorded))
	fmt.Printf("Recent events (showing %d of %d)\n", shown, len(recorded))
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
	for _, e := range recorded[:shown] {
		ts := fmt.Sprint(e["ts"])
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			ts = t.Local().Format("2006-01-02 15:04:05")
		}

		name, _ := e[events.FieldEvent].(string)
		if name == "" {
			name = fmt.Sprint(e["message"])
		}

		var details []string
		for _, key := range []string{"operation_id", "workspace", "project", "count", "error"} {
			if v, ok := e[key]; ok {
				details = append(details, fmt.Sprintf("%s=%v", key, v))
			}
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ts, strings.ToUpper(fmt.Sprint(e["level"])), name, strings.Join(details, " "))
	}
	tw.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n] + "..."
}
