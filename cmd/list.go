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
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/modelpack/modlink/pkg/catalog"
)

// listCmd represents the modlink command for list.
var listCmd = &cobra.Command{
	Use:                "ls [workspace [project]]",
	Short:              "List workspaces, the projects of a workspace or the versions of a project",
	Args:               cobra.MaximumNArgs(2),
	DisableAutoGenTag:  true,
	SilenceUsage:       true,
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(context.Background(), args)
	},
}

// runList runs the list modlink.
func runList(ctx context.Context, args []string) error {
	c := newCatalog()

	var (
		records []catalog.Record
		columns []string
		err     error
	)
	switch len(args) {
	case 0:
		records, err = c.ListWorkspaces(ctx)
		columns = []string{"id", "name"}
	case 1:
		records, err = c.ListProjects(ctx, args[0])
		columns = []string{"id", "name", "type", "images"}
	default:
		records, err = c.ListVersions(ctx, args[0], args[1])
		columns = []string{"id", "version", "name", "images"}
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
	defer tw.Flush()

	for i, col := range columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, strings.ToUpper(col))
	}
	fmt.Fprintln(tw)

	for _, r := range records {
		for i, col := range columns {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, field(r, col))
		}
		fmt.Fprintln(tw)
	}

	return nil
}

func field(r catalog.Record, key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return "-"
	}

	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}

	return fmt.Sprint(v)
}
