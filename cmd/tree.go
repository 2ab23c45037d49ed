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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var treeFanOut int

// treeCmd represents the modlink command for tree.
var treeCmd = &cobra.Command{
	Use:                "tree",
	Short:              "Show every workspace with its projects and versions",
	Args:               cobra.NoArgs,
	DisableAutoGenTag:  true,
	SilenceUsage:       true,
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTree(context.Background())
	},
}

// init initializes tree command.
func init() {
	flags := treeCmd.Flags()
	flags.IntVar(&treeFanOut, "concurrency", 4, "number of projects whose versions are fetched concurrently")

	if err := viper.BindPFlags(flags); err != nil {
		panic(fmt.Errorf("bind tree flags to viper: %w", err))
	}
}

// runTree runs the tree modlink.
func runTree(ctx context.Context) error {
	tree, err := newCatalog().LoadHierarchy(ctx, treeFanOut)
	if err != nil {
		return err
	}

	if len(tree) == 0 {
		fmt.Println("No workspaces found.")
		return nil
	}

	for _, ws := range tree {
		fmt.Printf("%s\n", ws.Workspace.String("id"))
		for i, p := range ws.Projects {
			branch, indent := "├── ", "│   "
			if i == len(ws.Projects)-1 {
				branch, indent = "└── ", "    "
			}

			fmt.Printf("%s%s (%d versions)\n", branch, field(p.Project, "id"), len(p.Versions))
			for j, v := range p.Versions {
				leaf := "├── "
				if j == len(p.Versions)-1 {
					leaf = "└── "
				}
				fmt.Printf("%s%sv%s\n", indent, leaf, field(v, "version"))
			}
		}
	}

	return nil
}
