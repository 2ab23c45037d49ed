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
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// inspectCmd represents the modlink command for inspect.
var inspectCmd = &cobra.Command{
	Use:                "inspect [flags] <workspace> <project>",
	Short:              "Print the catalog document of a project",
	Args:               cobra.ExactArgs(2),
	DisableAutoGenTag:  true,
	SilenceUsage:       true,
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(context.Background(), args[0], args[1])
	},
}

// runInspect runs the inspect modlink.
func runInspect(ctx context.Context, workspace, project string) error {
	inspected, err := newCatalog().GetProject(ctx, workspace, project)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(inspected, "", "	")
	if err != nil {
		return err
	}

	fmt.Println(string(data))
	return nil
}
