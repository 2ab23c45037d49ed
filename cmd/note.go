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

	"github.com/modelpack/modlink/pkg/config"
)

var noteConfig = config.NewNote()

// noteCmd represents the modlink command for note.
var noteCmd = &cobra.Command{
	Use:                "note [flags] <text>",
	Short:              "Attach a note to a dataset version",
	Args:               cobra.ExactArgs(1),
	DisableAutoGenTag:  true,
	SilenceUsage:       true,
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := noteConfig.Validate(); err != nil {
			return err
		}

		return runNote(context.Background(), args[0])
	},
}

// init initializes note command.
func init() {
	flags := noteCmd.Flags()
	flags.StringVarP(&noteConfig.Workspace, "workspace", "w", "", "target workspace")
	flags.StringVarP(&noteConfig.Project, "project", "p", "", "target project")
	flags.StringVarP(&noteConfig.Version, "version", "v", "", "target dataset version number")
	flags.StringToStringVar(&noteConfig.Metadata, "meta", noteConfig.Metadata, "metadata attached to the note, as key=value pairs")

	if err := viper.BindPFlags(flags); err != nil {
		panic(fmt.Errorf("bind note flags to viper: %w", err))
	}
}

// runNote runs the note modlink.
func runNote(ctx context.Context, text string) error {
	metadata := make(map[string]any, len(noteConfig.Metadata))
	for k, v := range noteConfig.Metadata {
		metadata[k] = v
	}

	if _, err := newCatalog().AppendVersionNote(ctx, noteConfig.Workspace, noteConfig.Project, noteConfig.Version, text, metadata); err != nil {
		return err
	}

	fmt.Printf("Successfully added note to %s/%s/%s\n", noteConfig.Workspace, noteConfig.Project, noteConfig.Version)
	return nil
}
