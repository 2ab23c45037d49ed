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
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/modelpack/modlink/pkg/config"
	"github.com/modelpack/modlink/pkg/detector"
)

var detectConfig = config.NewDetect()

// detectCmd represents the modlink command for detect.
var detectCmd = &cobra.Command{
	Use:                "detect [flags] <model-file>",
	Short:              "Classify a model file and check it against the installed runtime",
	Args:               cobra.ExactArgs(1),
	DisableAutoGenTag:  true,
	SilenceUsage:       true,
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	RunE: func(cmd *cobra.Command, args []string) error {
		detectConfig.RuntimeVersion = rootConfig.RuntimeVersion

		if err := detectConfig.Validate(); err != nil {
			return err
		}

		return runDetect(args[0])
	},
}

// init initializes detect command.
func init() {
	flags := detectCmd.Flags()
	flags.BoolVar(&detectConfig.JSON, "json", false, "print the classification as JSON")

	if err := viper.BindPFlags(flags); err != nil {
		panic(fmt.Errorf("bind detect flags to viper: %w", err))
	}
}

// runDetect runs the detect modlink.
func runDetect(path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	info := detector.Detect(path)
	compatible, message := detector.CompatibilityMessage(info, detectConfig.RuntimeVersion)

	if detectConfig.JSON {
		data, err := json.MarshalIndent(struct {
			*detector.ModelInfo
			Installed  string `json:"installed_runtime"`
			Compatible bool   `json:"compatible"`
			Message    string `json:"message"`
		}{info, detectConfig.RuntimeVersion, compatible, message}, "", "	")
		if err != nil {
			return err
		}

		fmt.Println(string(data))
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "Model:\t%s\n", info.DisplayName())
	fmt.Fprintf(tw, "Type:\t%s\n", info.ModelType)
	fmt.Fprintf(tw, "Generation:\t%s\n", info.Version)
	fmt.Fprintf(tw, "Architecture:\t%s\n", info.Architecture)
	fmt.Fprintf(tw, "Runtime:\t%s (required %s)\n", info.CompatibleRuntime, detector.RequiredRuntime(info.Version))
	fmt.Fprintf(tw, "Installed:\t%s\n", detectConfig.RuntimeVersion)
	fmt.Fprintf(tw, "Compatible:\t%t\n", compatible)
	fmt.Fprintf(tw, "Message:\t%s\n", message)

	keys := make([]string, 0, len(info.Metadata))
	for k := range info.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(tw, "  %s:\t%v\n", k, info.Metadata[k])
	}

	return nil
}
