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

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/modelpack/modlink/pkg/config"
	"github.com/modelpack/modlink/pkg/detector"
	"github.com/modelpack/modlink/pkg/uploader"
)

var linkConfig = config.NewLink()

// linkCmd represents the modlink command for link.
var linkCmd = &cobra.Command{
	Use:                "link [flags] <model-file>",
	Short:              "Store a hashed copy of a locally trained model and deploy it to a dataset version",
	Args:               cobra.ExactArgs(1),
	DisableAutoGenTag:  true,
	SilenceUsage:       true,
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := linkConfig.Validate(); err != nil {
			return err
		}

		if err := uploader.ValidateModelExtension(args[0]); err != nil {
			return err
		}

		return runLink(context.Background(), args[0])
	},
}

// init initializes link command.
func init() {
	flags := linkCmd.Flags()
	flags.StringVarP(&linkConfig.Workspace, "workspace", "w", "", "target workspace")
	flags.StringVarP(&linkConfig.Project, "project", "p", "", "target project")
	flags.StringVarP(&linkConfig.Version, "version", "v", "", "target dataset version number")
	flags.StringVar(&linkConfig.StorageNote, "note", "", "where the original model is kept, recorded in the manifest")
	flags.BoolVar(&linkConfig.SkipDetect, "skip-detect", false, "skip the compatibility check before linking")

	if err := viper.BindPFlags(flags); err != nil {
		panic(fmt.Errorf("bind link flags to viper: %w", err))
	}
}

// runLink runs the link modlink.
func runLink(ctx context.Context, path string) error {
	if !linkConfig.SkipDetect {
		info := detector.Detect(path)
		fmt.Printf("Detected model: %s, compatible runtime %s\n", info.DisplayName(), info.CompatibleRuntime)
		if ok, msg := detector.CompatibilityMessage(info, rootConfig.RuntimeVersion); !ok {
			fmt.Printf("Warning: %s\n", msg)
		}
	}

	u, err := newUploader(ctx)
	if err != nil {
		return err
	}

	result, err := u.LinkExternalModel(ctx, uploader.LinkRequest{
		Workspace:   linkConfig.Workspace,
		Project:     linkConfig.Project,
		Version:     linkConfig.Version,
		FilePath:    path,
		StorageNote: linkConfig.StorageNote,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Stored %s (%s) [sha256: %s]\n", result.Artifact.Filename, humanize.IBytes(uint64(result.Artifact.SizeBytes)), result.Artifact.SHA256)
	if result.Artifact.Mirror != nil {
		if result.Artifact.Mirror.Error != "" {
			fmt.Printf("Mirror failed: %s\n", result.Artifact.Mirror.Error)
		} else {
			fmt.Printf("Mirrored to %s\n", result.Artifact.Mirror.URL)
		}
	}

	switch result.Status {
	case uploader.StatusSuccess:
		fmt.Printf("Successfully deployed %s as %s to %s/%s/%s\n", path, result.ModelType, linkConfig.Workspace, linkConfig.Project, linkConfig.Version)
	case uploader.StatusPartialSuccess:
		fmt.Printf("Deploy failed, model kept locally: %v\n", result.APIResponse["error"])
	}

	fmt.Printf("Operation %s recorded in %s\n", result.OperationID, result.ManifestPath)
	return nil
}
