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
	"github.com/modelpack/modlink/pkg/uploader"
)

var uploadConfig = config.NewUpload()

// uploadCmd represents the modlink command for upload.
var uploadCmd = &cobra.Command{
	Use:                "upload [flags] <archive.zip>",
	Short:              "Upload a dataset archive to create a new dataset version",
	Args:               cobra.ExactArgs(1),
	DisableAutoGenTag:  true,
	SilenceUsage:       true,
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := uploadConfig.Validate(); err != nil {
			return err
		}

		if err := uploadConfig.ValidateArchive(args[0]); err != nil {
			return err
		}

		return runUpload(context.Background(), args[0])
	},
}

// init initializes upload command.
func init() {
	flags := uploadCmd.Flags()
	flags.StringVarP(&uploadConfig.Workspace, "workspace", "w", "", "target workspace")
	flags.StringVarP(&uploadConfig.Project, "project", "p", "", "target project")
	flags.BoolVar(&uploadConfig.TriggerTraining, "train", false, "start training on the new version")
	flags.StringVar(&uploadConfig.Description, "description", "", "description of the new version")

	if err := viper.BindPFlags(flags); err != nil {
		panic(fmt.Errorf("bind upload flags to viper: %w", err))
	}
}

// runUpload runs the upload modlink.
func runUpload(ctx context.Context, archive string) error {
	u, err := newUploader(ctx)
	if err != nil {
		return err
	}

	result, err := u.UploadDataset(ctx, uploader.DatasetRequest{
		Workspace:       uploadConfig.Workspace,
		Project:         uploadConfig.Project,
		ArchivePath:     archive,
		TriggerTraining: uploadConfig.TriggerTraining,
		Description:     uploadConfig.Description,
	})
	if err != nil {
		if result != nil {
			fmt.Printf("Operation %s recorded in %s\n", result.OperationID, result.ManifestPath)
		}
		return err
	}

	switch result.Status {
	case uploader.StatusPending:
		fmt.Printf("Dataset upload is pending: %s\n", result.Message)
	default:
		fmt.Printf("Successfully uploaded %s to %s/%s\n", archive, uploadConfig.Workspace, uploadConfig.Project)
		if result.TrainingResponse != nil {
			fmt.Printf("Training: %v\n", result.TrainingResponse["status"])
		}
	}

	fmt.Printf("Operation %s recorded in %s\n", result.OperationID, result.ManifestPath)
	return nil
}
