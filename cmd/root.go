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
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/modelpack/modlink/internal/events"
	internalpb "github.com/modelpack/modlink/internal/pb"
	"github.com/modelpack/modlink/pkg/config"
	"github.com/modelpack/modlink/pkg/version"
)

var rootConfig *config.Root
var logFile *os.File
var recorder *events.Recorder

// rootCmd represents the modlink command.
var rootCmd = &cobra.Command{
	Use:                version.AppName,
	Short:              "A command line tool for linking locally trained detection models and datasets to a dataset catalog",
	Args:               cobra.MaximumNArgs(1),
	DisableAutoGenTag:  true,
	SilenceUsage:       true,
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("base-dir") {
			rootConfig.SetBaseDir(rootConfig.BaseDir)
		}

		// Ensure log, manifest and artifact directories exist.
		if err := rootConfig.EnsureDirs(); err != nil {
			return err
		}

		now := time.Now().UTC()
		appLog := events.AppLogFile(now)

		var err error
		logFile, err = os.OpenFile(filepath.Join(rootConfig.LogDir, appLog), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		events.Link(rootConfig.LogDir, appLog, events.LatestAppLog)

		logLevel, err := logrus.ParseLevel(rootConfig.LogLevel)
		if err != nil {
			return err
		}

		logrus.SetOutput(logFile)
		logrus.SetLevel(logLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})

		recorder, err = events.Open(rootConfig.LogDir, now)
		if err != nil {
			return err
		}

		logrus.Infof("%s started [env: %s, api key: %s, base dir: %s]", version.AppName, rootConfig.AppEnv, rootConfig.MaskedAPIKey(), rootConfig.BaseDir)

		internalpb.SetDisableProgress(rootConfig.NoProgress)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if recorder != nil {
			if err := recorder.Close(); err != nil {
				return err
			}
		}

		if logFile != nil {
			return logFile.Close()
		}

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		os.Exit(1)
	}()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	var err error
	rootConfig, err = config.NewRoot()
	if err != nil {
		panic(err)
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootConfig.BaseDir, "base-dir", rootConfig.BaseDir, "specify the base directory for logs, manifests and artifacts")
	flags.StringVar(&rootConfig.APIURL, "api-url", rootConfig.APIURL, "specify the catalog API endpoint")
	flags.StringVar(&rootConfig.RuntimeVersion, "runtime-version", rootConfig.RuntimeVersion, "specify the installed detector runtime version used for compatibility checks")
	flags.BoolVar(&rootConfig.NoProgress, "no-progress", rootConfig.NoProgress, "disable progress bar")
	flags.StringVar(&rootConfig.LogLevel, "log-level", rootConfig.LogLevel, "specify the log level for modlink")

	// Bind common flags.
	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}

	// Add sub command.
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(noteCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(historyCmd)
}
