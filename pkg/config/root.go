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

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvAPIKey is the environment variable holding the catalog API key.
	EnvAPIKey = "ROBOFLOW_API_KEY"

	// EnvAppEnv is the environment variable naming the deployment environment.
	EnvAppEnv = "APP_ENV"

	// envPrefix prefixes every other modlink specific environment variable.
	envPrefix = "MODLINK"

	// DefaultAppEnv is used when APP_ENV is unset.
	DefaultAppEnv = "dev"

	// DefaultRuntimeVersion is the detector runtime assumed when none is configured.
	DefaultRuntimeVersion = "8.0.196"
)

// Root holds the configuration shared by every modlink command.
type Root struct {
	APIKey         string
	APIURL         string
	AppEnv         string
	BaseDir        string
	LogDir         string
	LogLevel       string
	ManifestsDir   string
	ArtifactsDir   string
	RuntimeVersion string
	MirrorBucket   string
	MirrorPrefix   string
	NoProgress     bool
}

// NewRoot loads .env files and the environment into a Root with defaults
// rooted at ~/.modlink.
func NewRoot() (*Root, error) {
	user, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	baseDir := filepath.Join(user, ".modlink")

	// Existing environment always wins over .env files.
	loadDotEnv(".env", filepath.Join(baseDir, ".env"))

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetDefault("runtime_version", DefaultRuntimeVersion)
	if err := v.BindEnv("api_key", EnvAPIKey); err != nil {
		return nil, fmt.Errorf("bind %s: %w", EnvAPIKey, err)
	}
	if err := v.BindEnv("app_env", EnvAppEnv); err != nil {
		return nil, fmt.Errorf("bind %s: %w", EnvAppEnv, err)
	}
	v.SetDefault("app_env", DefaultAppEnv)

	root := &Root{
		APIKey:         v.GetString("api_key"),
		APIURL:         v.GetString("api_url"),
		AppEnv:         v.GetString("app_env"),
		LogLevel:       "info",
		RuntimeVersion: v.GetString("runtime_version"),
		MirrorBucket:   v.GetString("mirror_bucket"),
		MirrorPrefix:   v.GetString("mirror_prefix"),
	}
	root.SetBaseDir(baseDir)

	return root, nil
}

// SetBaseDir points every managed directory below dir.
func (r *Root) SetBaseDir(dir string) {
	r.BaseDir = dir
	r.LogDir = filepath.Join(dir, "logs")
	r.ManifestsDir = filepath.Join(dir, "outputs", "manifests")
	r.ArtifactsDir = filepath.Join(dir, "outputs", "artifacts")
}

// EnsureDirs creates the log, manifest and artifact directories.
func (r *Root) EnsureDirs() error {
	for _, dir := range []string{r.LogDir, r.ManifestsDir, r.ArtifactsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}

// MaskedAPIKey returns the API key in a form safe for logs.
func (r *Root) MaskedAPIKey() string {
	return MaskSecret(r.APIKey)
}

func loadDotEnv(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}

		// godotenv.Load never overrides variables that are already set.
		_ = godotenv.Load(path)
	}
}
