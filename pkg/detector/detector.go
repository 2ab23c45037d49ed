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

package detector

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Detection methods recorded in ModelInfo metadata.
const (
	MethodCheckpoint       = "checkpoint"
	MethodErrorAnalysis    = "error_analysis"
	MethodFilename         = "filename"
	MethodFilenameFallback = "filename_fallback"
)

// ModelInfo is the classification of one model file.
type ModelInfo struct {
	ModelType         string         `json:"model_type"`
	Version           Generation     `json:"version"`
	Architecture      string         `json:"architecture"`
	CompatibleRuntime string         `json:"compatible_runtime"`
	SourcePath        string         `json:"source_path"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// DisplayName returns a short human readable description.
func (m *ModelInfo) DisplayName() string {
	return fmt.Sprintf("YOLO%s (%s)", m.Version, m.Architecture)
}

// Detector classifies model files by architecture family.
type Detector struct {
	load Loader
}

// Option configures a Detector.
type Option func(*Detector)

// WithLoader replaces the checkpoint loader.
func WithLoader(load Loader) Option {
	return func(d *Detector) {
		d.load = load
	}
}

// New returns a Detector reading torch zip checkpoints.
func New(opts ...Option) *Detector {
	d := &Detector{load: LoadCheckpoint}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Detect classifies the model at path. It never fails: when the checkpoint
// cannot be read the classification is guessed from the load error and the
// file name.
func (d *Detector) Detect(path string) *ModelInfo {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	ckpt, err := d.load(path)
	if err != nil {
		logrus.Warnf("detector: could not fully analyze model %s: %v", path, err)
		return fallback(path, stem, err)
	}

	config := ckpt.Config()
	family, _ := matchFamily(config)

	metadata := map[string]any{
		"detection_method": MethodCheckpoint,
	}

	var modules []string
	for _, m := range architectureModules {
		if strings.Contains(config, m) {
			modules = append(modules, m)
		}
	}
	if len(modules) > 0 {
		metadata["architecture_modules"] = modules
	}
	if class := ckpt.ModelClass(); class != "" {
		metadata["model_class"] = class
	}
	if v := ckpt.TrainVersion(); v != "" {
		metadata["train_runtime_version"] = v
	}

	return &ModelInfo{
		ModelType:         ModelTypeYOLO,
		Version:           family.generation,
		Architecture:      family.tag + matchSize(stem),
		CompatibleRuntime: family.runtime,
		SourcePath:        path,
		Metadata:          metadata,
	}
}

func fallback(path, stem string, loadErr error) *ModelInfo {
	msg := loadErr.Error()

	family, method := defaultFamily, MethodFilenameFallback
	switch {
	case containsAny(v11ErrorMarkers...)(msg):
		// Only a runtime too old for v11 modules fails on these names.
		family, method = v11Family, MethodErrorAnalysis
	case containsAny(v11NameMarkers...)(strings.ToLower(stem)):
		family, method = v11Family, MethodFilename
	}

	return &ModelInfo{
		ModelType:         ModelTypeYOLO,
		Version:           family.generation,
		Architecture:      family.tag + defaultSize,
		CompatibleRuntime: family.runtime,
		SourcePath:        path,
		Metadata: map[string]any{
			"detection_method": method,
			"error":            msg,
		},
	}
}

// Detect classifies path with the default Detector.
func Detect(path string) *ModelInfo {
	return New().Detect(path)
}
