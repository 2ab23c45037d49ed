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

package uploader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/modelpack/modlink/internal/events"
	"github.com/modelpack/modlink/pkg/artifact"
	"github.com/modelpack/modlink/pkg/catalog"
	"github.com/modelpack/modlink/pkg/config"
	"github.com/modelpack/modlink/pkg/detector"
	"github.com/modelpack/modlink/pkg/ledger"
	"github.com/modelpack/modlink/pkg/version"
)

// Mode is the kind of operation recorded in a manifest.
type Mode string

const (
	ModeDataset       Mode = "dataset"
	ModeExternalModel Mode = "external_model"
)

// Status is the outcome of an operation.
type Status string

const (
	StatusPending        Status = "pending"
	StatusSuccess        Status = "success"
	StatusPartialSuccess Status = "partial_success"
	StatusError          Status = "error"
)

const (
	// PrefixDataset prefixes dataset upload operation ids.
	PrefixDataset = "ds"
	// PrefixExternalModel prefixes external model link operation ids.
	PrefixExternalModel = "ext"

	// FallbackModelType is deployed when the model cannot be classified.
	FallbackModelType = "yolov8"

	// StatusStoredLocally marks an api response for a model that was kept
	// in the artifact store but not deployed.
	StatusStoredLocally = "stored_locally"

	defaultStorageNote = "stored locally"
)

// Policy decides what happens to a remote failure of a workflow.
type Policy int

const (
	// Propagate records the failure with status error and returns it.
	Propagate Policy = iota
	// RecordPartial records the failure with status partial_success and
	// returns the result without an error.
	RecordPartial
)

const (
	// ExternalModelPolicy applies to LinkExternalModel: the artifact is kept
	// even when the catalog refuses the model.
	ExternalModelPolicy = RecordPartial
	// DatasetPolicy applies to UploadDataset.
	DatasetPolicy = Propagate
)

// Catalog is the subset of the catalog client the uploader drives.
type Catalog interface {
	DeployModel(ctx context.Context, workspace, project, version, modelPath, modelType string) (catalog.Record, error)
	UploadDataset(ctx context.Context, workspace, project, archivePath, description string) (catalog.Record, error)
	TriggerTraining(ctx context.Context, workspace, project, version string) (catalog.Record, error)
}

// ModelDetector classifies model files.
type ModelDetector interface {
	Detect(path string) *detector.ModelInfo
}

// Uploader links models and uploads datasets, recording each operation in
// the manifest ledger.
type Uploader struct {
	catalog        Catalog
	detector       ModelDetector
	store          *artifact.Store
	ledger         *ledger.Ledger
	events         events.Emitter
	runtimeVersion string
	policies       map[Mode]Policy
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithDetector replaces the model detector.
func WithDetector(d ModelDetector) Option {
	return func(u *Uploader) {
		u.detector = d
	}
}

// WithEmitter records operation events with e.
func WithEmitter(e events.Emitter) Option {
	return func(u *Uploader) {
		u.events = e
	}
}

// WithRuntimeVersion sets the installed runtime version used to report
// model compatibility.
func WithRuntimeVersion(v string) Option {
	return func(u *Uploader) {
		u.runtimeVersion = v
	}
}

// WithPolicy overrides the remote failure policy of a workflow.
func WithPolicy(mode Mode, p Policy) Option {
	return func(u *Uploader) {
		u.policies[mode] = p
	}
}

// New creates an Uploader.
func New(c Catalog, store *artifact.Store, l *ledger.Ledger, opts ...Option) *Uploader {
	u := &Uploader{
		catalog:        c,
		detector:       detector.New(),
		store:          store,
		ledger:         l,
		events:         events.Discard,
		runtimeVersion: config.DefaultRuntimeVersion,
		policies: map[Mode]Policy{
			ModeExternalModel: ExternalModelPolicy,
			ModeDataset:       DatasetPolicy,
		},
	}
	for _, opt := range opts {
		opt(u)
	}

	return u
}

// modelExtensions are the model file types accepted for linking.
var modelExtensions = []string{".pt", ".onnx", ".engine", ".tflite", ".pb"}

// ValidateModelExtension checks that path looks like a model file.
func ValidateModelExtension(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range modelExtensions {
		if ext == allowed {
			return nil
		}
	}

	return fmt.Errorf("unsupported model file %q, expected one of %s", filepath.Base(path), strings.Join(modelExtensions, ", "))
}

// remoteOutcome returns the status a remote failure of mode is recorded
// with, and whether the failure is returned to the caller.
func (u *Uploader) remoteOutcome(mode Mode) (Status, bool) {
	if u.policies[mode] == RecordPartial {
		return StatusPartialSuccess, false
	}

	return StatusError, true
}

// errorPayload returns the structured payload of a catalog error.
func errorPayload(err error) map[string]any {
	var ce *catalog.Error
	if errors.As(err, &ce) && ce.Payload != nil {
		return ce.Payload
	}

	return map[string]any{}
}

func (u *Uploader) emit(event, operationID string, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["operation_id"] = operationID
	u.events.Emit(event, fields)
}

func (u *Uploader) persist(operationID string, payload map[string]any) (string, error) {
	path, err := u.ledger.Write(operationID, payload)
	if err != nil {
		return "", fmt.Errorf("failed to write manifest for %s: %w", operationID, err)
	}

	logrus.Infof("uploader: manifest for %s written to %s", operationID, path)
	return path, nil
}

func appVersion() string {
	return version.AppVersion()
}
