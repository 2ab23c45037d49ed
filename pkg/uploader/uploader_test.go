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
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/modelpack/modlink/internal/events"
	"github.com/modelpack/modlink/pkg/artifact"
	"github.com/modelpack/modlink/pkg/catalog"
	"github.com/modelpack/modlink/pkg/detector"
	"github.com/modelpack/modlink/pkg/ledger"
	mockcatalog "github.com/modelpack/modlink/test/mocks/catalog"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

type panicDetector struct{}

func (panicDetector) Detect(string) *detector.ModelInfo {
	panic("corrupt checkpoint")
}

func c2fDetector() *detector.Detector {
	return detector.New(detector.WithLoader(func(string) (*detector.Checkpoint, error) {
		return &detector.Checkpoint{Strings: []string{"backbone", "C2f", "SPPF"}}, nil
	}))
}

type fixture struct {
	uploader  *Uploader
	catalog   *mockcatalog.Catalog
	events    *events.Collector
	artifacts string
	manifests string
	source    string
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	root := t.TempDir()
	f := &fixture{
		catalog:   mockcatalog.NewCatalog(t),
		events:    &events.Collector{},
		artifacts: filepath.Join(root, "outputs", "artifacts"),
		manifests: filepath.Join(root, "outputs", "manifests"),
		source:    filepath.Join(root, "runs", "best.pt"),
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(f.source), 0755))
	require.NoError(t, os.WriteFile(f.source, []byte("trained weights"), 0644))

	opts = append([]Option{WithDetector(c2fDetector()), WithEmitter(f.events)}, opts...)
	f.uploader = New(f.catalog,
		artifact.NewStore(f.artifacts),
		ledger.New(f.manifests, ledger.WithClock(func() time.Time { return fixedNow })),
		opts...)

	return f
}

func sha256Of(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestValidateModelExtension(t *testing.T) {
	for _, name := range []string{"best.pt", "model.ONNX", "a.engine", "b.tflite", "frozen.pb"} {
		assert.NoError(t, ValidateModelExtension(name), name)
	}

	for _, name := range []string{"best.pth", "weights", "data.zip", "model.pt.bak"} {
		assert.Error(t, ValidateModelExtension(name), name)
	}
}

func TestLinkExternalModel(t *testing.T) {
	f := newFixture(t)
	f.catalog.On("DeployModel", mock.Anything, "ws1", "p1", "3", f.source, "yolov8s").
		Return(catalog.Record{"status": "deployed"}, nil).Once()

	result, err := f.uploader.LinkExternalModel(context.Background(), LinkRequest{
		Workspace: "ws1",
		Project:   "p1",
		Version:   "3",
		FilePath:  f.source,
	})
	require.NoError(t, err)

	assert.Equal(t, "ext-20250314-092653", result.OperationID)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "yolov8s", result.ModelType)
	require.NotNil(t, result.ModelInfo)
	assert.Equal(t, detector.GenerationV8, result.ModelInfo.Version)

	copied := filepath.Join(f.artifacts, "best.pt")
	assert.Equal(t, sha256Of(t, copied), result.Artifact.SHA256)
	assert.Equal(t, int64(len("trained weights")), result.Artifact.SizeBytes)

	manifest, err := ledger.ReadFile(result.ManifestPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.manifests, "ext-20250314-092653.json"), result.ManifestPath)
	assert.Equal(t, "success", manifest.String("status"))
	assert.Equal(t, "external_model", manifest.String("mode"))
	assert.Equal(t, "3", manifest.String("target_version"))
	assert.Equal(t, "ext-20250314-092653", manifest.String(ledger.KeyOperationID))
	assert.Nil(t, manifest["storage_note"])
	assert.Contains(t, manifest.String("note_content"), result.Artifact.SHA256)
	assert.Equal(t, map[string]any{"status": "deployed"}, manifest["api_response"])

	stored, ok := manifest["artifact"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, result.Artifact.SHA256, stored["sha256"])
	assert.Equal(t, "best.pt", stored["filename"])

	assert.Equal(t, []string{"external_model_started", "model_info_detected", "external_model_completed"}, f.events.Names())
	detected, _ := f.events.Find("model_info_detected")
	assert.Equal(t, "yolov8s", detected.Fields["model_type"])
	assert.Equal(t, result.OperationID, detected.Fields["operation_id"])
}

func TestLinkExternalModelDeployFailure(t *testing.T) {
	f := newFixture(t)
	f.catalog.On("DeployModel", mock.Anything, "ws1", "p1", "3", f.source, "yolov8s").
		Return(nil, &catalog.Error{StatusCode: http.StatusServiceUnavailable, Message: "model deployment failed: service unavailable (503)"}).Once()

	result, err := f.uploader.LinkExternalModel(context.Background(), LinkRequest{
		Workspace:   "ws1",
		Project:     "p1",
		Version:     "3",
		FilePath:    f.source,
		StorageNote: "nas://models/best.pt",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPartialSuccess, result.Status)
	assert.Equal(t, StatusStoredLocally, result.APIResponse["status"])
	assert.Equal(t, sha256Of(t, filepath.Join(f.artifacts, "best.pt")), result.Artifact.SHA256)

	manifest, err := ledger.ReadFile(result.ManifestPath)
	require.NoError(t, err)
	assert.Equal(t, "partial_success", manifest.String("status"))
	assert.Equal(t, "nas://models/best.pt", manifest.String("storage_note"))

	resp, ok := manifest["api_response"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "stored_locally", resp["status"])
	assert.Contains(t, resp["error"], "service unavailable")
	metadata, ok := resp["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "nas://models/best.pt", metadata["storage_note"])
	assert.Contains(t, metadata, "artifact")
	assert.Contains(t, metadata, "app_version")

	assert.Equal(t, []string{
		"external_model_started",
		"model_info_detected",
		"model_deployment_failed",
		"external_model_completed",
	}, f.events.Names())
}

func TestLinkExternalModelPropagatePolicy(t *testing.T) {
	f := newFixture(t, WithPolicy(ModeExternalModel, Propagate))
	deployErr := &catalog.Error{StatusCode: http.StatusNotFound, Message: "resource not found"}
	f.catalog.On("DeployModel", mock.Anything, "ws1", "p1", "3", f.source, "yolov8s").Return(nil, deployErr).Once()

	result, err := f.uploader.LinkExternalModel(context.Background(), LinkRequest{
		Workspace: "ws1",
		Project:   "p1",
		Version:   "3",
		FilePath:  f.source,
	})
	require.ErrorIs(t, err, deployErr)
	require.NotNil(t, result)
	assert.Equal(t, StatusError, result.Status)

	manifest, err := ledger.ReadFile(result.ManifestPath)
	require.NoError(t, err)
	assert.Equal(t, "error", manifest.String("status"))
}

func TestLinkExternalModelDetectionFailure(t *testing.T) {
	f := newFixture(t, WithDetector(panicDetector{}))
	f.catalog.On("DeployModel", mock.Anything, "ws1", "p1", "3", f.source, FallbackModelType).
		Return(catalog.Record{"status": "deployed"}, nil).Once()

	result, err := f.uploader.LinkExternalModel(context.Background(), LinkRequest{
		Workspace: "ws1",
		Project:   "p1",
		Version:   "3",
		FilePath:  f.source,
	})
	require.NoError(t, err)
	assert.Nil(t, result.ModelInfo)
	assert.Equal(t, FallbackModelType, result.ModelType)

	failed, ok := f.events.Find("model_info_detection_failed")
	require.True(t, ok)
	assert.Contains(t, failed.Fields["error"], "corrupt checkpoint")
}

func TestLinkExternalModelMissingSource(t *testing.T) {
	f := newFixture(t)

	_, err := f.uploader.LinkExternalModel(context.Background(), LinkRequest{
		Workspace: "ws1",
		Project:   "p1",
		Version:   "3",
		FilePath:  filepath.Join(t.TempDir(), "missing.pt"),
	})
	require.Error(t, err)

	_, statErr := os.Stat(f.manifests)
	assert.True(t, os.IsNotExist(statErr))
	assert.Equal(t, []string{"external_model_started"}, f.events.Names())
}

func TestLinkExternalModelRelinkOverwrites(t *testing.T) {
	f := newFixture(t)
	f.catalog.On("DeployModel", mock.Anything, "ws1", "p1", "3", f.source, "yolov8s").
		Return(catalog.Record{"status": "deployed"}, nil).Twice()

	req := LinkRequest{Workspace: "ws1", Project: "p1", Version: "3", FilePath: f.source}
	first, err := f.uploader.LinkExternalModel(context.Background(), req)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(f.source, []byte("retrained weights"), 0644))
	second, err := f.uploader.LinkExternalModel(context.Background(), req)
	require.NoError(t, err)

	assert.NotEqual(t, first.Artifact.SHA256, second.Artifact.SHA256)
	assert.Equal(t, sha256Of(t, filepath.Join(f.artifacts, "best.pt")), second.Artifact.SHA256)
	assert.Equal(t, first.ManifestPath, second.ManifestPath)
}

func TestUploadDatasetPending(t *testing.T) {
	f := newFixture(t)
	f.catalog.On("UploadDataset", mock.Anything, "ws1", "p1", "/data/export.zip", "first export").
		Return(nil, catalog.ErrUnsupported).Once()

	result, err := f.uploader.UploadDataset(context.Background(), DatasetRequest{
		Workspace:   "ws1",
		Project:     "p1",
		ArchivePath: "/data/export.zip",
		Description: "first export",
	})
	require.NoError(t, err)
	assert.Equal(t, "ds-20250314-092653", result.OperationID)
	assert.Equal(t, StatusPending, result.Status)
	assert.Equal(t, catalog.ErrUnsupported.Error(), result.Message)

	manifest, err := ledger.ReadFile(result.ManifestPath)
	require.NoError(t, err)
	assert.Equal(t, "pending", manifest.String("status"))
	assert.Equal(t, "dataset", manifest.String("mode"))
	assert.Equal(t, "/data/export.zip", manifest.String("dataset_archive"))
	assert.NotEmpty(t, manifest.String("notes"))

	assert.Equal(t, []string{"dataset_started", "dataset_upload_not_implemented"}, f.events.Names())
}

func TestUploadDatasetRemoteError(t *testing.T) {
	f := newFixture(t)
	remote := &catalog.Error{StatusCode: http.StatusBadRequest, Message: "archive rejected", Payload: map[string]any{"code": "bad_zip"}}
	f.catalog.On("UploadDataset", mock.Anything, "ws1", "p1", "/data/export.zip", "").Return(nil, remote).Once()

	result, err := f.uploader.UploadDataset(context.Background(), DatasetRequest{
		Workspace:   "ws1",
		Project:     "p1",
		ArchivePath: "/data/export.zip",
	})
	require.Error(t, err)

	var ce *catalog.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, http.StatusBadRequest, ce.StatusCode)
	require.NotNil(t, result)
	assert.Equal(t, StatusError, result.Status)

	manifest, err := ledger.ReadFile(result.ManifestPath)
	require.NoError(t, err)
	assert.Equal(t, "error", manifest.String("status"))
	assert.Contains(t, manifest.String("error"), "archive rejected")
	assert.Equal(t, map[string]any{"code": "bad_zip"}, manifest["payload"])
}

func TestUploadDatasetWithTraining(t *testing.T) {
	tests := []struct {
		name     string
		trainErr error
		trainRes catalog.Record
		expected map[string]any
	}{
		{
			name:     "training started",
			trainRes: catalog.Record{"status": "training"},
			expected: map[string]any{"status": "training"},
		},
		{
			name:     "training unsupported",
			trainErr: catalog.ErrUnsupported,
			expected: map[string]any{"status": "pending", "message": catalog.ErrUnsupported.Error()},
		},
		{
			name:     "training refused",
			trainErr: &catalog.Error{StatusCode: http.StatusForbidden, Message: "no credits"},
			expected: map[string]any{"status": "error", "message": "catalog API error 403: no credits"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.catalog.On("UploadDataset", mock.Anything, "ws1", "p1", "/data/export.zip", "").
				Return(catalog.Record{"version": float64(4)}, nil).Once()
			f.catalog.On("TriggerTraining", mock.Anything, "ws1", "p1", "4").Return(tt.trainRes, tt.trainErr).Once()

			result, err := f.uploader.UploadDataset(context.Background(), DatasetRequest{
				Workspace:       "ws1",
				Project:         "p1",
				ArchivePath:     "/data/export.zip",
				TriggerTraining: true,
			})
			require.NoError(t, err)
			assert.Equal(t, StatusSuccess, result.Status)
			assert.Equal(t, tt.expected, result.TrainingResponse)

			manifest, err := ledger.ReadFile(result.ManifestPath)
			require.NoError(t, err)
			assert.Equal(t, "success", manifest.String("status"))
			assert.Equal(t, tt.expected, manifest["training_response"])
			assert.Equal(t, []string{"dataset_started", "dataset_completed"}, f.events.Names())
		})
	}
}

func TestUploadDatasetWithoutTraining(t *testing.T) {
	f := newFixture(t)
	f.catalog.On("UploadDataset", mock.Anything, "ws1", "p1", "/data/export.zip", "").
		Return(catalog.Record{"version": "7"}, nil).Once()

	result, err := f.uploader.UploadDataset(context.Background(), DatasetRequest{
		Workspace:   "ws1",
		Project:     "p1",
		ArchivePath: "/data/export.zip",
	})
	require.NoError(t, err)
	assert.Nil(t, result.TrainingResponse)

	manifest, err := ledger.ReadFile(result.ManifestPath)
	require.NoError(t, err)
	assert.Nil(t, manifest["training_response"])
}
