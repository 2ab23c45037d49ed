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
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/modelpack/modlink/pkg/artifact"
	"github.com/modelpack/modlink/pkg/detector"
)

// LinkRequest describes a model file to link to a dataset version.
type LinkRequest struct {
	Workspace   string
	Project     string
	Version     string
	FilePath    string
	StorageNote string
}

// LinkResult is the outcome of LinkExternalModel.
type LinkResult struct {
	OperationID  string
	ManifestPath string
	Artifact     *artifact.Artifact
	APIResponse  map[string]any
	Status       Status
	// ModelInfo is nil when detection failed.
	ModelInfo *detector.ModelInfo
	ModelType string
}

// LinkExternalModel stores a hashed copy of a locally trained model and
// deploys it to a dataset version. Under ExternalModelPolicy a failed deploy
// leaves the stored copy as the outcome: the manifest is written with status
// partial_success and no error is returned. Local I/O failures are returned.
func (u *Uploader) LinkExternalModel(ctx context.Context, req LinkRequest) (*LinkResult, error) {
	opID := u.ledger.NewOperationID(PrefixExternalModel)
	u.emit(string(ModeExternalModel)+"_started", opID, map[string]any{
		"workspace": req.Workspace,
		"project":   req.Project,
		"version":   req.Version,
		"filename":  filepath.Base(req.FilePath),
	})

	stored, err := u.store.Put(ctx, req.FilePath, opID)
	if err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", req.FilePath, err)
	}

	storageNote := req.StorageNote
	if storageNote == "" {
		storageNote = defaultStorageNote
	}
	note := fmt.Sprintf("External model artifact %s stored at %s\nChecksum (sha256): %s",
		stored.Filename, stored.StorageURL, stored.SHA256)

	info, modelType := u.classify(opID, req.FilePath)

	result := &LinkResult{
		OperationID: opID,
		Artifact:    stored,
		ModelInfo:   info,
		ModelType:   modelType,
	}

	var deployErr error
	resp, err := u.catalog.DeployModel(ctx, req.Workspace, req.Project, req.Version, req.FilePath, modelType)
	if err != nil {
		var propagate bool
		result.Status, propagate = u.remoteOutcome(ModeExternalModel)
		if propagate {
			deployErr = err
		}
		result.APIResponse = map[string]any{
			"status": StatusStoredLocally,
			"error":  err.Error(),
			"metadata": map[string]any{
				"artifact":     stored,
				"storage_note": storageNote,
				"app_version":  appVersion(),
			},
		}
		u.emit("model_deployment_failed", opID, map[string]any{"error": err.Error()})
		logrus.Warnf("uploader: deploy of %s failed, kept local copy: %v", stored.Filename, err)
	} else {
		result.Status = StatusSuccess
		result.APIResponse = resp
	}

	payload := map[string]any{
		"mode":           ModeExternalModel,
		"workspace":      req.Workspace,
		"project":        req.Project,
		"target_version": req.Version,
		"artifact":       stored,
		"digest":         stored.Digest().String(),
		"model_type":     modelType,
		"storage_note":   nullable(req.StorageNote),
		"note_content":   note,
		"status":         result.Status,
		"api_response":   result.APIResponse,
	}
	if info != nil {
		payload["model_info"] = info
	}

	result.ManifestPath, err = u.persist(opID, payload)
	if err != nil {
		return nil, err
	}

	u.emit(string(ModeExternalModel)+"_completed", opID, map[string]any{
		"manifest": result.ManifestPath,
		"status":   result.Status,
	})

	if deployErr != nil {
		return result, deployErr
	}

	return result, nil
}

// classify runs the detector on path. Detection problems never abort a link,
// they fall back to FallbackModelType.
func (u *Uploader) classify(opID, path string) (*detector.ModelInfo, string) {
	info, err := u.detect(path)
	if err != nil {
		u.emit("model_info_detection_failed", opID, map[string]any{"error": err.Error()})
		logrus.Warnf("uploader: model detection failed for %s, using %s: %v", path, FallbackModelType, err)
		return nil, FallbackModelType
	}

	u.emit("model_info_detected", opID, map[string]any{
		"model_type":       info.Architecture,
		"version":          info.Version,
		"detection_method": info.Metadata["detection_method"],
		"compatible":       detector.IsCompatibleWithRuntime(info, u.runtimeVersion),
	})

	return info, info.Architecture
}

func (u *Uploader) detect(path string) (info *detector.ModelInfo, err error) {
	defer func() {
		if r := recover(); r != nil {
			info, err = nil, fmt.Errorf("model detection panicked: %v", r)
		}
	}()

	info = u.detector.Detect(path)
	if info == nil || info.Architecture == "" {
		return nil, fmt.Errorf("no classification for %s", filepath.Base(path))
	}

	return info, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}

	return s
}
