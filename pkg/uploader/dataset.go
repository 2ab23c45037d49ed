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
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/modelpack/modlink/pkg/catalog"
)

// DatasetRequest describes a dataset archive to upload as a new version.
type DatasetRequest struct {
	Workspace       string
	Project         string
	ArchivePath     string
	TriggerTraining bool
	Description     string
}

// DatasetResult is the outcome of UploadDataset.
type DatasetResult struct {
	OperationID      string
	ManifestPath     string
	Status           Status
	Message          string
	APIResponse      map[string]any
	TrainingResponse map[string]any
}

// UploadDataset uploads a dataset archive and optionally starts training on
// the resulting version. An unsupported upload is recorded as pending and is
// not an error. Under DatasetPolicy a remote failure is recorded with status
// error and returned.
func (u *Uploader) UploadDataset(ctx context.Context, req DatasetRequest) (*DatasetResult, error) {
	opID := u.ledger.NewOperationID(PrefixDataset)
	u.emit(string(ModeDataset)+"_started", opID, map[string]any{
		"workspace": req.Workspace,
		"project":   req.Project,
		"archive":   req.ArchivePath,
	})

	base := func(status Status) map[string]any {
		return map[string]any{
			"mode":            ModeDataset,
			"workspace":       req.Workspace,
			"project":         req.Project,
			"dataset_archive": req.ArchivePath,
			"status":          status,
		}
	}

	resp, err := u.catalog.UploadDataset(ctx, req.Workspace, req.Project, req.ArchivePath, req.Description)
	switch {
	case errors.Is(err, catalog.ErrUnsupported):
		u.emit("dataset_upload_not_implemented", opID, map[string]any{"reason": err.Error()})

		payload := base(StatusPending)
		payload["notes"] = err.Error()
		path, werr := u.persist(opID, payload)
		if werr != nil {
			return nil, werr
		}

		return &DatasetResult{
			OperationID:  opID,
			ManifestPath: path,
			Status:       StatusPending,
			Message:      err.Error(),
		}, nil
	case err != nil:
		status, propagate := u.remoteOutcome(ModeDataset)

		payload := base(status)
		payload["error"] = err.Error()
		payload["payload"] = errorPayload(err)
		path, werr := u.persist(opID, payload)
		if werr != nil {
			return nil, errors.Join(err, werr)
		}

		u.emit("dataset_upload_failed", opID, map[string]any{"error": err.Error()})
		logrus.Errorf("uploader: dataset upload %s failed: %v", opID, err)

		result := &DatasetResult{
			OperationID:  opID,
			ManifestPath: path,
			Status:       status,
			Message:      err.Error(),
		}
		if propagate {
			return result, fmt.Errorf("dataset upload %s failed: %w", opID, err)
		}

		return result, nil
	}

	result := &DatasetResult{
		OperationID: opID,
		Status:      StatusSuccess,
		APIResponse: resp,
	}

	if version := versionOf(resp); req.TriggerTraining && version != "" {
		result.TrainingResponse = u.triggerTraining(ctx, req, version)
	}

	payload := base(StatusSuccess)
	payload["api_response"] = result.APIResponse
	payload["training_response"] = result.TrainingResponse
	result.ManifestPath, err = u.persist(opID, payload)
	if err != nil {
		return nil, err
	}

	u.emit(string(ModeDataset)+"_completed", opID, map[string]any{"manifest": result.ManifestPath})
	return result, nil
}

// triggerTraining starts training on version. Its failures are recorded in
// the returned response, never raised.
func (u *Uploader) triggerTraining(ctx context.Context, req DatasetRequest, version string) map[string]any {
	resp, err := u.catalog.TriggerTraining(ctx, req.Workspace, req.Project, version)
	switch {
	case errors.Is(err, catalog.ErrUnsupported):
		return map[string]any{"status": string(StatusPending), "message": err.Error()}
	case err != nil:
		logrus.Warnf("uploader: training trigger for %s/%s/%s failed: %v", req.Workspace, req.Project, version, err)
		return map[string]any{"status": string(StatusError), "message": err.Error()}
	}

	return resp
}

// versionOf returns the dataset version created by an upload.
func versionOf(r catalog.Record) string {
	switch v := r["version"].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
