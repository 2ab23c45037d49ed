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

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"

	humanize "github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/modelpack/modlink/pkg/archiver"
)

const deployFailedPrefix = "model deployment failed"

// DeployModel uploads a model file as the trained model of a dataset version.
// The catalog hands out a signed URL, the file is bundled into a tar archive
// and PUT to it.
func (c *Client) DeployModel(ctx context.Context, workspace, project, version, modelPath, modelType string) (Record, error) {
	if !c.HasAPIKey() {
		return nil, deployError(missingKey())
	}

	if _, err := strconv.Atoi(version); err != nil {
		return nil, deployError(&Error{StatusCode: http.StatusBadRequest, Message: fmt.Sprintf("invalid version %q", version)})
	}

	query := url.Values{}
	query.Set("modelType", modelType)
	query.Set("nocache", "true")
	data, err := c.request(ctx, http.MethodGet, []string{workspace, project, version, "uploadModel"}, query, nil)
	if err != nil {
		return nil, deployError(err)
	}

	var signed struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &signed); err != nil || signed.URL == "" {
		return nil, deployError(&Error{StatusCode: http.StatusBadGateway, Message: "catalog returned no upload URL"})
	}

	bundle, size, err := bundleToTemp(modelPath)
	if err != nil {
		return nil, deployError(err)
	}
	defer func() {
		_ = bundle.Close()
		_ = os.Remove(bundle.Name())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, signed.URL, bundle)
	if err != nil {
		return nil, deployError(err)
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "application/x-tar")

	logrus.Infof("catalog: deploying %s (%s) to %s/%s/%s", modelPath, humanize.IBytes(uint64(size)), workspace, project, version)
	if _, err := c.send(req); err != nil {
		return nil, deployError(err)
	}

	c.events.Emit("catalog_model_deployed", map[string]any{
		"workspace":  workspace,
		"project":    project,
		"version":    version,
		"model_type": modelType,
		"size_bytes": size,
	})

	return Record{
		"status":     "deployed",
		"workspace":  workspace,
		"project":    project,
		"version":    version,
		"model_type": modelType,
		"model_path": modelPath,
	}, nil
}

// bundleToTemp writes the tar bundle of modelPath to a temporary file so the
// upload carries a known length.
func bundleToTemp(modelPath string) (*os.File, int64, error) {
	f, err := os.CreateTemp("", "modlink-deploy-*.tar")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create bundle file: %w", err)
	}

	cleanup := func() {
		_ = f.Close()
		_ = os.Remove(f.Name())
	}

	rc := archiver.Bundle(modelPath)
	defer func() { _ = rc.Close() }()

	size, err := io.Copy(f, rc)
	if err != nil {
		cleanup()
		return nil, 0, fmt.Errorf("failed to bundle model: %w", err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return nil, 0, fmt.Errorf("failed to rewind bundle file: %w", err)
	}

	return f, size, nil
}

// deployError wraps err as a catalog Error carrying the deploy prefix. The
// status of an inner catalog Error is kept, anything else maps to 500.
func deployError(err error) *Error {
	var ce *Error
	if errors.As(err, &ce) {
		return &Error{StatusCode: ce.StatusCode, Message: fmt.Sprintf("%s: %s", deployFailedPrefix, ce.Message), Payload: ce.Payload}
	}

	return &Error{StatusCode: http.StatusInternalServerError, Message: fmt.Sprintf("%s: %v", deployFailedPrefix, err)}
}
