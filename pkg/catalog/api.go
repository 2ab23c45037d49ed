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
	"net/http"

	"github.com/sirupsen/logrus"
)

// ListWorkspaces returns the workspaces visible to the API key.
func (c *Client) ListWorkspaces(ctx context.Context) ([]Record, error) {
	if !c.HasAPIKey() {
		logrus.Debug("catalog: no API key, returning no workspaces")
		return []Record{}, nil
	}

	body, err := c.getObject(ctx)
	if err != nil {
		return nil, err
	}

	records, err := workspaceRecords(body)
	if err != nil {
		return nil, err
	}

	c.events.Emit("catalog_list_workspaces", map[string]any{"count": len(records)})
	return records, nil
}

// ListProjects returns the projects of a workspace.
func (c *Client) ListProjects(ctx context.Context, workspace string) ([]Record, error) {
	if !c.HasAPIKey() {
		return []Record{}, nil
	}

	body, err := c.getObject(ctx, workspace)
	if err != nil {
		return nil, err
	}

	records, err := projectRecords(workspace, body)
	if err != nil {
		return nil, err
	}

	c.events.Emit("catalog_list_projects", map[string]any{"workspace": workspace, "count": len(records)})
	return records, nil
}

// ListVersions returns the dataset versions of a project.
func (c *Client) ListVersions(ctx context.Context, workspace, project string) ([]Record, error) {
	if !c.HasAPIKey() {
		return []Record{}, nil
	}

	body, err := c.getObject(ctx, workspace, project)
	if err != nil {
		return nil, err
	}

	records, err := versionRecords(workspace, project, body)
	if err != nil {
		return nil, err
	}

	c.events.Emit("catalog_list_versions", map[string]any{"workspace": workspace, "project": project, "count": len(records)})
	return records, nil
}

// GetProject returns the raw project document.
func (c *Client) GetProject(ctx context.Context, workspace, project string) (Record, error) {
	if !c.HasAPIKey() {
		return Record{}, nil
	}

	data, err := c.request(ctx, http.MethodGet, []string{workspace, project}, nil, nil)
	if err != nil {
		return nil, err
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, &Error{StatusCode: http.StatusOK, Message: "unexpected response: " + err.Error()}
	}
	if r == nil {
		r = Record{}
	}

	c.events.Emit("catalog_get_project", map[string]any{"workspace": workspace, "project": project})
	return r, nil
}

// AppendVersionNote attaches a note with metadata to a dataset version.
func (c *Client) AppendVersionNote(ctx context.Context, workspace, project, version, note string, metadata map[string]any) (Record, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}

	payload := map[string]any{"note": note, "metadata": metadata}
	data, err := c.request(ctx, http.MethodPost, []string{workspace, project, version, "notes"}, nil, payload)
	if err != nil {
		return nil, err
	}

	r := Record{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &r); err != nil || r == nil {
			r = Record{"raw": string(data)}
		}
	}

	c.events.Emit("catalog_note_appended", map[string]any{"workspace": workspace, "project": project, "version": version})
	return r, nil
}

// UploadDataset would create a new dataset version from an archive. The
// catalog client does not support it yet.
func (c *Client) UploadDataset(_ context.Context, workspace, project, archivePath, description string) (Record, error) {
	logrus.Debugf("catalog: dataset upload to %s/%s from %s is not supported", workspace, project, archivePath)
	return nil, ErrUnsupported
}

// TriggerTraining would start training on a dataset version. The catalog
// client does not support it yet.
func (c *Client) TriggerTraining(_ context.Context, workspace, project, version string) (Record, error) {
	logrus.Debugf("catalog: training trigger for %s/%s/%s is not supported", workspace, project, version)
	return nil, ErrUnsupported
}

func (c *Client) getObject(ctx context.Context, segments ...string) (map[string]json.RawMessage, error) {
	data, err := c.request(ctx, http.MethodGet, segments, nil, nil)
	if err != nil {
		return nil, err
	}

	return decodeObject(data)
}
