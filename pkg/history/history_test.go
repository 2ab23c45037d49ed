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

package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/modelpack/modlink/pkg/ledger"
)

func TestFromManifest(t *testing.T) {
	op := FromManifest(ledger.Manifest{
		"op_id":          "ext-20250314-092653",
		"written_at":     "2025-03-14T09:26:53.5Z",
		"mode":           "external_model",
		"status":         "partial_success",
		"workspace":      "ws1",
		"project":        "p1",
		"target_version": "3",
		"artifact":       map[string]any{"filename": "best.pt", "size_bytes": float64(2048)},
		"api_response":   map[string]any{"status": "stored_locally", "error": "service unavailable"},
	})

	assert.Equal(t, "ext-20250314-092653", op.ID)
	assert.Equal(t, "ws1/p1/v3", op.Target)
	assert.Equal(t, time.Date(2025, 3, 14, 9, 26, 53, 500000000, time.UTC), op.WrittenAt)
	assert.Equal(t, "best.pt", op.Filename)
	assert.Equal(t, int64(2048), op.SizeBytes)
	assert.False(t, op.Deployed)
	assert.Equal(t, "service unavailable", op.Error)
}

func TestFromManifestDataset(t *testing.T) {
	op := FromManifest(ledger.Manifest{
		"op_id":     "ds-20250314-092653",
		"mode":      "dataset",
		"status":    "error",
		"workspace": "ws1",
		"project":   "p1",
		"error":     "archive rejected",
	})

	assert.Equal(t, "ws1/p1", op.Target)
	assert.True(t, op.WrittenAt.IsZero())
	assert.Equal(t, "archive rejected", op.Error)
}

func TestSummarize(t *testing.T) {
	manifests := []ledger.Manifest{
		{"status": "success"},
		{"status": "success"},
		{"status": "partial_success"},
		{"status": "pending"},
		{"status": "error"},
	}
	events := []map[string]any{
		{"event": "external_model_started"},
		{"event": "external_model_started"},
		{"event": "model_deployment_failed"},
		{"event": "dataset_started"},
		{"message": "plain"},
	}

	s := Summarize(manifests, events, 2)
	assert.Equal(t, 5, s.Operations)
	assert.Equal(t, 2, s.Succeeded)
	assert.Equal(t, 1, s.Partial)
	assert.Equal(t, 1, s.Pending)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 5, s.Events)
	assert.Equal(t, []EventCount{
		{Event: "external_model_started", Count: 2},
		{Event: "dataset_started", Count: 1},
	}, s.TopEvents)
}
