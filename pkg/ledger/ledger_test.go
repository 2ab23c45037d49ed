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

package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelpack/modlink/pkg/version"
)

func fixedClock(ts string) func() time.Time {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}

	return func() time.Time { return t }
}

func TestNewOperationID(t *testing.T) {
	l := New(t.TempDir(), WithClock(fixedClock("2025-03-04T05:06:07+02:00")))

	assert.Equal(t, "ext-20250304-030607", l.NewOperationID("ext"))
	assert.Equal(t, "ds-20250304-030607", l.NewOperationID("ds"))
}

func TestGenerateOperationID(t *testing.T) {
	id := GenerateOperationID("ds")
	assert.Regexp(t, `^ds-\d{8}-\d{6}$`, id)
}

func TestWriteRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "manifests")
	l := New(dir, WithClock(fixedClock("2025-01-02T03:04:05Z")))

	path, err := l.Write("ext-20250102-030405", map[string]any{
		"mode":   "external_model",
		"status": "success",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ext-20250102-030405.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc, 5)
	assert.Equal(t, "ext-20250102-030405", doc[KeyOperationID])
	assert.Equal(t, version.AppVersion(), doc[KeyAppVersion])
	assert.Equal(t, "2025-01-02T03:04:05Z", doc[KeyWrittenAt])
	assert.Equal(t, "external_model", doc["mode"])
	assert.Equal(t, "success", doc["status"])

	manifest, err := l.Read("ext-20250102-030405")
	require.NoError(t, err)
	assert.Equal(t, "success", manifest.String("status"))
	assert.Equal(t, "", manifest.String("missing"))
}

func TestWriteSameIDOverwrites(t *testing.T) {
	dir := t.TempDir()

	_, err := WriteManifest(dir, "ds-1", map[string]any{"status": "pending"})
	require.NoError(t, err)
	_, err = WriteManifest(dir, "ds-1", map[string]any{"status": "error"})
	require.NoError(t, err)

	manifest, err := New(dir).Read("ds-1")
	require.NoError(t, err)
	assert.Equal(t, "error", manifest.String("status"))
}

func TestReadMissing(t *testing.T) {
	_, err := New(t.TempDir()).Read("ext-00000000-000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)

	for _, id := range []string{"ds-20250101-000000", "ext-20250103-000000", "ext-20250102-000000"} {
		_, err := l.Write(id, map[string]any{"id": id})
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	all, err := l.List("")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "ext-20250103-000000", all[0].String(KeyOperationID))
	assert.Equal(t, "ext-20250102-000000", all[1].String(KeyOperationID))
	assert.Equal(t, "ds-20250101-000000", all[2].String(KeyOperationID))

	ext, err := l.List("ext-*")
	require.NoError(t, err)
	assert.Len(t, ext, 2)

	missing, err := New(filepath.Join(dir, "absent")).List("*")
	require.NoError(t, err)
	assert.Empty(t, missing)
}
