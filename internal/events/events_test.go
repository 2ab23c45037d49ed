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

package events

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	dir := t.TempDir()

	r, err := Open(dir, time.Now())
	require.NoError(t, err)
	r.Emit("external_model_started", map[string]any{"operation_id": "ext-1", "workspace": "ws1"})
	r.Emit("external_model_completed", map[string]any{"operation_id": "ext-1"})
	require.NoError(t, r.Close())

	target, err := os.Readlink(filepath.Join(dir, LatestEvents))
	require.NoError(t, err)
	assert.Equal(t, EventsFile(time.Now()), target)

	records, err := Load(dir, "")
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "external_model_started", first[FieldEvent])
	assert.Equal(t, "ext-1", first["operation_id"])
	assert.Equal(t, "ws1", first["workspace"])
	assert.Equal(t, "info", first["level"])
	assert.NotEmpty(t, first["ts"])
	assert.NotEmpty(t, first[FieldEventID])
	assert.NotEqual(t, first[FieldEventID], records[1][FieldEventID])
}

func TestOpenUsesUTCDate(t *testing.T) {
	dir := t.TempDir()

	// 20:00 on the 18th twelve hours behind UTC is the 19th in UTC.
	day := time.Date(2026, 10, 18, 20, 0, 0, 0, time.FixedZone("GMT-12", -12*60*60))
	assert.Equal(t, "events-2026-10-19.jsonl", EventsFile(day))
	assert.Equal(t, "app-2026-10-19.log", AppLogFile(day))

	r, err := Open(dir, day)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	target, err := os.Readlink(filepath.Join(dir, LatestEvents))
	require.NoError(t, err)
	assert.Equal(t, "events-2026-10-19.jsonl", target)

	_, err = os.Stat(filepath.Join(dir, LatestEvents))
	assert.NoError(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "events-2025-01-01.jsonl"),
		[]byte(`{"event":"old"}`+"\n\nnot json\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "events-2025-01-02.jsonl"),
		[]byte(`{"event":"new"}`+"\n"), 0644))

	all, err := Load(dir, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "new", all[0]["event"])
	assert.Equal(t, "old", all[1]["event"])

	day, err := Load(dir, "2025-01-01")
	require.NoError(t, err)
	require.Len(t, day, 1)

	none, err := Load(dir, "1999-01-01")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCollector(t *testing.T) {
	c := &Collector{}
	c.Emit("a", map[string]any{"k": 1})
	c.Emit("b", nil)

	assert.Equal(t, []string{"a", "b"}, c.Names())
	rec, ok := c.Find("a")
	assert.True(t, ok)
	assert.Equal(t, 1, rec.Fields["k"])
	_, ok = c.Find("missing")
	assert.False(t, ok)

	Discard.Emit("ignored", nil)
}
