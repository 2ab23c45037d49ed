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

package archiver

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundle(t *testing.T) {
	dir := t.TempDir()
	weights := filepath.Join(dir, "nested", "best.pt")
	require.NoError(t, os.MkdirAll(filepath.Dir(weights), 0755))
	require.NoError(t, os.WriteFile(weights, []byte("weights"), 0644))
	args := filepath.Join(dir, "args.yaml")
	require.NoError(t, os.WriteFile(args, []byte("epochs: 10"), 0644))

	rc := Bundle(weights, args)
	defer rc.Close()

	tr := tar.NewReader(rc)
	contents := map[string]string{}
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		contents[header.Name] = string(data)
	}

	assert.Equal(t, map[string]string{"best.pt": "weights", "args.yaml": "epochs: 10"}, contents)
}

func TestBundleMissingFile(t *testing.T) {
	rc := Bundle(filepath.Join(t.TempDir(), "missing.pt"))
	defer rc.Close()

	_, err := io.ReadAll(rc)
	assert.ErrorContains(t, err, "failed to open file")
}

func TestBundleDirectory(t *testing.T) {
	rc := Bundle(t.TempDir())
	defer rc.Close()

	_, err := io.ReadAll(rc)
	assert.ErrorContains(t, err, "not a regular file")
}
