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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"

	"github.com/modelpack/modlink/pkg/version"
)

const (
	// KeyOperationID is the manifest key holding the operation id.
	KeyOperationID = "op_id"

	// KeyAppVersion is the manifest key holding the modlink version.
	KeyAppVersion = "app_version"

	// KeyWrittenAt is the manifest key holding the UTC write time.
	KeyWrittenAt = "written_at"

	// operationIDLayout is the UTC timestamp layout inside operation ids.
	operationIDLayout = "20060102-150405"

	manifestExt = ".json"
)

// ErrNotFound is returned when no manifest exists for an operation id.
var ErrNotFound = errors.New("manifest not found")

// Manifest is one decoded operation document.
type Manifest map[string]any

// String returns the string value stored under key, or "".
func (m Manifest) String(key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}

	return ""
}

// Ledger is an append-only directory of operation manifests.
type Ledger struct {
	dir string
	now func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the clock used for operation ids and write times.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// New creates a ledger rooted at dir.
func New(dir string, opts ...Option) *Ledger {
	l := &Ledger{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Dir returns the manifests directory.
func (l *Ledger) Dir() string {
	return l.dir
}

// NewOperationID returns a sortable id of the form {prefix}-{YYYYMMDD-HHMMSS}.
// Ids only have second granularity, a second operation with the same prefix
// in the same second overwrites the first manifest.
func (l *Ledger) NewOperationID(prefix string) string {
	return prefix + "-" + l.now().UTC().Format(operationIDLayout)
}

// Path returns the manifest path for an operation id.
func (l *Ledger) Path(operationID string) string {
	return filepath.Join(l.dir, operationID+manifestExt)
}

// Write merges the ledger header with payload and writes it as pretty JSON
// to {dir}/{operationID}.json. Concurrent writes to the same id are last
// write wins.
func (l *Ledger) Write(operationID string, payload map[string]any) (string, error) {
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create manifests directory: %w", err)
	}

	document := make(map[string]any, len(payload)+3)
	document[KeyOperationID] = operationID
	document[KeyAppVersion] = version.AppVersion()
	document[KeyWrittenAt] = l.now().UTC().Format(time.RFC3339Nano)
	for k, v := range payload {
		document[k] = v
	}

	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest %s: %w", operationID, err)
	}

	path := l.Path(operationID)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest %s: %w", path, err)
	}

	logrus.Infof("ledger: manifest written to %s", path)
	return path, nil
}

// Read loads the manifest of an operation.
func (l *Ledger) Read(operationID string) (Manifest, error) {
	return ReadFile(l.Path(operationID))
}

// List returns the manifests whose file names match pattern, newest first.
// Unreadable manifests are skipped with a warning.
func (l *Ledger) List(pattern string) ([]Manifest, error) {
	if pattern == "" {
		pattern = "*"
	}

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != manifestExt {
			continue
		}

		ok, err := doublestar.Match(pattern, strings.TrimSuffix(name, manifestExt))
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if ok {
			names = append(names, name)
		}
	}

	// Operation ids embed a UTC timestamp after the prefix.
	sort.SliceStable(names, func(i, j int) bool {
		return idTimestamp(names[i]) > idTimestamp(names[j])
	})

	manifests := make([]Manifest, 0, len(names))
	for _, name := range names {
		manifest, err := ReadFile(filepath.Join(l.dir, name))
		if err != nil {
			logrus.Warnf("ledger: skipping unreadable manifest %s: %v", name, err)
			continue
		}

		manifests = append(manifests, manifest)
	}

	return manifests, nil
}

// ReadFile decodes a manifest file.
func ReadFile(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}

		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, err)
	}

	return manifest, nil
}

// GenerateOperationID returns an operation id stamped with the current UTC time.
func GenerateOperationID(prefix string) string {
	return New("").NewOperationID(prefix)
}

// WriteManifest writes payload as the manifest of operationID below dir.
func WriteManifest(dir, operationID string, payload map[string]any) (string, error) {
	return New(dir).Write(operationID, payload)
}

func idTimestamp(name string) string {
	name = strings.TrimSuffix(name, manifestExt)
	if i := strings.Index(name, "-"); i >= 0 {
		return name[i+1:]
	}

	return name
}
