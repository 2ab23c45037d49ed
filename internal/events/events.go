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
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// dateLayout names the daily log files.
	dateLayout = "2006-01-02"

	// LatestEvents is the symlink to the most recent events file.
	LatestEvents = "events.jsonl"

	// LatestAppLog is the symlink to the most recent application log.
	LatestAppLog = "app.log"

	// FieldEvent holds the event name in every record.
	FieldEvent = "event"

	// FieldEventID holds a unique id for every record.
	FieldEventID = "event_id"
)

// Emitter accepts named events with a free form payload.
type Emitter interface {
	Emit(event string, fields map[string]any)
}

// Discard drops every event.
var Discard Emitter = discard{}

type discard struct{}

func (discard) Emit(string, map[string]any) {}

// EventsFile returns the events file name for the UTC date of day.
func EventsFile(day time.Time) string {
	return fmt.Sprintf("events-%s.jsonl", day.UTC().Format(dateLayout))
}

// AppLogFile returns the application log file name for the UTC date of day.
func AppLogFile(day time.Time) string {
	return fmt.Sprintf("app-%s.log", day.UTC().Format(dateLayout))
}

// Recorder appends events as JSON lines to a daily file and mirrors them to
// the application log.
type Recorder struct {
	mu     sync.Mutex
	file   *os.File
	logger *logrus.Logger
}

// Open opens the events file of day below logDir and repoints the
// events.jsonl symlink at it.
func Open(logDir string, day time.Time) (*Recorder, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	name := EventsFile(day)
	file, err := os.OpenFile(filepath.Join(logDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open events file: %w", err)
	}

	Link(logDir, name, LatestEvents)

	logger := logrus.New()
	logger.SetOutput(file)
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "ts",
			logrus.FieldKeyMsg:  "message",
		},
	})

	return &Recorder{file: file, logger: logger}, nil
}

// Emit writes one event record.
func (r *Recorder) Emit(event string, fields map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.logger.WithFields(logrus.Fields(fields)).
		WithField(FieldEvent, event).
		WithField(FieldEventID, uuid.NewString()).
		WithTime(time.Now().UTC())
	entry.Info(event)

	payload, err := json.Marshal(fields)
	if err != nil {
		payload = []byte(fmt.Sprintf("%v", fields))
	}
	logrus.Infof("event=%s %s", event, payload)
}

// Close closes the events file.
func (r *Recorder) Close() error {
	return r.file.Close()
}

// Link points the symlink latest in dir at target, best effort.
func Link(dir, target, latest string) {
	path := filepath.Join(dir, latest)
	if _, err := os.Lstat(path); err == nil {
		if err := os.Remove(path); err != nil {
			logrus.Debugf("events: failed to remove %s: %v", path, err)
			return
		}
	}

	if err := os.Symlink(target, path); err != nil {
		logrus.Debugf("events: failed to link %s to %s: %v", path, target, err)
	}
}

// Load reads the recorded events below logDir, newest file first. When date
// (YYYY-MM-DD) is set only that day is read.
func Load(logDir, date string) ([]map[string]any, error) {
	var files []string
	if date != "" {
		files = []string{filepath.Join(logDir, "events-"+date+".jsonl")}
	} else {
		matches, err := filepath.Glob(filepath.Join(logDir, "events-*.jsonl"))
		if err != nil {
			return nil, err
		}
		sort.Sort(sort.Reverse(sort.StringSlice(matches)))
		files = matches
	}

	var records []map[string]any
	for _, file := range files {
		loaded, err := loadFile(file)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}

			logrus.Warnf("events: could not load %s: %v", file, err)
			continue
		}

		records = append(records, loaded...)
	}

	return records, nil
}

func loadFile(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []map[string]any
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record map[string]any
		if err := json.Unmarshal(line, &record); err != nil {
			logrus.Warnf("events: skipping malformed line in %s: %v", path, err)
			continue
		}
		records = append(records, record)
	}

	return records, scanner.Err()
}
