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
	"sort"
	"time"

	"github.com/modelpack/modlink/pkg/ledger"
)

// Operation is the summary of one manifest.
type Operation struct {
	ID        string
	Mode      string
	Status    string
	Target    string
	WrittenAt time.Time
	Filename  string
	SizeBytes int64
	Deployed  bool
	Error     string
}

// FromManifest summarizes a manifest.
func FromManifest(m ledger.Manifest) Operation {
	op := Operation{
		ID:     m.String(ledger.KeyOperationID),
		Mode:   m.String("mode"),
		Status: m.String("status"),
		Target: m.String("workspace") + "/" + m.String("project"),
	}

	if v := m.String("target_version"); v != "" {
		op.Target += "/v" + v
	}

	if t, err := time.Parse(time.RFC3339Nano, m.String(ledger.KeyWrittenAt)); err == nil {
		op.WrittenAt = t
	}

	if a, ok := m["artifact"].(map[string]any); ok {
		op.Filename, _ = a["filename"].(string)
		if size, ok := a["size_bytes"].(float64); ok {
			op.SizeBytes = int64(size)
		}
	}

	if resp, ok := m["api_response"].(map[string]any); ok {
		op.Deployed = resp["status"] == "deployed"
		op.Error, _ = resp["error"].(string)
	}
	if op.Error == "" {
		op.Error = m.String("error")
	}

	return op
}

// EventCount is the number of occurrences of an event name.
type EventCount struct {
	Event string
	Count int
}

// Stats aggregates manifests and events.
type Stats struct {
	Operations int
	Succeeded  int
	Partial    int
	Pending    int
	Failed     int
	Events     int
	TopEvents  []EventCount
}

// Summarize counts operations by status and the top most frequent events.
func Summarize(manifests []ledger.Manifest, events []map[string]any, top int) *Stats {
	s := &Stats{Operations: len(manifests), Events: len(events)}
	for _, m := range manifests {
		switch m.String("status") {
		case "success":
			s.Succeeded++
		case "partial_success":
			s.Partial++
		case "pending":
			s.Pending++
		default:
			s.Failed++
		}
	}

	counts := map[string]int{}
	for _, e := range events {
		name, _ := e["event"].(string)
		if name == "" {
			name = "other"
		}
		counts[name]++
	}

	for name, n := range counts {
		s.TopEvents = append(s.TopEvents, EventCount{Event: name, Count: n})
	}
	sort.Slice(s.TopEvents, func(i, j int) bool {
		if s.TopEvents[i].Count != s.TopEvents[j].Count {
			return s.TopEvents[i].Count > s.TopEvents[j].Count
		}
		return s.TopEvents[i].Event < s.TopEvents[j].Event
	})
	if top > 0 && len(s.TopEvents) > top {
		s.TopEvents = s.TopEvents[:top]
	}

	return s
}
