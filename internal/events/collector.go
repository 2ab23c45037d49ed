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

import "sync"

// Record is one event captured by a Collector.
type Record struct {
	Event  string
	Fields map[string]any
}

// Collector keeps events in memory.
type Collector struct {
	mu      sync.Mutex
	records []Record
}

// Emit stores the event.
func (c *Collector) Emit(event string, fields map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records = append(c.records, Record{Event: event, Fields: fields})
}

// Records returns the stored events in emit order.
func (c *Collector) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]Record(nil), c.records...)
}

// Names returns the stored event names in emit order.
func (c *Collector) Names() []string {
	records := c.Records()
	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Event)
	}

	return names
}

// Find returns the first stored event named event.
func (c *Collector) Find(event string) (Record, bool) {
	for _, r := range c.Records() {
		if r.Event == event {
			return r, true
		}
	}

	return Record{}, false
}
