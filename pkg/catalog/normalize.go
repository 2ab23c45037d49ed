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
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// keyedRecord builds a record from an entry of a slug-keyed object.
type keyedRecord func(key string, value any) Record

// itemRecord builds a record from the index-th entry of a list. It reports
// false for entries that should be skipped.
type itemRecord func(index int, value any) (Record, bool)

// normalizeCollection turns a collection that is either a key-ordered object
// or a list into records. Object keys keep the server's order.
func normalizeCollection(raw json.RawMessage, keyed keyedRecord, item itemRecord) ([]Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []Record{}, nil
	}

	records := []Record{}
	switch trimmed[0] {
	case '{':
		m, err := decodeOrdered(trimmed)
		if err != nil {
			return nil, fmt.Errorf("failed to decode keyed collection: %w", err)
		}
		m.Each(func(key, value any) {
			records = append(records, keyed(fmt.Sprint(key), value))
		})
	case '[':
		var items []any
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("failed to decode list collection: %w", err)
		}
		for i, v := range items {
			if r, ok := item(i, v); ok {
				records = append(records, r)
			}
		}
	}

	return records, nil
}

// decodeOrdered decodes a JSON object into a map that iterates its keys in
// document order.
func decodeOrdered(raw []byte) (*linkedhashmap.Map, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil {
		return nil, err
	} else if tok != json.Delim('{') {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	m := linkedhashmap.New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("failed to decode value of %q: %w", key, err)
		}
		m.Put(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return m, nil
}

// merge returns defaults overlaid with the fields of value when value is an
// object.
func merge(defaults Record, value any) Record {
	out := Record{}
	for k, v := range defaults {
		out[k] = v
	}
	if obj, ok := value.(map[string]any); ok {
		for k, v := range obj {
			out[k] = v
		}
	}

	return out
}

// named sets the name of r to the scalar value of a keyed entry.
func named(r Record, value any) Record {
	if value == nil {
		return r
	}
	if _, ok := value.(map[string]any); !ok {
		r["name"] = fmt.Sprint(value)
	}

	return r
}

// ensureID sets the id of r to the first non-empty candidate when missing.
func ensureID(r Record, candidates ...string) Record {
	if id, ok := r["id"]; ok && id != nil && fmt.Sprint(id) != "" {
		return r
	}
	for _, c := range candidates {
		if c != "" {
			r["id"] = c
			return r
		}
	}

	return r
}

func workspaceRecords(body map[string]json.RawMessage) ([]Record, error) {
	var slug string
	if raw, ok := body["workspace"]; ok && json.Unmarshal(raw, &slug) == nil && slug != "" {
		return []Record{{"id": slug, "slug": slug, "name": slug}}, nil
	}

	return normalizeCollection(body["workspaces"],
		func(key string, value any) Record {
			r := named(merge(Record{"slug": key}, value), value)
			return ensureID(r, key)
		},
		func(i int, value any) (Record, bool) {
			switch v := value.(type) {
			case string:
				return Record{"id": v, "slug": v, "name": v}, true
			case map[string]any:
				r := merge(nil, v)
				return ensureID(r, r.String("slug"), r.String("url"), r.String("name"), fmt.Sprintf("workspace-%d", i)), true
			}
			return nil, false
		})
}

func projectRecords(workspace string, body map[string]json.RawMessage) ([]Record, error) {
	raw := body["projects"]
	if ws, ok := body["workspace"]; ok {
		var nested map[string]json.RawMessage
		if json.Unmarshal(ws, &nested) == nil {
			if p, ok := nested["projects"]; ok && !isEmptyJSON(p) {
				raw = p
			}
		}
	}

	prefix := workspace + "/"
	return normalizeCollection(raw,
		func(key string, value any) Record {
			r := named(merge(Record{"slug": key}, value), value)
			return ensureID(r, prefix+key)
		},
		func(i int, value any) (Record, bool) {
			switch v := value.(type) {
			case string:
				return Record{"id": prefix + v, "slug": v, "name": v}, true
			case map[string]any:
				r := merge(nil, v)
				return ensureID(r, withPrefix(prefix, r.String("slug")), withPrefix(prefix, r.String("name")), fmt.Sprintf("%s%d", prefix, i)), true
			}
			return nil, false
		})
}

func versionRecords(workspace, project string, body map[string]json.RawMessage) ([]Record, error) {
	prefix := workspace + "/" + project + "/"
	return normalizeCollection(body["versions"],
		func(key string, value any) Record {
			return named(merge(Record{"id": key, "version": key}, value), value)
		},
		func(i int, value any) (Record, bool) {
			obj, ok := value.(map[string]any)
			if !ok {
				return nil, false
			}
			r := merge(nil, obj)
			if id := r.String("id"); id != "" {
				if _, ok := r["version"]; !ok {
					r["version"] = id[strings.LastIndex(id, "/")+1:]
				}
			}
			return ensureID(r, withPrefix(prefix, fmt.Sprint(valueOr(r["version"], ""))), fmt.Sprintf("%s%d", prefix, i)), true
		})
}

func withPrefix(prefix, s string) string {
	if s == "" {
		return ""
	}

	return prefix + s
}

func valueOr(v, fallback any) any {
	if v == nil {
		return fallback
	}

	return v
}

func isEmptyJSON(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "[]", "{}":
		return true
	}

	return false
}
