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

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistory_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(h *History)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*History) {}},
		{name: "zero limit", mutate: func(h *History) { h.Limit = 0 }, wantErr: true},
		{name: "valid date", mutate: func(h *History) { h.Date = "2025-03-14" }},
		{name: "invalid date", mutate: func(h *History) { h.Date = "14/03/2025" }, wantErr: true},
		{name: "glob filter", mutate: func(h *History) { h.Filter = "ext-2025*" }},
		{name: "invalid filter", mutate: func(h *History) { h.Filter = "ext-[" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHistory()
			tt.mutate(h)

			err := h.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHistory_ShowAll(t *testing.T) {
	h := NewHistory()
	assert.True(t, h.ShowAll())

	h.Events = true
	assert.False(t, h.ShowAll())
}
