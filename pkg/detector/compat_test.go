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

package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCompatibleWithRuntime(t *testing.T) {
	tests := []struct {
		name       string
		generation Generation
		installed  string
		want       bool
	}{
		{"v11 on 8.3.40", GenerationV11, "8.3.40", true},
		{"v11 on 8.3.0", GenerationV11, "8.3.0", true},
		{"v11 on 8.3.41", GenerationV11, "8.3.41", false},
		{"v11 on 8.4.0", GenerationV11, "8.4.0", true},
		{"v11 on 8.2.99", GenerationV11, "8.2.99", false},
		{"v11 on 7.9.9", GenerationV11, "7.9.9", false},
		{"v11 on 9.0.0", GenerationV11, "9.0.0", false},
		{"v8 on 8.0.196", GenerationV8, "8.0.196", true},
		{"v5 on 8.3.41", GenerationV5, "8.3.41", true},
		{"v7 on 7.0.0", GenerationV7, "7.0.0", true},
		{"v9 on 8.1.0", GenerationV9, "8.1.0", true},
		{"v12 on 7.9.0", GenerationV12, "7.9.0", false},
		{"v8 on unparsable version", GenerationV8, "8.x", true},
		{"v11 on unparsable version", GenerationV11, "", false},
		{"v10 on unparsable version", GenerationV10, "dev", false},
		{"leading v accepted", GenerationV11, "v8.3.1", true},
		{"v11 on partial version", GenerationV11, "8.3", false},
		{"v11 on major only", GenerationV11, "8", false},
		{"v8 on partial version", GenerationV8, "8.3", true},
		{"v9 on partial version", GenerationV9, "8.3", false},
		{"v11 on four parts", GenerationV11, "8.3.40.1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := &ModelInfo{Version: tt.generation}
			assert.Equal(t, tt.want, IsCompatibleWithRuntime(info, tt.installed))
		})
	}
}

func TestRequiredRuntime(t *testing.T) {
	assert.Equal(t, "8.0.196", RequiredRuntime(GenerationV5))
	assert.Equal(t, "8.3.40", RequiredRuntime(GenerationV11))
	assert.Equal(t, CustomRuntime, RequiredRuntime(GenerationV12))
	assert.Equal(t, "8.0.196", RequiredRuntime(Generation("v99")))
}

func TestCompatibilityMessage(t *testing.T) {
	info := &ModelInfo{Version: GenerationV11, Architecture: "yolo11n", CompatibleRuntime: "8.3.0+"}

	ok, msg := CompatibilityMessage(info, "8.3.40")
	assert.True(t, ok)
	assert.Contains(t, msg, "YOLOv11 (yolo11n)")

	ok, msg = CompatibilityMessage(info, "8.0.196")
	assert.False(t, ok)
	assert.Contains(t, msg, "8.3.40")
}
