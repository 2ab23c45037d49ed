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

import "strings"

// Generation is the architecture generation of a detected model.
type Generation string

const (
	GenerationV5  Generation = "v5"
	GenerationV7  Generation = "v7"
	GenerationV8  Generation = "v8"
	GenerationV9  Generation = "v9"
	GenerationV10 Generation = "v10"
	GenerationV11 Generation = "v11"
	GenerationV12 Generation = "v12"
)

// ModelTypeYOLO is the only model family currently recognised.
const ModelTypeYOLO = "yolo"

// familyRule maps architecture markers found in a checkpoint config to a family.
type familyRule struct {
	match      func(config string) bool
	generation Generation
	tag        string
	runtime    string
}

// familyRules are evaluated in order, the first match wins.
var familyRules = []familyRule{
	{
		match:      containsAny("C3k2", "C2PSA"),
		generation: GenerationV11,
		tag:        "yolo11",
		runtime:    "8.3.0+",
	},
	{
		match:      containsAny("C2f"),
		generation: GenerationV8,
		tag:        "yolov8",
		runtime:    "8.0.196",
	},
	{
		match: func(config string) bool {
			return strings.Contains(config, "C3") && !strings.Contains(config, "C3k")
		},
		generation: GenerationV5,
		tag:        "yolov5",
		runtime:    "8.0.196",
	},
}

// defaultFamily is used when no family rule matches.
var defaultFamily = familyRule{
	generation: GenerationV8,
	tag:        "yolov8",
	runtime:    "8.0.196",
}

// v11Family is used by the fallback paths.
var v11Family = familyRules[0]

// architectureModules are reported in metadata when present in the config.
var architectureModules = []string{"C3k2", "C2PSA", "C2f", "C3", "SPPF", "SPP"}

// v11ErrorMarkers in a load error mean the checkpoint references modules only
// v11 runtimes know about.
var v11ErrorMarkers = []string{"C3k2", "C2PSA"}

// v11NameMarkers in a file name suggest a v11 checkpoint.
var v11NameMarkers = []string{"yolo11", "v11", "11"}

// sizeRule maps file name substrings to a model size suffix.
type sizeRule struct {
	markers []string
	size    string
}

// sizeRules are matched against the lowercased file stem in order. Single
// letters match anywhere in the name, so "best" resolves to "s".
var sizeRules = []sizeRule{
	{markers: []string{"n", "nano"}, size: "n"},
	{markers: []string{"l", "large"}, size: "l"},
	{markers: []string{"m", "medium"}, size: "m"},
	{markers: []string{"s", "small"}, size: "s"},
	{markers: []string{"x", "xlarge"}, size: "x"},
}

const defaultSize = "n"

func containsAny(markers ...string) func(string) bool {
	return func(s string) bool {
		for _, m := range markers {
			if strings.Contains(s, m) {
				return true
			}
		}

		return false
	}
}

func matchFamily(config string) (familyRule, bool) {
	for _, rule := range familyRules {
		if rule.match(config) {
			return rule, true
		}
	}

	return defaultFamily, false
}

func matchSize(stem string) string {
	stem = strings.ToLower(stem)
	for _, rule := range sizeRules {
		if containsAny(rule.markers...)(stem) {
			return rule.size
		}
	}

	return defaultSize
}
