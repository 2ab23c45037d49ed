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
	"fmt"
	"strconv"
	"strings"
)

// CustomRuntime marks generations that need a runtime built from a fork.
const CustomRuntime = "custom"

// requiredRuntimes is the runtime release each generation deploys with.
var requiredRuntimes = map[Generation]string{
	GenerationV5:  "8.0.196",
	GenerationV7:  "8.0.196",
	GenerationV8:  "8.0.196",
	GenerationV9:  CustomRuntime,
	GenerationV10: CustomRuntime,
	GenerationV11: "8.3.40",
	GenerationV12: CustomRuntime,
}

// RequiredRuntime returns the runtime release needed to deploy generation.
func RequiredRuntime(generation Generation) string {
	if v, ok := requiredRuntimes[generation]; ok {
		return v
	}

	return requiredRuntimes[GenerationV8]
}

// IsCompatibleWithRuntime reports whether info can be loaded by the
// installed runtime version. The installed version is passed in by the
// caller since it can change between checks.
//
// v11 is accepted on 8.3.x up to 8.3.40 and on any 8.4+ release. The 8.4+
// acceptance is an assumption carried over from the deployment tooling, not
// a verified upstream guarantee.
func IsCompatibleWithRuntime(info *ModelInfo, installed string) bool {
	major, minor, patch, err := parseRuntimeVersion(installed)
	if err != nil {
		return isClassicGeneration(info.Version)
	}

	switch {
	case isClassicGeneration(info.Version):
		return true
	case info.Version == GenerationV11:
		if major != 8 {
			return false
		}
		switch {
		case minor < 3:
			return false
		case minor == 3:
			return patch <= 40
		default:
			return true
		}
	default:
		return major >= 8
	}
}

// CompatibilityMessage explains the compatibility of info with installed.
func CompatibilityMessage(info *ModelInfo, installed string) (bool, string) {
	if IsCompatibleWithRuntime(info, installed) {
		return true, fmt.Sprintf("%s is compatible with runtime %s", info.DisplayName(), installed)
	}

	return false, fmt.Sprintf(
		"%s requires runtime %s (deploys with %s), installed runtime is %s; train with the catalog service, run inference locally or convert the model to v8",
		info.DisplayName(), info.CompatibleRuntime, RequiredRuntime(info.Version), installed,
	)
}

func isClassicGeneration(g Generation) bool {
	return g == GenerationV5 || g == GenerationV7 || g == GenerationV8
}

// parseRuntimeVersion parses a full "major.minor.patch" release. Partial
// versions such as "8.3" are rejected rather than padded.
func parseRuntimeVersion(v string) (major, minor, patch int, err error) {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if v == "" {
		return 0, 0, 0, fmt.Errorf("empty runtime version")
	}

	parts := strings.Split(v, ".")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid runtime version %q", v)
	}

	nums := [3]int{}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid runtime version %q: %w", v, err)
		}
		nums[i] = n
	}

	return nums[0], nums[1], nums[2], nil
}
