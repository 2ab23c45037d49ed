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

package version

import (
	"fmt"
	"runtime"
)

var (
	// GitVersion is the semantic version of modlink, set by ldflags.
	GitVersion = "v1.0.0"

	// GitCommit is the commit modlink was built from.
	GitCommit = "unknown"

	// BuildTime is the time modlink was built at.
	BuildTime = "unknown"

	// Platform is the os/arch modlink runs on.
	Platform = fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
)

// AppName is the human readable name of the tool.
const AppName = "modlink"

// AppVersion returns the version recorded into manifests and events.
func AppVersion() string {
	if len(GitVersion) > 0 && GitVersion[0] == 'v' {
		return GitVersion[1:]
	}

	return GitVersion
}
