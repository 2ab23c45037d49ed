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
	"errors"
	"strconv"
)

type Link struct {
	Workspace   string
	Project     string
	Version     string
	StorageNote string
	SkipDetect  bool
}

func NewLink() *Link {
	return &Link{
		Workspace:   "",
		Project:     "",
		Version:     "",
		StorageNote: "",
		SkipDetect:  false,
	}
}

func (l *Link) Validate() error {
	if l.Workspace == "" {
		return errors.New("workspace is required")
	}

	if l.Project == "" {
		return errors.New("project is required")
	}

	if l.Version == "" {
		return errors.New("version is required")
	}

	// The catalog addresses versions by number.
	if _, err := strconv.Atoi(l.Version); err != nil {
		return errors.New("version must be a number")
	}

	return nil
}
