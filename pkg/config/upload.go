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
	"path/filepath"
	"strings"
)

type Upload struct {
	Workspace       string
	Project         string
	TriggerTraining bool
	Description     string
}

func NewUpload() *Upload {
	return &Upload{
		Workspace:       "",
		Project:         "",
		TriggerTraining: false,
		Description:     "",
	}
}

func (u *Upload) Validate() error {
	if u.Workspace == "" {
		return errors.New("workspace is required")
	}

	if u.Project == "" {
		return errors.New("project is required")
	}

	return nil
}

// ValidateArchive checks the dataset archive has a zip extension.
func (u *Upload) ValidateArchive(path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return errors.New("dataset archive must be a .zip file")
	}

	return nil
}
