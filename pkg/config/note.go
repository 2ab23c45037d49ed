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

import "errors"

type Note struct {
	Workspace string
	Project   string
	Version   string
	Metadata  map[string]string
}

func NewNote() *Note {
	return &Note{
		Metadata: map[string]string{},
	}
}

func (n *Note) Validate() error {
	if n.Workspace == "" || n.Project == "" || n.Version == "" {
		return errors.New("workspace, project and version are required")
	}

	return nil
}
