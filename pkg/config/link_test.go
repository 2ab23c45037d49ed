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
)

func TestNewLink(t *testing.T) {
	link := NewLink()
	if link.Workspace != "" || link.Project != "" || link.Version != "" {
		t.Errorf("expected empty target, got %s/%s/%s", link.Workspace, link.Project, link.Version)
	}
	if link.SkipDetect {
		t.Errorf("expected SkipDetect to be false, got %v", link.SkipDetect)
	}
}

func TestLink_Validate(t *testing.T) {
	tests := []struct {
		name    string
		link    *Link
		wantErr bool
		errMsg  string
	}{
		{
			name:    "missing workspace",
			link:    &Link{Project: "p1", Version: "3"},
			wantErr: true,
			errMsg:  "workspace is required",
		},
		{
			name:    "missing project",
			link:    &Link{Workspace: "ws1", Version: "3"},
			wantErr: true,
			errMsg:  "project is required",
		},
		{
			name:    "missing version",
			link:    &Link{Workspace: "ws1", Project: "p1"},
			wantErr: true,
			errMsg:  "version is required",
		},
		{
			name:    "non numeric version",
			link:    &Link{Workspace: "ws1", Project: "p1", Version: "latest"},
			wantErr: true,
			errMsg:  "version must be a number",
		},
		{
			name:    "valid link",
			link:    &Link{Workspace: "ws1", Project: "p1", Version: "3"},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.link.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil && err.Error() != tt.errMsg {
				t.Errorf("Validate() error message = %v, want %v", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestUpload_Validate(t *testing.T) {
	upload := NewUpload()
	if err := upload.Validate(); err == nil {
		t.Error("expected error for empty upload target")
	}

	upload.Workspace, upload.Project = "ws1", "p1"
	if err := upload.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	if err := upload.ValidateArchive("export.ZIP"); err != nil {
		t.Errorf("ValidateArchive() error = %v", err)
	}
	if err := upload.ValidateArchive("export.tar.gz"); err == nil {
		t.Error("expected error for non zip archive")
	}
}

func TestNote_Validate(t *testing.T) {
	note := NewNote()
	if err := note.Validate(); err == nil {
		t.Error("expected error for empty note target")
	}

	note.Workspace, note.Project, note.Version = "ws1", "p1", "3"
	if err := note.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestDetect_Validate(t *testing.T) {
	detect := NewDetect()
	if err := detect.Validate(); err == nil {
		t.Error("expected error for missing runtime version")
	}

	detect.RuntimeVersion = "8.3.40"
	if err := detect.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}
