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
	"fmt"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

type History struct {
	Manifests bool
	Events    bool
	Stats     bool
	Limit     int
	Date      string
	Filter    string
}

func NewHistory() *History {
	return &History{
		Limit:  50,
		Filter: "*",
	}
}

func (h *History) Validate() error {
	if h.Limit <= 0 {
		return errors.New("limit must be greater than 0")
	}

	if h.Date != "" {
		if _, err := time.Parse("2006-01-02", h.Date); err != nil {
			return fmt.Errorf("date must be formatted as YYYY-MM-DD: %w", err)
		}
	}

	if !doublestar.ValidatePattern(h.Filter) {
		return fmt.Errorf("invalid filter pattern %q", h.Filter)
	}

	return nil
}

// ShowAll reports whether no section was selected, in which case every
// section is shown.
func (h *History) ShowAll() bool {
	return !h.Manifests && !h.Events && !h.Stats
}
