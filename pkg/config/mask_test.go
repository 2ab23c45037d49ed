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

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		secret   string
		expected string
	}{
		{secret: "", expected: "<missing>"},
		{secret: "a", expected: "*"},
		{secret: "ab", expected: "**"},
		{secret: "abcd", expected: "****"},
		{secret: "abcde", expected: "ab***de"},
		{secret: "abcdef", expected: "ab***ef"},
		{secret: "rf_live_0123456789", expected: "rf***89"},
		{secret: "ключ", expected: "****"},
		{secret: "ключ-секрет", expected: "кл***ет"},
		{secret: "é1234ü", expected: "é1***4ü"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, MaskSecret(tt.secret), tt.secret)
	}
}
