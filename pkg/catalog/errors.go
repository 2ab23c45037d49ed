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

package catalog

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnsupported is returned by operations the catalog client does not
// implement yet. Callers treat it as a pending outcome, not a failure.
var ErrUnsupported = errors.New("operation is not supported by the catalog client")

// Error is returned for every failed catalog call. StatusCode is 0 when the
// request never got a response.
type Error struct {
	StatusCode int
	Message    string
	Payload    map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("catalog API error %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is a catalog Error with the given status code.
func IsStatus(err error, code int) bool {
	var e *Error
	return errors.As(err, &e) && e.StatusCode == code
}

// IsTransport reports whether err is a catalog Error without an HTTP response.
func IsTransport(err error) bool {
	return IsStatus(err, 0)
}

func missingKey() *Error {
	return &Error{StatusCode: http.StatusUnauthorized, Message: "missing API key"}
}
