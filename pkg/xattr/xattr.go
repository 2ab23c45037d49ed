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

package xattr

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

const (
	// Prefix is required by Linux for user-space attributes.
	Prefix = "user."

	// Namespace scopes every modlink attribute.
	Namespace = "modlink"
)

var (
	// KeySha256 holds the hex sha256 of the file content.
	KeySha256 = MakeKey(Namespace, "sha256")

	// KeySize holds the size the digest was computed over.
	KeySize = MakeKey(Namespace, "size")

	// KeyOperation holds the operation id that stored the file.
	KeyOperation = MakeKey(Namespace, "operation")
)

// Get retrieves an xattr value for a given key.
func Get(path, key string) ([]byte, error) {
	sz, err := unix.Getxattr(path, key, nil)
	if err != nil {
		return nil, err
	}

	value := make([]byte, sz)
	n, err := unix.Getxattr(path, key, value)
	if err != nil {
		return nil, err
	}

	return value[:n], nil
}

// Set sets an xattr value for a given key.
func Set(path, key string, value []byte) error {
	return unix.Setxattr(path, key, value, 0)
}

// MakeKey creates a fully-qualified xattr key with the user prefix.
func MakeKey(parts ...string) string {
	return Prefix + strings.Join(parts, ".")
}

// Stamp records the digest of a stored file next to its content.
func Stamp(path, sha256 string, size int64, operationID string) error {
	attrs := map[string]string{
		KeySha256: sha256,
		KeySize:   strconv.FormatInt(size, 10),
	}
	if operationID != "" {
		attrs[KeyOperation] = operationID
	}

	for key, value := range attrs {
		if err := Set(path, key, []byte(value)); err != nil {
			return fmt.Errorf("set %s on %s: %w", key, path, err)
		}
	}

	return nil
}

// StampedDigest returns the digest stamped on path if it was computed over
// the current size of the file.
func StampedDigest(path string, size int64) (string, bool) {
	digest, err := Get(path, KeySha256)
	if err != nil {
		return "", false
	}

	stampedSize, err := Get(path, KeySize)
	if err != nil || string(stampedSize) != strconv.FormatInt(size, 10) {
		return "", false
	}

	return string(digest), true
}
