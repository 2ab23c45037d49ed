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

package artifact

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	sha256 "github.com/minio/sha256-simd"
	godigest "github.com/opencontainers/go-digest"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/sirupsen/logrus"

	internalpb "github.com/modelpack/modlink/internal/pb"
	"github.com/modelpack/modlink/pkg/xattr"
)

const (
	// lockDirName holds the per-artifact lock files next to the store
	// directory, keeping the store itself flat.
	lockDirName = ".locks"

	// lockRetryDelay is the delay between attempts to take an artifact lock.
	lockRetryDelay = 100 * time.Millisecond
)

// Artifact is a stored, hashed copy of an uploaded file.
type Artifact struct {
	Filename   string    `json:"filename"`
	SHA256     string    `json:"sha256"`
	SizeBytes  int64     `json:"size_bytes"`
	StorageURL string    `json:"storage_url"`
	Mirror     *Mirrored `json:"mirror,omitempty"`
}

// Mirrored records the outcome of copying an artifact off-site.
type Mirrored struct {
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
}

// Digest returns the content digest of the artifact.
func (a *Artifact) Digest() godigest.Digest {
	return godigest.NewDigestFromEncoded(godigest.SHA256, a.SHA256)
}

// Mirror copies a stored artifact to secondary storage.
type Mirror interface {
	Mirror(ctx context.Context, path string, artifact *Artifact) (string, error)
}

// Store keeps hashed copies of artifacts in a flat directory, named like
// their source files.
type Store struct {
	dir      string
	lockDir  string
	mirror   Mirror
	progress bool
}

// Option configures a Store.
type Option func(*Store)

// WithMirror mirrors every stored artifact with m.
func WithMirror(m Mirror) Option {
	return func(s *Store) {
		s.mirror = m
	}
}

// WithProgress renders a progress bar while copying.
func WithProgress(enabled bool) Option {
	return func(s *Store) {
		s.progress = enabled
	}
}

// WithLockDir keeps the artifact lock files in dir.
func WithLockDir(dir string) Option {
	return func(s *Store) {
		s.lockDir = dir
	}
}

// NewStore creates a store rooted at dir. Lock files default to a .locks
// directory beside it.
func NewStore(dir string, opts ...Option) *Store {
	s := &Store{dir: dir, lockDir: filepath.Join(filepath.Dir(filepath.Clean(dir)), lockDirName)}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Put copies src into the store, overwriting a previous copy of the same
// name, and hashes the copy. The digest certifies the retained copy rather
// than the source. operationID is stamped on the copy when set.
func (s *Store) Put(ctx context.Context, src, operationID string) (*Artifact, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("failed to stat source file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("source %s is a directory", src)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifacts directory: %w", err)
	}
	if err := os.MkdirAll(s.lockDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	name := filepath.Base(src)
	dest := filepath.Join(s.dir, name)

	lock := flock.New(filepath.Join(s.lockDir, name+".lock"))
	if _, err := lock.TryLockContext(ctx, lockRetryDelay); err != nil {
		return nil, fmt.Errorf("failed to lock artifact %s: %w", name, err)
	}
	defer lock.Unlock()

	if err := s.ensureSpace(dest, info.Size()); err != nil {
		return nil, err
	}

	copied, err := s.copy(src, dest, info)
	if err != nil {
		return nil, err
	}

	digest, size, err := s.digest(dest, copied, info.Size())
	if err != nil {
		return nil, err
	}

	if err := xattr.Stamp(dest, digest, size, operationID); err != nil {
		logrus.Warnf("artifact: failed to stamp digest on %s: %v", dest, err)
	}

	artifact := &Artifact{
		Filename:   name,
		SHA256:     digest,
		SizeBytes:  size,
		StorageURL: fileURL(dest),
	}
	logrus.Infof("artifact: stored %s [sha256: %s, size: %d]", dest, digest, size)

	if s.mirror != nil {
		artifact.Mirror = &Mirrored{}
		location, err := s.mirror.Mirror(ctx, dest, artifact)
		if err != nil {
			logrus.Warnf("artifact: failed to mirror %s: %v", name, err)
			artifact.Mirror.Error = err.Error()
		} else {
			artifact.Mirror.URL = location
		}
	}

	return artifact, nil
}

// copy copies src to dest keeping the source modification time. It reports
// false when src already is the stored file.
func (s *Store) copy(src, dest string, info os.FileInfo) (bool, error) {
	if destInfo, err := os.Stat(dest); err == nil && os.SameFile(info, destInfo) {
		logrus.Infof("artifact: %s is already stored", dest)
		return false, nil
	}

	in, err := os.Open(src)
	if err != nil {
		return false, fmt.Errorf("failed to open source file: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return false, fmt.Errorf("failed to create artifact file: %w", err)
	}

	var reader io.Reader = in
	var pb *internalpb.ProgressBar
	if s.progress {
		pb = internalpb.NewProgressBar()
		defer pb.Stop()
		reader = pb.Track("Storing", info.Name(), info.Size(), in)
	}

	if _, err := io.Copy(out, reader); err != nil {
		if pb != nil {
			pb.Abort(info.Name())
		}
		out.Close()
		return true, fmt.Errorf("failed to copy %s: %w", src, err)
	}

	if err := out.Close(); err != nil {
		return true, fmt.Errorf("failed to close artifact file: %w", err)
	}

	return true, os.Chtimes(dest, info.ModTime(), info.ModTime())
}

// digest returns the sha256 and size of the stored file at dest. A file that
// was not copied reuses its stamped digest when the size still matches.
func (s *Store) digest(dest string, copied bool, size int64) (string, int64, error) {
	if !copied {
		if digest, ok := xattr.StampedDigest(dest, size); ok {
			logrus.Debugf("artifact: reusing stamped digest of %s", dest)
			return digest, size, nil
		}
	}

	return HashFile(dest)
}

// ensureSpace fails when the filesystem of the store cannot hold size bytes.
func (s *Store) ensureSpace(dest string, size int64) error {
	usage, err := disk.Usage(s.dir)
	if err != nil {
		logrus.Warnf("artifact: failed to read disk usage of %s: %v", s.dir, err)
		return nil
	}

	// An overwritten copy gives its space back.
	free := usage.Free
	if existing, err := os.Stat(dest); err == nil {
		free += uint64(existing.Size())
	}

	if uint64(size) > free {
		return fmt.Errorf("insufficient space in %s: need %d bytes, %d available", s.dir, size, free)
	}

	return nil
}

// HashFile returns the lowercase hex sha256 and size of the file at path.
func HashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open %s for hashing: %w", path, err)
	}
	defer f.Close()

	hash := sha256.New()
	size, err := io.Copy(hash, f)
	if err != nil {
		return "", 0, fmt.Errorf("failed to hash %s: %w", path, err)
	}

	return fmt.Sprintf("%x", hash.Sum(nil)), size, nil
}

func fileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}
