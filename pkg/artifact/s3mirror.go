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
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	humanize "github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// mirrorPartSize is the multipart chunk size used for mirror uploads.
const mirrorPartSize = 16 * humanize.MiByte

// s3Uploader is the part of manager.Uploader the mirror needs.
type s3Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Mirror copies stored artifacts to an S3 bucket under a key prefix.
type S3Mirror struct {
	bucket   string
	prefix   string
	uploader s3Uploader
}

// NewS3Mirror creates a mirror using the default AWS credential chain.
func NewS3Mirror(ctx context.Context, bucket, prefix string) (*S3Mirror, error) {
	if bucket == "" {
		return nil, fmt.Errorf("mirror bucket is required")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logrus.Infof("artifact: mirroring to s3://%s/%s [region: %s]", bucket, prefix, cfg.Region)
	uploader := manager.NewUploader(s3.NewFromConfig(cfg), func(u *manager.Uploader) {
		u.PartSize = mirrorPartSize
	})

	return &S3Mirror{bucket: bucket, prefix: prefix, uploader: uploader}, nil
}

// Key returns the object key of an artifact file name.
func (m *S3Mirror) Key(filename string) string {
	return path.Join(strings.Trim(m.prefix, "/"), filename)
}

// Mirror uploads the stored copy at path and returns its s3:// location.
func (m *S3Mirror) Mirror(ctx context.Context, filePath string, artifact *Artifact) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	defer f.Close()

	key := m.Key(artifact.Filename)
	if _, err := m.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
		Body:   f,
		Metadata: map[string]string{
			"sha256": artifact.SHA256,
		},
	}); err != nil {
		return "", fmt.Errorf("failed to upload %s to s3://%s/%s: %w", artifact.Filename, m.bucket, key, err)
	}

	return fmt.Sprintf("s3://%s/%s", m.bucket, key), nil
}
