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

package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/modelpack/modlink/internal/events"
	"github.com/modelpack/modlink/pkg/artifact"
	"github.com/modelpack/modlink/pkg/catalog"
	"github.com/modelpack/modlink/pkg/config"
	"github.com/modelpack/modlink/pkg/ledger"
	"github.com/modelpack/modlink/pkg/uploader"
)

// emitter returns the events recorder of the running command.
func emitter() events.Emitter {
	if recorder == nil {
		return events.Discard
	}

	return recorder
}

// newCatalog creates the catalog client from the root configuration.
func newCatalog() *catalog.Client {
	opts := []catalog.Option{catalog.WithEmitter(emitter())}
	if rootConfig.APIURL != "" {
		opts = append(opts, catalog.WithBaseURL(rootConfig.APIURL))
	}

	if rootConfig.APIKey == "" {
		logrus.Warnf("no API key configured, set %s to reach the catalog", config.EnvAPIKey)
	}

	return catalog.New(rootConfig.APIKey, opts...)
}

// newStore creates the artifact store, mirroring to S3 when a bucket is set.
func newStore(ctx context.Context) (*artifact.Store, error) {
	opts := []artifact.Option{artifact.WithProgress(!rootConfig.NoProgress)}
	if rootConfig.MirrorBucket != "" {
		mirror, err := artifact.NewS3Mirror(ctx, rootConfig.MirrorBucket, rootConfig.MirrorPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to configure artifact mirror: %w", err)
		}

		opts = append(opts, artifact.WithMirror(mirror))
	}

	return artifact.NewStore(rootConfig.ArtifactsDir, opts...), nil
}

// newUploader wires the uploader to the catalog, artifact store and ledger.
func newUploader(ctx context.Context) (*uploader.Uploader, error) {
	store, err := newStore(ctx)
	if err != nil {
		return nil, err
	}

	return uploader.New(newCatalog(), store, ledger.New(rootConfig.ManifestsDir),
		uploader.WithEmitter(emitter()),
		uploader.WithRuntimeVersion(rootConfig.RuntimeVersion),
	), nil
}
