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
	"context"

	"github.com/stretchr/testify/mock"

	api "github.com/modelpack/modlink/pkg/catalog"
)

// Catalog is a mock of the catalog operations used by the uploader.
type Catalog struct {
	mock.Mock
}

// NewCatalog creates a mock that asserts its expectations when the test ends.
func NewCatalog(t interface {
	mock.TestingT
	Cleanup(func())
}) *Catalog {
	m := &Catalog{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// DeployModel provides a mock function with given fields: ctx, workspace, project, version, modelPath, modelType
func (_m *Catalog) DeployModel(ctx context.Context, workspace, project, version, modelPath, modelType string) (api.Record, error) {
	ret := _m.Called(ctx, workspace, project, version, modelPath, modelType)

	if len(ret) == 0 {
		panic("no return value specified for DeployModel")
	}

	return record(ret, 0), ret.Error(1)
}

// UploadDataset provides a mock function with given fields: ctx, workspace, project, archivePath, description
func (_m *Catalog) UploadDataset(ctx context.Context, workspace, project, archivePath, description string) (api.Record, error) {
	ret := _m.Called(ctx, workspace, project, archivePath, description)

	if len(ret) == 0 {
		panic("no return value specified for UploadDataset")
	}

	return record(ret, 0), ret.Error(1)
}

// TriggerTraining provides a mock function with given fields: ctx, workspace, project, version
func (_m *Catalog) TriggerTraining(ctx context.Context, workspace, project, version string) (api.Record, error) {
	ret := _m.Called(ctx, workspace, project, version)

	if len(ret) == 0 {
		panic("no return value specified for TriggerTraining")
	}

	return record(ret, 0), ret.Error(1)
}

func record(ret mock.Arguments, i int) api.Record {
	switch v := ret.Get(i).(type) {
	case api.Record:
		return v
	case map[string]any:
		return api.Record(v)
	}

	return nil
}
