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
	"fmt"

	"golang.org/x/sync/errgroup"
)

// defaultFanOut bounds concurrent version listings when loading a hierarchy.
const defaultFanOut = 4

// ProjectNode is a project with its versions.
type ProjectNode struct {
	Project  Record
	Versions []Record
}

// WorkspaceNode is a workspace with its projects.
type WorkspaceNode struct {
	Workspace Record
	Projects  []*ProjectNode
}

// LoadHierarchy lists every workspace with its projects and their versions.
// Version listings run concurrently, at most fanOut at a time.
func (c *Client) LoadHierarchy(ctx context.Context, fanOut int) ([]*WorkspaceNode, error) {
	if fanOut <= 0 {
		fanOut = defaultFanOut
	}

	workspaces, err := c.ListWorkspaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}

	nodes := make([]*WorkspaceNode, 0, len(workspaces))
	for _, ws := range workspaces {
		slug := ws.String("slug")
		if slug == "" {
			slug = ws.String("id")
		}

		projects, err := c.ListProjects(ctx, slug)
		if err != nil {
			return nil, fmt.Errorf("failed to list projects of %s: %w", slug, err)
		}

		node := &WorkspaceNode{Workspace: ws, Projects: make([]*ProjectNode, len(projects))}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(fanOut)
		for i, p := range projects {
			node.Projects[i] = &ProjectNode{Project: p}
			g.Go(func() error {
				versions, err := c.ListVersions(gctx, slug, projectSlug(p))
				if err != nil {
					return fmt.Errorf("failed to list versions of %s/%s: %w", slug, projectSlug(p), err)
				}

				node.Projects[i].Versions = versions
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}

		nodes = append(nodes, node)
	}

	return nodes, nil
}

// projectSlug returns the url name of a project record. Project ids are
// "workspace/slug".
func projectSlug(p Record) string {
	if s := p.String("slug"); s != "" {
		return s
	}

	id := p.String("id")
	for i := len(id) - 1; i >= 0; i-- {
		if id[i] == '/' {
			return id[i+1:]
		}
	}

	return id
}
