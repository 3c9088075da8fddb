// Copyright 2026 The Crewdesk Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rbac

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/crewdesk/crewdesk/internal/module"
)

// grantCache is a short-lived read cache for the grant table, keyed by
// (tenant, role). Entries expire on their own; SetPermissions and role
// deletion invalidate explicitly so stale grants are never served past
// an administrative change.
type grantCache struct {
	lru *expirable.LRU[string, map[module.Module]Grant]
}

const (
	grantCacheSize = 1024
	grantCacheTTL  = 30 * time.Second
)

func newGrantCache() *grantCache {
	return &grantCache{
		lru: expirable.NewLRU[string, map[module.Module]Grant](grantCacheSize, nil, grantCacheTTL),
	}
}

func grantCacheKey(tenantID, roleID string) string {
	return tenantID + "/" + roleID
}

func (c *grantCache) get(tenantID, roleID string) (map[module.Module]Grant, bool) {
	return c.lru.Get(grantCacheKey(tenantID, roleID))
}

func (c *grantCache) put(tenantID, roleID string, grants map[module.Module]Grant) {
	c.lru.Add(grantCacheKey(tenantID, roleID), grants)
}

func (c *grantCache) invalidate(tenantID, roleID string) {
	c.lru.Remove(grantCacheKey(tenantID, roleID))
}
