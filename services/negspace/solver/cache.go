// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package solver

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"

	"github.com/AleutianAI/negspace/services/negspace/typemodel"
)

// Cache defaults.
const (
	// DefaultMaxCacheSize is the default maximum number of cached
	// solution sets.
	DefaultMaxCacheSize = 100

	// cacheTTL is how long a cached solution set stays valid.
	cacheTTL = time.Hour
)

// solutionCache maps constraint-list fingerprints to solved value
// sets. Eviction at capacity removes the oldest-inserted entry, not
// the least recently accessed. Entries expire after cacheTTL.
//
// Owned exclusively by one Solver instance; not safe for concurrent
// use, matching the Solver's own contract.
type solutionCache struct {
	maxSize int
	entries map[string]*list.Element
	order   *list.List
}

type cacheEntry struct {
	key      string
	values   []typemodel.Value
	storedAt time.Time
}

func newSolutionCache(maxSize int) *solutionCache {
	if maxSize <= 0 {
		maxSize = DefaultMaxCacheSize
	}
	return &solutionCache{
		maxSize: maxSize,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// get returns the cached values for a key, expiring stale entries.
// Lookups do not refresh insertion order.
func (c *solutionCache) get(key string, now time.Time) ([]typemodel.Value, bool) {
	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)
	if now.Sub(entry.storedAt) > cacheTTL {
		c.order.Remove(elem)
		delete(c.entries, key)
		return nil, false
	}
	return entry.values, true
}

// put stores a solution set, evicting the oldest-inserted entry when
// at capacity.
func (c *solutionCache) put(key string, values []typemodel.Value, now time.Time) {
	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.values = values
		entry.storedAt = now
		return
	}
	if c.order.Len() >= c.maxSize {
		oldest := c.order.Front()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}
	c.entries[key] = c.order.PushBack(&cacheEntry{key: key, values: values, storedAt: now})
}

func (c *solutionCache) len() int {
	return c.order.Len()
}

// =============================================================================
// CACHE KEYS
// =============================================================================

// keyedConstraint projects only the fields relevant to a constraint's
// tag, so noise in the unused fields cannot fragment the cache.
type keyedConstraint struct {
	Tag       string   `json:"tag"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Values    []string `json:"values,omitempty"`
}

// cacheKey derives the deterministic fingerprint of a constraint
// list: tag-relevant projection, canonical JSON, SHA-256 hex.
func cacheKey(constraints []typemodel.Constraint) (string, error) {
	keyed := make([]keyedConstraint, 0, len(constraints))
	for _, c := range constraints {
		k := keyedConstraint{Tag: string(c.Tag)}
		switch c.Tag {
		case typemodel.ConstraintRange:
			k.Min, k.Max = c.Min, c.Max
		case typemodel.ConstraintLength:
			k.MinLength, k.MaxLength = c.MinLength, c.MaxLength
		case typemodel.ConstraintPattern:
			k.Pattern = c.Pattern
		case typemodel.ConstraintEnum:
			for _, v := range c.Values {
				k.Values = append(k.Values, v.String())
			}
		}
		keyed = append(keyed, k)
	}

	raw, err := json.Marshal(keyed)
	if err != nil {
		return "", err
	}
	canonical, err := jsoncanonicalizer.Transform(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
