// Copyright (c) 2025 SWIFT FIN Connector Authors
// SPDX-License-Identifier: BSD-2-Clause

// Package screening checks payment parties against sanctions and
// reference lists before a message reaches the wire. A screening hit
// is treated as terminal by the enforcement layer.
package screening

import (
	"context"
	"strings"
)

// Match names one listed party found during screening.
type Match struct {
	Party  string `json:"party"`
	List   string `json:"list,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Result is the outcome of screening a set of parties.
type Result struct {
	Hit     bool    `json:"hit"`
	Matches []Match `json:"matches,omitempty"`
}

// Screener checks parties against a screening source.
type Screener interface {
	Screen(ctx context.Context, parties ...string) (*Result, error)
}

// StaticScreener screens against a fixed in-memory list. A party hits
// when it contains a listed name, compared case-insensitively. Useful
// for tests and for small locally maintained deny lists.
type StaticScreener struct {
	entries []string
	label   string
}

// NewStaticScreener builds a screener over the given listed names.
func NewStaticScreener(entries ...string) *StaticScreener {
	normalized := make([]string, 0, len(entries))
	for _, e := range entries {
		e = strings.ToUpper(strings.TrimSpace(e))
		if e != "" {
			normalized = append(normalized, e)
		}
	}
	return &StaticScreener{entries: normalized, label: "static"}
}

// Screen checks each party against the list.
func (s *StaticScreener) Screen(_ context.Context, parties ...string) (*Result, error) {
	res := &Result{}
	for _, party := range parties {
		up := strings.ToUpper(party)
		for _, entry := range s.entries {
			if strings.Contains(up, entry) {
				res.Hit = true
				res.Matches = append(res.Matches, Match{
					Party:  party,
					List:   s.label,
					Detail: entry,
				})
				break
			}
		}
	}
	return res, nil
}
