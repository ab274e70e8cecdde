// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package query parses optional URL query parameters used by list filters.
package query

import (
	"strconv"
	"strings"
)

// StringSlice splits a comma-separated value into trimmed, non-empty items.
func StringSlice(val string) []string {
	if val == "" {
		return nil
	}
	var res []string
	for _, v := range strings.Split(val, ",") {
		if clean := strings.TrimSpace(v); clean != "" {
			res = append(res, clean)
		}
	}
	return res
}

// OptionalBool returns nil for an absent value and ok=false for a malformed one.
func OptionalBool(val string) (value *bool, ok bool) {
	if val == "" {
		return nil, true
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		return nil, false
	}
	return &parsed, true
}
