// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination provides shared types and helpers for API list endpoints.
package pagination

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	// DefaultLimit is the number of items per page if not specified.
	DefaultLimit = 20
	// MaxLimit is the upper bound for items per page.
	MaxLimit = 100
	// DefaultPage is the starting page (1-indexed).
	DefaultPage = 1
	// MaxQueryLength caps the free-text search term.
	MaxQueryLength = 100
)

// Params holds the parsed page, limit and search term from a query string.
type Params struct {
	Page  int
	Limit int
	Query string
}

// Offset returns the SQL OFFSET value derived from Page and Limit.
func (p Params) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Meta is the pagination metadata included in API list responses.
type Meta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewMeta constructs pagination metadata for a response.
func NewMeta(params Params, total int) Meta {
	totalPages := 0
	if params.Limit > 0 {
		totalPages = (total + params.Limit - 1) / params.Limit
	}

	return Meta{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1 && totalPages > 0,
	}
}

// FromRequest parses "page", "limit" and "q" query parameters.
//
// # Clamping
//
// Missing or invalid values fall back to the defaults; a limit above
// [MaxLimit] is clamped to it. The search term is trimmed and truncated.
func FromRequest(r *http.Request) Params {
	values := r.URL.Query()

	page := parseInt(values.Get("page"), DefaultPage)
	limit := parseInt(values.Get("limit"), DefaultLimit)

	if page < 1 {
		page = DefaultPage
	}

	switch {
	case limit < 1:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	query := strings.TrimSpace(values.Get("q"))
	if runes := []rune(query); len(runes) > MaxQueryLength {
		query = string(runes[:MaxQueryLength])
	}

	return Params{Page: page, Limit: limit, Query: query}
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
