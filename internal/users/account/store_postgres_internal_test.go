// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/lms/internal/platform/sec"
)

/*
TestBuildListFilter numbers placeholders in argument order.
*/
func TestBuildListFilter(t *testing.T) {
	where, args := buildListFilter(ListFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	active := false
	where, args = buildListFilter(ListFilter{
		Query:    "50%_off",
		Roles:    []sec.UserRole{sec.RoleInstructor, sec.RoleAdmin},
		IsActive: &active,
	})

	assert.Equal(t,
		" WHERE (email ILIKE $1 OR first_name ILIKE $1 OR last_name ILIKE $1) AND role = ANY($2) AND is_active = $3",
		where)
	assert.Equal(t, []any{`%50\%\_off%`, []string{"instructor", "admin"}, false}, args)
}
