// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lms/pkg/query"
)

func TestStringSlice(t *testing.T) {
	assert.Nil(t, query.StringSlice(""))
	assert.Nil(t, query.StringSlice(" , ,"))
	assert.Equal(t, []string{"admin", "instructor"}, query.StringSlice(" admin,, instructor "))
}

func TestOptionalBool(t *testing.T) {
	value, ok := query.OptionalBool("")
	assert.True(t, ok)
	assert.Nil(t, value)

	value, ok = query.OptionalBool(" false ")
	assert.True(t, ok)
	require.NotNil(t, value)
	assert.False(t, *value)

	_, ok = query.OptionalBool("maybe")
	assert.False(t, ok)
}
