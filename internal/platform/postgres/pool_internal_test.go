// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

/*
TestOptions_SessionSetup pins every connection to UTC and the statement bound.
*/
func TestOptions_SessionSetup(t *testing.T) {
	assert.Equal(t, []string{"SET TIME ZONE 'UTC'"}, Options{}.sessionSetup())

	assert.Equal(t,
		[]string{"SET TIME ZONE 'UTC'", "SET statement_timeout = 1500"},
		Options{StatementTimeout: 1500 * time.Millisecond}.sessionSetup())
}
