// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package migrations embeds the SQL schema so the binary can migrate without
// a checkout on disk.
package migrations

import "embed"

// FS holds every numbered up/down migration.
//
//go:embed *.sql
var FS embed.FS
