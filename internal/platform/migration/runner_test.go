// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lms/data/migrations"
	"github.com/taibuivan/lms/internal/platform/migration"
)

func TestToPgx5DSN(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/lms", migration.ToPgx5DSN("postgres://u:p@db:5432/lms"))
	assert.Equal(t, "pgx5://u:p@db:5432/lms", migration.ToPgx5DSN("postgresql://u:p@db:5432/lms"))
	assert.Equal(t, "pgx5://db/lms", migration.ToPgx5DSN("pgx5://db/lms"))
	assert.Equal(t, "host=db dbname=lms", migration.ToPgx5DSN("host=db dbname=lms"))
}

/*
TestEmbeddedMigrations ships every schema step in order, each with a down file.
*/
func TestEmbeddedMigrations(t *testing.T) {
	versions, err := migration.Versions(migrations.FS)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, versions)

	source, err := migration.EmbeddedSource()
	require.NoError(t, err)
	defer source.Close()

	for _, version := range versions {
		_, _, err := source.ReadUp(version)
		assert.NoError(t, err, "up %d", version)
		_, _, err = source.ReadDown(version)
		assert.NoError(t, err, "down %d", version)
	}
}

/*
TestVersions_Gaps keeps numbering gaps and rejects an empty source.
*/
func TestVersions_Gaps(t *testing.T) {
	fsys := fstest.MapFS{
		"000001_a.up.sql": {Data: []byte("SELECT 1;")},
		"000005_b.up.sql": {Data: []byte("SELECT 1;")},
		"README.md":       {Data: []byte("ignored")},
	}

	versions, err := migration.Versions(fsys)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 5}, versions)

	_, err = migration.Versions(fstest.MapFS{})
	assert.Error(t, err)
}
