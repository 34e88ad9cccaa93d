package migration

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
)

func TestUp_InvalidDatasource(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/000001_init.up.sql":   {Data: []byte("SELECT 1;")},
		"migrations/000001_init.down.sql": {Data: []byte("SELECT 1;")},
	}

	err := Up(fsys, "migrations", "mysql://u:p@db/x")

	assert.Error(t, err)
}

func TestUp_MissingDir(t *testing.T) {
	err := Up(fstest.MapFS{}, "migrations", "postgres://u:p@db/x")

	assert.ErrorContains(t, err, "migration: source")
}

func TestDown_NoSteps(t *testing.T) {
	assert.NoError(t, Down(fstest.MapFS{}, "migrations", "postgres://u:p@db/x", 0))
}
