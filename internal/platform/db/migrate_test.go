package db

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
)

func TestMigrateRejectsUnknownCommand(t *testing.T) {
	err := Migrate(nil, "postgres://localhost/none", fstest.MapFS{}, "sideways", nil)
	assert.ErrorIs(t, err, ErrUnknownMigrateCommand)
}

func TestMigrateForceNeedsVersion(t *testing.T) {
	err := Migrate(nil, "postgres://localhost/none", fstest.MapFS{}, "force", nil)
	assert.ErrorContains(t, err, "force requires a version")
}
