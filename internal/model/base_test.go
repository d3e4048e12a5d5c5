package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDBaseMintsIDOnCreate(t *testing.T) {
	var b UUIDBase
	require.NoError(t, b.BeforeCreate(nil))
	_, err := uuid.Parse(b.ID)
	assert.NoError(t, err)
}

func TestUUIDBaseKeepsPresetID(t *testing.T) {
	b := UUIDBase{ID: "draft-minted-id"}
	require.NoError(t, b.BeforeCreate(nil))
	assert.Equal(t, "draft-minted-id", b.ID)
}
