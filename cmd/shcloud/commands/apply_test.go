package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	cmd := Apply()

	require.NotNil(t, cmd)
	assert.Equal(t, "apply", cmd.Use)
	assert.NotNil(t, cmd.RunE, "Apply command should have RunE function")
}

func TestApply_ManifestFlag(t *testing.T) {
	cmd := Apply()

	flag := cmd.Flags().Lookup("manifest")
	require.NotNil(t, flag, "manifest flag should exist")
	assert.Equal(t, "f", flag.Shorthand)
	assert.Equal(t, "shcloud.yaml", flag.DefValue)
}

func TestApply_CheckFlag(t *testing.T) {
	cmd := Apply()

	flag := cmd.Flags().Lookup("check")
	require.NotNil(t, flag, "check flag should exist")
	assert.Equal(t, "false", flag.DefValue)
}
