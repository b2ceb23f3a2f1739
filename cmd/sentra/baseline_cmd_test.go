package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaselineCmdRegistersGenerateAndVerify(t *testing.T) {
	root := newBaselineCmd()

	generate, _, err := root.Find([]string{"generate"})
	require.NoError(t, err)
	assert.Equal(t, "generate", generate.Name())

	verify, _, err := root.Find([]string{"verify"})
	require.NoError(t, err)
	assert.Equal(t, "verify", verify.Name())
}

func TestNewBaselineCmdRequiresBaselineFlag(t *testing.T) {
	root := newBaselineCmd()
	root.SetArgs([]string{"generate"})
	root.SilenceUsage = true
	root.SilenceErrors = true

	err := root.Execute()
	assert.Error(t, err)
}
