package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunRejectsUnknownCommandBeforeConnecting(t *testing.T) {
	assert.Equal(t, 2, run(nil))
	assert.Equal(t, 2, run([]string{"enroll"}))
}

func TestSubcommandsValidateFlagsBeforeQuerying(t *testing.T) {
	ctx := context.Background()

	err := runCheck(ctx, nil, zap.NewNop(), []string{"-subject", "S1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-student")

	err = runCheck(ctx, nil, zap.NewNop(), []string{"-unknown"})
	require.Error(t, err)

	err = runToken(ctx, nil, nil, zap.NewNop(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-email")
}
