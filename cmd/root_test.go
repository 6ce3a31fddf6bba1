package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunExitCodes(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	t.Run("successful command returns zero", func(t *testing.T) {
		rootCmd.SetArgs([]string{"version"})
		assert.Equal(t, 0, run())
	})

	t.Run("unknown command returns one", func(t *testing.T) {
		rootCmd.SetArgs([]string{"no-such-command"})
		assert.Equal(t, 1, run())
	})
}
