package runner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"devboot/internal/config"
)

func Test_Policy_Delay(t *testing.T) {
	policy := Policy{MaxAttempts: 4, InitialDelay: 100 * time.Millisecond, BackoffMultiplier: 2}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{attempt: 0, expected: 100 * time.Millisecond},
		{attempt: 1, expected: 100 * time.Millisecond},
		{attempt: 2, expected: 200 * time.Millisecond},
		{attempt: 3, expected: 400 * time.Millisecond},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, policy.Delay(tt.attempt))
	}

	flat := Policy{InitialDelay: time.Second, BackoffMultiplier: 0}
	assert.Equal(t, time.Second, flat.Delay(3))
}

func Test_PolicyFromConfig(t *testing.T) {
	policy := PolicyFromConfig(config.DefaultConfig().Retry)

	assert.Equal(t, config.RetryAttempts, policy.MaxAttempts)
	assert.Equal(t, config.RetryInitialDelay, policy.InitialDelay)
	assert.Equal(t, config.RetryBackoffMultiplier, policy.BackoffMultiplier)
	assert.Equal(t, config.CommandTimeout, policy.Timeout)
}

func Test_CriticalTable(t *testing.T) {
	r := &runner{rules: config.DefaultConfig().Critical}

	tests := []struct {
		name     string
		cmd      Command
		critical bool
		cleanup  []string
	}{
		{
			name:     "Clean install",
			cmd:      Command{Executable: "npm", Args: []string{"ci", "--prefer-offline"}},
			critical: true,
			cleanup:  []string{"node_modules"},
		},
		{
			name:     "Build",
			cmd:      Command{Executable: "npm", Args: []string{"run", "build"}},
			critical: true,
			cleanup:  []string{".next", "dist"},
		},
		{
			name:     "Ordinary command",
			cmd:      Command{Executable: "npm", Args: []string{"test"}},
			critical: false,
			cleanup:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.critical, r.IsCritical(tt.cmd))
			assert.Equal(t, tt.cleanup, r.CleanupFor(tt.cmd))
		})
	}
}

func Test_Command_String(t *testing.T) {
	assert.Equal(t, "npm ci --no-audit", Command{Executable: "npm", Args: []string{"ci", "--no-audit"}}.String())
	assert.Equal(t, "make", Command{Executable: "make"}.String())
}
