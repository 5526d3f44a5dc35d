package judge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTerminal(t *testing.T) {
	terminal := []Status{
		StatusAccepted, StatusWrongAnswer, StatusTimeLimitExceeded,
		StatusMemoryLimitExceeded, StatusRuntimeError, StatusCompilationError,
	}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), "%v.Terminal() should be true", s)
	}

	nonTerminal := []Status{StatusPending, StatusRunning}
	for _, s := range nonTerminal {
		assert.False(t, s.Terminal(), "%v.Terminal() should be false", s)
	}
}

func TestMapExecStatus(t *testing.T) {
	cases := []struct {
		in   ExecStatus
		want Status
	}{
		{ExecSuccess, StatusAccepted},
		{ExecWrongAnswer, StatusWrongAnswer},
		{ExecTimeLimitExceeded, StatusTimeLimitExceeded},
		{ExecMemoryLimitExceeded, StatusMemoryLimitExceeded},
		{ExecRuntimeError, StatusRuntimeError},
		{ExecCompilationError, StatusCompilationError},
		{ExecInternalError, StatusRuntimeError},
		{ExecStatus("unknown"), StatusRuntimeError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, MapExecStatus(c.in))
	}
}
