package exitcodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name     string
		codes    []int
		expected int
	}{
		{name: "empty plan", codes: nil, expected: Success},
		{name: "all passing", codes: []int{Success, Success}, expected: Success},
		{name: "failure dominates success", codes: []int{Success, TestsFailed, Success}, expected: TestsFailed},
		{name: "internal error dominates failure", codes: []int{TestsFailed, InternalError}, expected: InternalError},
		{name: "no tests collected is worst ordinary outcome", codes: []int{TestsFailed, NoTestsCollected}, expected: NoTestsCollected},
		{name: "timeout maps to interrupted", codes: []int{Success, Timeout}, expected: Interrupted},
		{name: "usage error dominates timeout", codes: []int{Timeout, UsageError}, expected: UsageError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Aggregate(tt.codes))
		})
	}
}

func TestContinuable(t *testing.T) {
	assert.True(t, Continuable(Success))
	assert.True(t, Continuable(TestsFailed))
	assert.True(t, Continuable(NoTestsCollected))

	assert.False(t, Continuable(Interrupted))
	assert.False(t, Continuable(InternalError))
	assert.False(t, Continuable(UsageError))
	assert.False(t, Continuable(Timeout))
}
