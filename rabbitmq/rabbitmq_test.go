package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldRequeue(t *testing.T) {
	// an interrupted settlement goes back on the queue
	assert.True(t, shouldRequeue(context.Canceled))
	assert.True(t, shouldRequeue(fmt.Errorf("applying settlement: %w", context.Canceled)))
	assert.True(t, shouldRequeue(context.DeadlineExceeded))

	// rejected payloads are discarded, not redelivered forever
	assert.False(t, shouldRequeue(errors.New("invoice rejected")))
	assert.False(t, shouldRequeue(nil))
}
