package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDisabledPublisherIsNil(t *testing.T) {
	p, err := NewPublisher(nil, "docauto.audit", zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestNilPublisherIsSafe(t *testing.T) {
	var p *Publisher

	// Publish and Close on a disabled publisher must be no-ops.
	p.Publish(context.Background(), Event{Action: ActionPassportExtracted, SessionID: "s"})
	p.Close()
}
