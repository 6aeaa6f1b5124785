package digest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// digestAdapter wraps ServiceContainer for type-safe cross-module
// communication with the digest scheduler.
type digestAdapter struct {
	container mono.ServiceContainer
}

// NewDigestAdapter creates a new adapter for digest services.
func NewDigestAdapter(container mono.ServiceContainer) DigestPort {
	if container == nil {
		panic("digest adapter requires non-nil ServiceContainer")
	}
	return &digestAdapter{container: container}
}

// Run triggers one digest run via the run service.
func (a *digestAdapter) Run(ctx context.Context) (*RunResponse, error) {
	var resp RunResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "run", json.Marshal, json.Unmarshal, &RunRequest{}, &resp,
	); err != nil {
		return nil, fmt.Errorf("run service call failed: %w", err)
	}
	return &resp, nil
}
