package broker

import (
	"context"
)

// RemoteEmbedder adapts a protocol Client to the engine's Embedder
// interface, so a query orchestrator can sit behind the shared provider
// without knowing it is shared.
type RemoteEmbedder struct {
	client *Client
	dims   int
}

// NewRemoteEmbedder wraps a client. dims must match the provider's vector
// dimensionality.
func NewRemoteEmbedder(client *Client, dims int) *RemoteEmbedder {
	return &RemoteEmbedder{client: client, dims: dims}
}

// EmbedBatch delegates to the shared provider through the protocol.
func (r *RemoteEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return r.client.Embed(ctx, texts)
}

// Dimensions returns the provider's vector dimensionality.
func (r *RemoteEmbedder) Dimensions() int { return r.dims }

// Ready reports the client's last observed readiness.
func (r *RemoteEmbedder) Ready() bool { return r.client.Ready() }
