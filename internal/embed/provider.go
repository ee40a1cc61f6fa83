package embed

import "context"

// LocalProvider adapts an in-process Embedder to the loadable-provider
// shape the coordination layer expects. Load is immediate for hash
// embedders; model-backed embedders do their real work there.
type LocalProvider struct {
	embedder Embedder
	loaded   bool
}

// NewLocalProvider wraps embedder as a provider.
func NewLocalProvider(embedder Embedder) *LocalProvider {
	return &LocalProvider{embedder: embedder}
}

// Load marks the provider ready, reporting completion.
func (p *LocalProvider) Load(_ context.Context, onProgress func(percent int)) error {
	if onProgress != nil {
		onProgress(100)
	}
	p.loaded = true
	return nil
}

// Embed delegates to the wrapped embedder.
func (p *LocalProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return p.embedder.EmbedBatch(ctx, texts)
}

// Ready reports whether Load has completed.
func (p *LocalProvider) Ready() bool {
	return p.loaded && p.embedder.Ready()
}
