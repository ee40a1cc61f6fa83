package semantic

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/Aman-CERP/uiground/internal/embed"
	uierrors "github.com/Aman-CERP/uiground/internal/errors"
	"github.com/Aman-CERP/uiground/internal/query"
	"github.com/Aman-CERP/uiground/internal/snapshot"
)

// Semantic defaults, applied when the query's semantic block leaves them
// zero.
const (
	DefaultThreshold = 0.3
	DefaultTopK      = 10
)

// Orchestrator runs queries, upgrading them with semantic re-ranking when
// the query asks for it and the embedding provider is ready. When semantic
// search is off the orchestrator is a plain pass-through to the lexical
// engine.
type Orchestrator struct {
	store    *snapshot.Store
	exec     *query.Executor
	embedder embed.Embedder
	cache    *embed.FingerprintCache
	vindex   *VectorIndex

	batchSize int
	threshold float64
	topK      int
	execOpts  []query.ExecutorOption
	logger    *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithCache attaches a fingerprint embedding cache.
func WithCache(cache *embed.FingerprintCache) Option {
	return func(o *Orchestrator) { o.cache = cache }
}

// WithVectorIndex attaches a vector index used as the fast path for
// whole-snapshot semantic queries.
func WithVectorIndex(vindex *VectorIndex) Option {
	return func(o *Orchestrator) { o.vindex = vindex }
}

// WithBatchSize overrides the embedding batch size.
func WithBatchSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithSemanticDefaults overrides the threshold and topK applied when the
// query's semantic block leaves them zero.
func WithSemanticDefaults(threshold float64, topK int) Option {
	return func(o *Orchestrator) {
		if threshold > 0 {
			o.threshold = threshold
		}
		if topK > 0 {
			o.topK = topK
		}
	}
}

// WithQueryTuning overrides the lexical executor's default result limit
// and proximity radius.
func WithQueryTuning(defaultLimit int, nearRadius float64) Option {
	return func(o *Orchestrator) {
		o.execOpts = append(o.execOpts,
			query.WithDefaultLimit(defaultLimit),
			query.WithNearRadius(nearRadius))
	}
}

// NewOrchestrator creates an orchestrator over the store. embedder may be
// nil; semantic queries then degrade to lexical ones.
func NewOrchestrator(store *snapshot.Store, embedder embed.Embedder, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:     store,
		embedder:  embedder,
		batchSize: embed.DefaultBatchSize,
		threshold: DefaultThreshold,
		topK:      DefaultTopK,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.exec = query.NewExecutor(store, o.execOpts...)
	return o
}

// Query executes the query, semantically re-ranked when requested and
// possible. A missing or not-ready provider is not an error: the query
// silently falls back to lexical matching.
func (o *Orchestrator) Query(ctx context.Context, ast *query.AST) (*query.Result, error) {
	sem := ast.Semantic
	if sem == nil || !sem.Enabled || o.embedder == nil || !o.embedder.Ready() {
		return o.exec.Execute(ast), nil
	}

	text := strings.TrimSpace(sem.Text)
	if text == "" {
		text = firstTextValue(ast)
	}
	if text == "" {
		// Nothing to embed; lexical matching is the best we can do.
		return o.exec.Execute(ast), nil
	}

	threshold := sem.Threshold
	if threshold == 0 {
		threshold = o.threshold
	}
	topK := sem.TopK
	if topK <= 0 {
		topK = o.topK
	}

	// Text-matching clauses are dropped in semantic mode: the embedding
	// replaces lexical name/context matching. Role and state filters
	// still narrow the candidate set.
	kept := make([]query.Clause, 0, len(ast.Where))
	for _, clause := range ast.Where {
		switch clause.(type) {
		case query.RoleClause, query.StateClause:
			kept = append(kept, clause)
		}
	}

	qvecs, err := o.embedder.EmbedBatch(ctx, []string{embed.QueryText(text)})
	if err != nil {
		return nil, uierrors.Wrap(uierrors.ErrCodeEmbeddingFailed, err)
	}
	qvec := qvecs[0]

	// Fast path: no structural filters and a vector index covering every
	// record in the current snapshot lets us skip per-query candidate
	// embedding entirely. Coverage is checked per fingerprint so an index
	// warmed against an older snapshot never answers for this one.
	if len(kept) == 0 && o.vindex != nil && o.store.Size() > 0 && o.indexCoversSnapshot() {
		return o.queryViaIndex(qvec, text, threshold, topK), nil
	}

	all := o.store.Size()
	lexical := o.exec.Execute(&query.AST{Where: kept, Limit: &all})

	scored, err := o.scoreCandidates(ctx, qvec, lexical.Matches)
	if err != nil {
		return nil, err
	}

	matches, total := rankSemantic(scored, threshold, topK)

	lexical.Matches = matches
	lexical.Total = total
	lexical.Explain.FiltersApplied = append(lexical.Explain.FiltersApplied,
		fmt.Sprintf("semantic(%q, threshold=%g, topK=%d)", text, threshold, topK))
	return lexical, nil
}

type semScored struct {
	match snapshot.Match
	sim   float32
}

// scoreCandidates embeds candidate texts in batches (cached vectors are
// reused by fingerprint) and scores each against the query vector.
func (o *Orchestrator) scoreCandidates(ctx context.Context, qvec []float32, matches []snapshot.Match) ([]semScored, error) {
	scored := make([]semScored, len(matches))
	var missingIdx []int
	var missingTexts []string

	for i, m := range matches {
		scored[i].match = m
		if o.cache != nil {
			if vec, ok := o.cache.Peek(m.Record.Fingerprint); ok {
				scored[i].sim = Dot(qvec, vec)
				continue
			}
		}
		missingIdx = append(missingIdx, i)
		missingTexts = append(missingTexts, passageFor(m.Record))
	}

	for start := 0; start < len(missingTexts); start += o.batchSize {
		end := start + o.batchSize
		if end > len(missingTexts) {
			end = len(missingTexts)
		}
		vecs, err := o.embedder.EmbedBatch(ctx, missingTexts[start:end])
		if err != nil {
			return nil, uierrors.Wrap(uierrors.ErrCodeEmbeddingFailed, err)
		}
		for j, vec := range vecs {
			i := missingIdx[start+j]
			scored[i].sim = Dot(qvec, vec)
			if o.cache != nil {
				o.cache.Put(scored[i].match.Record.Fingerprint, vec)
			}
		}
	}

	return scored, nil
}

// rankSemantic filters by threshold, sorts by similarity descending, and
// keeps topK, rewriting match scores to the similarity. The second return
// is the candidate count at or above threshold before topK truncation.
func rankSemantic(scored []semScored, threshold float64, topK int) ([]snapshot.Match, int) {
	kept := scored[:0]
	for _, s := range scored {
		if float64(s.sim) >= threshold {
			kept = append(kept, s)
		}
	}
	total := len(kept)
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].sim > kept[j].sim
	})
	if len(kept) > topK {
		kept = kept[:topK]
	}
	matches := make([]snapshot.Match, 0, len(kept))
	for _, s := range kept {
		m := s.match
		m.Score = math.Round(float64(s.sim)*100) / 100
		matches = append(matches, m)
	}
	return matches, total
}

// queryViaIndex answers a whole-snapshot semantic query from the vector
// index without touching the provider for candidates.
func (o *Orchestrator) queryViaIndex(qvec []float32, text string, threshold float64, topK int) *query.Result {
	neighbors := o.vindex.Search(qvec, topK)

	var matches []snapshot.Match
	for _, n := range neighbors {
		if float64(n.Similarity) < threshold {
			continue
		}
		for _, rec := range o.recordsByFingerprint(n.Fingerprint) {
			m := matchFromRecord(rec)
			m.Score = math.Round(float64(n.Similarity)*100) / 100
			matches = append(matches, m)
		}
	}
	// Total counts everything at or above threshold, before topK trims.
	total := len(matches)
	if len(matches) > topK {
		matches = matches[:topK]
	}

	return &query.Result{
		Matches: matches,
		Total:   total,
		Explain: query.Explain{
			CandidatesConsidered: o.store.Size(),
			FiltersApplied: []string{
				fmt.Sprintf("semantic-index(%q, threshold=%g, topK=%d)", text, threshold, topK),
			},
		},
	}
}

// indexCoversSnapshot reports whether every current record's fingerprint
// is present in the vector index.
func (o *Orchestrator) indexCoversSnapshot() bool {
	records := o.store.Records()
	fingerprints := make([]string, len(records))
	for i := range records {
		fingerprints[i] = records[i].Fingerprint
	}
	return o.vindex.ContainsAll(fingerprints)
}

func (o *Orchestrator) recordsByFingerprint(fingerprint string) []*snapshot.Record {
	records := o.store.Records()
	var out []*snapshot.Record
	for i := range records {
		if records[i].Fingerprint == fingerprint {
			out = append(out, &records[i])
		}
	}
	return out
}

// ComputeAllEmbeddings pre-warms the fingerprint cache (and the vector
// index, if attached) for every record in the snapshot: only fingerprints
// the cache does not know are embedded. Without a cache this degrades to
// embedding everything and caching nothing.
func (o *Orchestrator) ComputeAllEmbeddings(ctx context.Context) (int, error) {
	if o.embedder == nil || !o.embedder.Ready() {
		return 0, uierrors.Newf(uierrors.ErrCodeEmbedderNotReady, "embedding provider not ready")
	}

	records := o.store.Records()
	byFingerprint := make(map[string]*snapshot.Record, len(records))
	fingerprints := make([]string, 0, len(records))
	for i := range records {
		fp := records[i].Fingerprint
		if _, seen := byFingerprint[fp]; seen {
			continue
		}
		byFingerprint[fp] = &records[i]
		fingerprints = append(fingerprints, fp)
	}

	missing := fingerprints
	if o.cache != nil {
		missing = o.cache.Missing(fingerprints)
	}

	embedded := 0
	for start := 0; start < len(missing); start += o.batchSize {
		end := start + o.batchSize
		if end > len(missing) {
			end = len(missing)
		}
		batch := missing[start:end]
		texts := make([]string, len(batch))
		for i, fp := range batch {
			texts[i] = passageFor(byFingerprint[fp])
		}
		vecs, err := o.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return embedded, uierrors.Wrap(uierrors.ErrCodeEmbeddingFailed, err)
		}
		for i, vec := range vecs {
			if o.cache != nil {
				o.cache.Put(batch[i], vec)
			}
			if o.vindex != nil {
				if err := o.vindex.Add(batch[i], vec); err != nil {
					return embedded, err
				}
			}
			embedded++
		}
	}

	o.logger.Debug("embeddings computed",
		slog.Int("fingerprints", len(fingerprints)),
		slog.Int("embedded", embedded))
	return embedded, nil
}

// SemanticRerank reranks candidate ids by similarity to a caller-provided
// query vector, using only cached embeddings: candidates whose fingerprints
// have no cached vector are skipped.
func (o *Orchestrator) SemanticRerank(queryVec []float32, candidateIDs []uint32, topK int) []Scored {
	if o.cache == nil {
		return nil
	}
	candidates := make(map[uint32][]float32, len(candidateIDs))
	for _, id := range candidateIDs {
		rec := o.store.GetRecord(id)
		if rec == nil {
			continue
		}
		if vec, ok := o.cache.Peek(rec.Fingerprint); ok {
			candidates[id] = vec
		}
	}
	return TopKSimilar(queryVec, candidates, topK)
}

// passageFor builds the provider text for a record: name plus context,
// passage-framed and truncated.
func passageFor(rec *snapshot.Record) string {
	text := rec.Name
	if len(rec.Context) > 0 {
		text += " " + strings.Join(rec.Context, " ")
	}
	return embed.PassageText(text)
}

// matchFromRecord projects a record into a Match with a zero score; the
// caller fills in the semantic similarity.
func matchFromRecord(rec *snapshot.Record) snapshot.Match {
	return snapshot.Match{
		ID:            rec.ID,
		Role:          rec.Role,
		Name:          rec.Name,
		States:        snapshot.DeriveStates(rec),
		Context:       rec.Context,
		Actionability: snapshot.DeriveActionability(rec),
		Rect:          rec.Rect,
		Record:        rec,
	}
}

// firstTextValue derives the semantic query text from the first name or
// in_context clause.
func firstTextValue(ast *query.AST) string {
	for _, clause := range ast.Where {
		switch c := clause.(type) {
		case query.NameClause:
			return c.Value
		case query.ContextClause:
			return c.Value
		}
	}
	return ""
}
