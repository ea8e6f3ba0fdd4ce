// Package mockgen produces synthetic feedback for demos and load tests.
// Sentiment tiers are weighted toward a realistic mix and each tier
// couples its templates with plausible ratings and metadata.
package mockgen

import (
	_ "embed"
	"fmt"
	"math/rand/v2"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/insights-cli/internal/ingest"
	"github.com/sells-group/insights-cli/internal/model"
)

//go:embed corpus.yaml
var corpusYAML []byte

type tier struct {
	Name       string   `yaml:"name"`
	Weight     float64  `yaml:"weight"`
	Ratings    []int    `yaml:"ratings"`
	Priorities []string `yaml:"priorities"`
	Templates  []string `yaml:"templates"`
}

type corpus struct {
	Tiers      []tier   `yaml:"tiers"`
	Channels   []string `yaml:"channels"`
	Categories []string `yaml:"categories"`
	Platforms  []string `yaml:"platforms"`
	Browsers   []string `yaml:"browsers"`
}

// Generator creates synthetic feedback submissions.
type Generator struct {
	corpus      corpus
	rng         *rand.Rand
	totalWeight float64
	customers   int
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes the generator deterministic.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// WithCustomerPool sets how many distinct synthetic customers exist.
func WithCustomerPool(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.customers = n
		}
	}
}

// New loads the embedded corpus and builds a generator.
func New(opts ...Option) (*Generator, error) {
	g := &Generator{
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		customers: 100,
	}
	if err := yaml.Unmarshal(corpusYAML, &g.corpus); err != nil {
		return nil, eris.Wrap(err, "mockgen: parse corpus")
	}
	if len(g.corpus.Tiers) == 0 {
		return nil, eris.New("mockgen: corpus has no tiers")
	}
	for _, t := range g.corpus.Tiers {
		if len(t.Templates) == 0 || len(t.Ratings) == 0 {
			return nil, eris.Errorf("mockgen: tier %q is incomplete", t.Name)
		}
		g.totalWeight += t.Weight
	}

	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate produces one synthetic submission.
func (g *Generator) Generate() ingest.Submission {
	t := g.pickTier()
	rating := pick(g.rng, t.Ratings)

	metadata := map[string]any{
		"category":   pick(g.rng, g.corpus.Categories),
		"priority":   pick(g.rng, t.Priorities),
		"session_id": fmt.Sprintf("session_%04d", g.rng.IntN(9000)+1000),
		"platform":   pick(g.rng, g.corpus.Platforms),
		"browser":    pick(g.rng, g.corpus.Browsers),
	}
	switch t.Name {
	case "positive":
		metadata["recommendation_likelihood"] = pick(g.rng, []string{"high", "very_high"})
		metadata["satisfaction_score"] = g.rng.IntN(3) + 8
	case "negative":
		metadata["resolution_status"] = pick(g.rng, []string{"unresolved", "escalated"})
		metadata["churn_risk"] = pick(g.rng, []string{"medium", "high"})
	}

	return ingest.Submission{
		CustomerID: fmt.Sprintf("customer_%03d", g.rng.IntN(g.customers)+1),
		Text:       pick(g.rng, t.Templates),
		Channel:    pick(g.rng, g.corpus.Channels),
		Rating:     &rating,
		Metadata:   metadata,
		Origin:     model.OriginSynthetic,
	}
}

// GenerateN produces n synthetic submissions.
func (g *Generator) GenerateN(n int) []ingest.Submission {
	subs := make([]ingest.Submission, n)
	for i := range subs {
		subs[i] = g.Generate()
	}
	return subs
}

func (g *Generator) pickTier() tier {
	r := g.rng.Float64() * g.totalWeight
	for _, t := range g.corpus.Tiers {
		if r < t.Weight {
			return t
		}
		r -= t.Weight
	}
	return g.corpus.Tiers[len(g.corpus.Tiers)-1]
}

func pick[T any](rng *rand.Rand, items []T) T {
	return items[rng.IntN(len(items))]
}
