package ai

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
)

type localEmbedConfig struct {
	Dimension int `json:"dimension"`
}

// localEmbedProvider is a deterministic feature-hashing embedder that runs
// in-process with no network dependency. Quality is far below a real model;
// it exists for offline deployments and tests, where its bit-identical
// output for identical input matters more than semantics.
type localEmbedProvider struct {
	dimension int
}

func (p *localEmbedProvider) Name() string {
	return "local"
}

func (p *localEmbedProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_ = model
	_ = taskType
	vec := make([]float32, p.dimension)
	words := strings.Fields(strings.ToLower(text))
	for i, word := range words {
		addFeature(vec, word)
		if i > 0 {
			// Bigrams keep a little word-order signal.
			addFeature(vec, words[i-1]+" "+word)
		}
	}
	normalize(vec)
	return vec, nil
}

func addFeature(vec []float32, feature string) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(len(vec)))
	if sum&(1<<63) != 0 {
		vec[idx]--
	} else {
		vec[idx]++
	}
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}

func createLocalEmbedFactory(args interface{}) (IEmbedProvider, error) {
	cfg := &localEmbedConfig{}
	if args != nil {
		if err := decodeConfig(args, cfg); err != nil {
			return nil, err
		}
	}
	if cfg.Dimension == 0 {
		cfg.Dimension = 384
	}
	if cfg.Dimension < 0 {
		return nil, fmt.Errorf("local embedder dimension must be positive")
	}
	return &localEmbedProvider{dimension: cfg.Dimension}, nil
}

func init() {
	RegisterEmbed("local", createLocalEmbedFactory)
}
