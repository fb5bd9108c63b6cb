// Package sampler draws trait sets from weighted palettes.
package sampler

import (
	"fmt"
	"math/rand/v2"

	"github.com/starford/chessboards/internal/models"
)

// SquarePair is a dark/light fill combination that is always sampled together.
type SquarePair struct {
	Dark  models.ColorRGB
	Light models.ColorRGB
}

// Palette is the sampler's full, immutable input.
type Palette struct {
	BorderColors       []models.ColorRGB
	BorderColorWeights []float64
	SquarePairs        []SquarePair
	SquarePairWeights  []float64
	// NodeWeights[i] is the weight of i+1 nodes per side.
	NodeWeights []float64
	// EdgeStepPercent is the spacing of edge-probability candidates.
	EdgeStepPercent int
	// BorderStyleWeights is indexed by models.BorderStyle.
	BorderStyleWeights [3]float64
	ColorShift         float64
}

// Sampler turns random draws into TraitSets. It holds no random state of
// its own; callers pass the generator so seeding stays in one place.
type Sampler struct {
	palette     Palette
	borders     Distribution
	squares     Distribution
	nodes       Distribution
	styles      Distribution
	edgeChoices []float64
}

// New validates the palette and precomputes its distributions.
func New(p Palette) (*Sampler, error) {
	if len(p.BorderColors) != len(p.BorderColorWeights) {
		return nil, fmt.Errorf("sampler: %d border colors but %d weights", len(p.BorderColors), len(p.BorderColorWeights))
	}
	if len(p.SquarePairs) != len(p.SquarePairWeights) {
		return nil, fmt.Errorf("sampler: %d square pairs but %d weights", len(p.SquarePairs), len(p.SquarePairWeights))
	}
	if len(p.NodeWeights) > 4 {
		return nil, fmt.Errorf("sampler: at most 4 node weights, got %d", len(p.NodeWeights))
	}

	s := &Sampler{palette: p}
	var err error
	if s.borders, err = NewDistribution(p.BorderColorWeights); err != nil {
		return nil, fmt.Errorf("sampler: border colors: %w", err)
	}
	if s.squares, err = NewDistribution(p.SquarePairWeights); err != nil {
		return nil, fmt.Errorf("sampler: square pairs: %w", err)
	}
	if s.nodes, err = NewDistribution(p.NodeWeights); err != nil {
		return nil, fmt.Errorf("sampler: nodes per side: %w", err)
	}
	if s.styles, err = NewDistribution(p.BorderStyleWeights[:]); err != nil {
		return nil, fmt.Errorf("sampler: border styles: %w", err)
	}
	if s.edgeChoices, err = EdgeProbabilities(p.EdgeStepPercent); err != nil {
		return nil, fmt.Errorf("sampler: %w", err)
	}
	return s, nil
}

// Sample draws one TraitSet. The draw order is fixed so that a seeded
// generator always yields the same sequence of boards.
func (s *Sampler) Sample(rng *rand.Rand) models.TraitSet {
	border := s.palette.BorderColors[s.borders.Pick(rng.Float64())]
	pair := s.palette.SquarePairs[s.squares.Pick(rng.Float64())]
	nodes := s.nodes.Pick(rng.Float64()) + 1
	edge := s.edgeChoices[rng.IntN(len(s.edgeChoices))]
	style := models.BorderStyle(s.styles.Pick(rng.Float64()))

	darkLine, lightLine := LineColors(pair.Dark, pair.Light, s.palette.ColorShift)

	return models.TraitSet{
		BorderColor:     border,
		DarkColor:       pair.Dark,
		LightColor:      pair.Light,
		DarkLine:        darkLine,
		LightLine:       lightLine,
		NodesPerSide:    nodes,
		EdgeProbability: edge,
		BorderStyle:     style,
	}
}

// LineColors moves each fill colour a fraction shift of the way towards
// the other one. Channels are truncated towards zero.
func LineColors(dark, light models.ColorRGB, shift float64) (darkLine, lightLine models.ColorRGB) {
	d, l := dark.Channels(), light.Channels()
	var dl, ll [3]uint8
	for i := range d {
		diff := float64(l[i]) - float64(d[i])
		dl[i] = uint8(int(float64(d[i]) + shift*diff))
		ll[i] = uint8(int(float64(l[i]) - shift*diff))
	}
	return models.RGB(dl[0], dl[1], dl[2]), models.RGB(ll[0], ll[1], ll[2])
}

// EdgeProbabilities builds the candidate list for the edge probability.
// Each threshold t in {0, step, ..., 100} percent appears once per
// remaining step, so low probabilities dominate a uniform pick.
func EdgeProbabilities(stepPercent int) ([]float64, error) {
	if stepPercent <= 0 || stepPercent > 100 || 100%stepPercent != 0 {
		return nil, fmt.Errorf("edge step %d%% must divide 100", stepPercent)
	}
	steps := 100/stepPercent + 1
	var out []float64
	for t := 0; t <= 100; t += stepPercent {
		for range steps - t/stepPercent {
			out = append(out, float64(t)/100)
		}
	}
	return out, nil
}

// NewRand returns the generator used for a whole build. A fixed seed
// reproduces the build exactly.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
