package internal

import (
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/chessboards/internal/apperr"
	"github.com/starford/chessboards/internal/metadata"
	"github.com/starford/chessboards/internal/models"
	"github.com/starford/chessboards/internal/render"
	"github.com/starford/chessboards/internal/sampler"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Board      BoardConfig       `yaml:"board"`
	Collection CollectionConfig  `yaml:"collection"`
	Palette    PaletteConfig     `yaml:"palette"`
	Ledger     LedgerConfig      `yaml:"ledger"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	sections := []validation.Validatable{&c.Board, &c.Collection, &c.Palette, &c.Ledger}
	for _, s := range sections {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%w: %w", apperr.ErrInvalidConfig, err)
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// BoardConfig holds the geometry and styling shared by every board.
type BoardConfig struct {
	SquareDim           int             `yaml:"square_dim"`
	BorderSize          int             `yaml:"border_size"`
	LineWidth           int             `yaml:"line_width"`
	PockmarkProbability float64         `yaml:"pockmark_probability"`
	FontSize            float64         `yaml:"font_size"`
	FontPath            string          `yaml:"font_path"`
	LabelColor          models.ColorRGB `yaml:"label_color"`
}

// Validate validates the board configuration.
func (c *BoardConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SquareDim, validation.Required, validation.Min(2)),
		validation.Field(&c.BorderSize, validation.Min(0)),
		validation.Field(&c.LineWidth, validation.Required, validation.Min(1)),
		validation.Field(&c.PockmarkProbability, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.FontSize, validation.Required, validation.Min(1.0)),
	)
}

// RenderOptions converts the section into renderer options.
func (c *BoardConfig) RenderOptions() render.Options {
	return render.Options{
		SquareDim:           c.SquareDim,
		BorderSize:          c.BorderSize,
		LineWidth:           c.LineWidth,
		PockmarkProbability: c.PockmarkProbability,
		LabelColor:          c.LabelColor,
		FontSize:            c.FontSize,
		FontPath:            c.FontPath,
	}
}

// CollectionConfig describes the collection being built.
type CollectionConfig struct {
	Size                int    `yaml:"size"`
	Name                string `yaml:"name"`
	Symbol              string `yaml:"symbol"`
	DescriptionTemplate string `yaml:"description_template"`
	RoyaltyBPS          int    `yaml:"royalty_bps"`
	RecipientID         string `yaml:"recipient_id"`
	// Seed drives every random draw; zero picks a fresh seed per run.
	Seed      uint64 `yaml:"seed"`
	OutputDir string `yaml:"output_dir"`
}

// Validate validates the collection configuration.
func (c *CollectionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Size, validation.Required, validation.Min(1)),
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Symbol, validation.Required),
		validation.Field(&c.RoyaltyBPS, validation.Min(0), validation.Max(10000)),
		validation.Field(&c.RecipientID, validation.Required),
		validation.Field(&c.OutputDir, validation.Required),
	)
}

// MetadataSettings converts the section into metadata builder settings.
func (c *CollectionConfig) MetadataSettings() metadata.Settings {
	return metadata.Settings{
		CollectionName:      c.Name,
		Symbol:              c.Symbol,
		DescriptionTemplate: c.DescriptionTemplate,
		RoyaltyBPS:          c.RoyaltyBPS,
		RecipientID:         c.RecipientID,
		Total:               c.Size,
	}
}

// WeightedColor is a border colour and its sampling weight.
type WeightedColor struct {
	Color  models.ColorRGB `yaml:"color"`
	Weight float64         `yaml:"weight"`
}

// Validate validates the entry.
func (w WeightedColor) Validate() error {
	return validation.ValidateStruct(&w,
		validation.Field(&w.Weight, validation.Min(0.0)),
	)
}

// WeightedPair is a dark/light square pair and its sampling weight.
type WeightedPair struct {
	Dark   models.ColorRGB `yaml:"dark"`
	Light  models.ColorRGB `yaml:"light"`
	Weight float64         `yaml:"weight"`
}

// Validate validates the entry.
func (w WeightedPair) Validate() error {
	return validation.ValidateStruct(&w,
		validation.Field(&w.Weight, validation.Min(0.0)),
	)
}

// BorderStyleWeights weights the three border treatments.
type BorderStyleWeights struct {
	Flat       float64 `yaml:"flat"`
	Pockmarked float64 `yaml:"pockmarked"`
	Gradient   float64 `yaml:"gradient"`
}

// PaletteConfig holds every weighted distribution the sampler draws from.
type PaletteConfig struct {
	BorderColors []WeightedColor `yaml:"border_colors"`
	SquarePairs  []WeightedPair  `yaml:"square_pairs"`
	// NodeWeights[i] weights i+1 nodes per side.
	NodeWeights     []float64          `yaml:"node_weights"`
	EdgeStepPercent int                `yaml:"edge_step_percent"`
	BorderStyles    BorderStyleWeights `yaml:"border_styles"`
	ColorShift      float64            `yaml:"color_shift"`
}

// Validate validates the palette configuration.
func (c *PaletteConfig) Validate() error {
	border := make([]float64, len(c.BorderColors))
	for i, w := range c.BorderColors {
		border[i] = w.Weight
	}
	pairs := make([]float64, len(c.SquarePairs))
	for i, w := range c.SquarePairs {
		pairs[i] = w.Weight
	}
	styles := []float64{c.BorderStyles.Flat, c.BorderStyles.Pockmarked, c.BorderStyles.Gradient}

	return validation.ValidateStruct(c,
		validation.Field(&c.BorderColors, validation.Required, validation.By(positiveSum(border))),
		validation.Field(&c.SquarePairs, validation.Required, validation.By(positiveSum(pairs))),
		validation.Field(&c.NodeWeights, validation.Required, validation.Length(1, 4),
			validation.Each(validation.Min(0.0)), validation.By(positiveSum(c.NodeWeights))),
		validation.Field(&c.EdgeStepPercent, validation.Required, validation.In(1, 2, 4, 5, 10, 20, 25, 50, 100)),
		validation.Field(&c.BorderStyles, validation.By(positiveSum(styles))),
		validation.Field(&c.ColorShift, validation.Min(0.0), validation.Max(0.5)),
	)
}

func positiveSum(weights []float64) validation.RuleFunc {
	return func(any) error {
		var total float64
		for _, w := range weights {
			if w < 0 {
				return errors.New("weights must not be negative")
			}
			total += w
		}
		if total <= 0 {
			return errors.New("weights must sum to a positive value")
		}
		return nil
	}
}

// SamplerPalette converts the section into the sampler's input.
func (c *PaletteConfig) SamplerPalette() sampler.Palette {
	p := sampler.Palette{
		NodeWeights:     append([]float64(nil), c.NodeWeights...),
		EdgeStepPercent: c.EdgeStepPercent,
		BorderStyleWeights: [3]float64{
			models.BorderFlat:       c.BorderStyles.Flat,
			models.BorderPockmarked: c.BorderStyles.Pockmarked,
			models.BorderGradient:   c.BorderStyles.Gradient,
		},
		ColorShift: c.ColorShift,
	}
	for _, w := range c.BorderColors {
		p.BorderColors = append(p.BorderColors, w.Color)
		p.BorderColorWeights = append(p.BorderColorWeights, w.Weight)
	}
	for _, w := range c.SquarePairs {
		p.SquarePairs = append(p.SquarePairs, sampler.SquarePair{Dark: w.Dark, Light: w.Light})
		p.SquarePairWeights = append(p.SquarePairWeights, w.Weight)
	}
	return p
}

// LedgerConfig holds SQLite ledger configuration.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the ledger configuration.
func (c *LedgerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with the genesis collection values.
func NewDefaultConfig() *Config {
	rgb := models.RGB
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Board: BoardConfig{
			SquareDim:           128,
			BorderSize:          64,
			LineWidth:           1,
			PockmarkProbability: 0.05,
			FontSize:            24,
			LabelColor:          rgb(255, 255, 255),
		},
		Collection: CollectionConfig{
			Size:                500,
			Name:                "ShaChessboard",
			Symbol:              "SHACHESS",
			DescriptionTemplate: "#{{.Number}}/{{.Total}} of the genesis Shachess Chessboards",
			RoyaltyBPS:          500,
			RecipientID:         "DhX4pf9j72hpkJPxmRVbfx8Rg95zczx4y8FLihoeGKeK",
			OutputDir:           "./assets",
		},
		Palette: PaletteConfig{
			BorderColors: []WeightedColor{
				{rgb(0, 0, 128), 0.075},
				{rgb(128, 0, 0), 0.025},
				{rgb(0, 0, 0), 0.3},
				{rgb(120, 80, 50), 0.4},
				{rgb(70, 70, 70), 0.2},
			},
			SquarePairs: []WeightedPair{
				{rgb(0, 0, 0), rgb(255, 255, 255), 0.5},
				{rgb(180, 140, 100), rgb(240, 215, 180), 0.2},
				{rgb(125, 75, 140), rgb(190, 180, 200), 0.025},
				{rgb(105, 125, 70), rgb(255, 255, 220), 0.15},
				{rgb(140, 160, 175), rgb(220, 225, 230), 0.125},
			},
			NodeWeights:     []float64{8, 4, 2, 1},
			EdgeStepPercent: 5,
			BorderStyles:    BorderStyleWeights{Flat: 0.8, Pockmarked: 0.15, Gradient: 0.05},
			ColorShift:      0.3,
		},
		Ledger: LedgerConfig{
			Path: "./collection.db",
		},
	}
}
