// Package models defines the domain types for the chessboard collection.
package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ColorRGB is an 8-bit per channel colour.
type ColorRGB struct {
	R, G, B uint8
}

// RGB is a convenience constructor.
func RGB(r, g, b uint8) ColorRGB {
	return ColorRGB{R: r, G: g, B: b}
}

// Channels returns the colour as a three-element array.
func (c ColorRGB) Channels() [3]uint8 {
	return [3]uint8{c.R, c.G, c.B}
}

// String renders the colour as "r,g,b".
func (c ColorRGB) String() string {
	return fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B)
}

// MarshalJSON encodes the colour as [r, g, b].
func (c ColorRGB) MarshalJSON() ([]byte, error) {
	return json.Marshal([]int{int(c.R), int(c.G), int(c.B)})
}

// UnmarshalJSON decodes [r, g, b].
func (c *ColorRGB) UnmarshalJSON(data []byte) error {
	var ch []int
	if err := json.Unmarshal(data, &ch); err != nil {
		return err
	}
	return c.set(ch)
}

// UnmarshalYAML decodes a flow sequence [r, g, b].
func (c *ColorRGB) UnmarshalYAML(node *yaml.Node) error {
	var ch []int
	if err := node.Decode(&ch); err != nil {
		return fmt.Errorf("color: %w", err)
	}
	return c.set(ch)
}

func (c *ColorRGB) set(ch []int) error {
	if len(ch) != 3 {
		return fmt.Errorf("color: want 3 channels, got %d", len(ch))
	}
	for _, v := range ch {
		if v < 0 || v > 255 {
			return fmt.Errorf("color: channel %d out of range", v)
		}
	}
	c.R, c.G, c.B = uint8(ch[0]), uint8(ch[1]), uint8(ch[2])
	return nil
}

// BorderStyle selects how the margin around the board is painted.
type BorderStyle int

const (
	BorderFlat BorderStyle = iota
	BorderPockmarked
	BorderGradient
)

var borderStyleNames = [...]string{"flat", "pockmarked", "gradient"}

// String returns the lowercase style name.
func (s BorderStyle) String() string {
	if s < 0 || int(s) >= len(borderStyleNames) {
		return fmt.Sprintf("BorderStyle(%d)", int(s))
	}
	return borderStyleNames[s]
}

// ParseBorderStyle is the inverse of String.
func ParseBorderStyle(name string) (BorderStyle, error) {
	for i, n := range borderStyleNames {
		if n == name {
			return BorderStyle(i), nil
		}
	}
	return 0, fmt.Errorf("unknown border style %q", name)
}

// TraitSet fully determines the colours and structure of one board.
type TraitSet struct {
	BorderColor     ColorRGB    `json:"border_color"`
	DarkColor       ColorRGB    `json:"dark_color"`
	LightColor      ColorRGB    `json:"light_color"`
	DarkLine        ColorRGB    `json:"dark_line"`
	LightLine       ColorRGB    `json:"light_line"`
	NodesPerSide    int         `json:"nodes_per_side"`
	EdgeProbability float64     `json:"edge_probability"`
	BorderStyle     BorderStyle `json:"border_style"`
}

// Fingerprint is the lowercase hex SHA-256 of a board's raw RGB pixels.
type Fingerprint string

// EmptyFingerprint is reserved; no rendered board ever hashes to it.
const EmptyFingerprint Fingerprint = ""

// Item is one accepted member of the collection.
type Item struct {
	Index         int         `json:"index"`
	Traits        TraitSet    `json:"traits"`
	Fingerprint   Fingerprint `json:"fingerprint"`
	ImageChecksum string      `json:"image_checksum"`
	CreatedAt     time.Time   `json:"created_at"`
}

// ImageName returns the artifact file name for a collection index.
func ImageName(index int) string {
	return fmt.Sprintf("%d.png", index)
}

// MetadataName returns the metadata file name for a collection index.
func MetadataName(index int) string {
	return fmt.Sprintf("%d.json", index)
}
