// Package metadata builds the per-board JSON records that accompany each
// image in the collection.
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/starford/chessboards/internal/models"
)

// Trait type names used in the attributes list.
const (
	TraitBorderColor  = "border-color"
	TraitDarkColor    = "dark-color"
	TraitLightColor   = "light-color"
	TraitDarkLine     = "dark-line"
	TraitLightLine    = "light-line"
	TraitNodesPerSide = "nodes-per-side"
	TraitEdge         = "p-edge"
	TraitBorderStyle  = "border-style"
)

const imageMIME = "image/png"

// Attribute is one trait entry.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     any    `json:"value"`
}

// Creator receives a share of royalties.
type Creator struct {
	Address string `json:"address"`
	Share   int    `json:"share"`
}

// File references an artifact belonging to the item.
type File struct {
	URI  string `json:"uri"`
	Type string `json:"type"`
}

// Properties groups creators and files.
type Properties struct {
	Creators []Creator `json:"creators"`
	Files    []File    `json:"files"`
}

// Record is the metadata document written next to each image.
type Record struct {
	Name                 string      `json:"name"`
	Symbol               string      `json:"symbol"`
	Description          string      `json:"description"`
	SellerFeeBasisPoints int         `json:"seller_fee_basis_points"`
	Image                string      `json:"image"`
	Attributes           []Attribute `json:"attributes"`
	Properties           Properties  `json:"properties"`
}

// Encode renders the record as indented JSON with a trailing newline.
func (r Record) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("metadata: encode: %w", err)
	}
	return append(data, '\n'), nil
}

// Settings are the collection-wide constants stamped into every record.
type Settings struct {
	CollectionName string
	Symbol         string
	// DescriptionTemplate is a text/template over DescriptionData.
	DescriptionTemplate string
	RoyaltyBPS          int
	RecipientID         string
	Total               int
}

// DescriptionData is the value the description template executes against.
type DescriptionData struct {
	Name   string
	Index  int
	Number int
	Total  int
}

// Builder produces records for a single collection.
type Builder struct {
	settings Settings
	desc     *template.Template
}

// NewBuilder parses the description template.
func NewBuilder(s Settings) (*Builder, error) {
	if s.CollectionName == "" {
		return nil, errors.New("metadata: collection name is required")
	}
	tmpl, err := template.New("description").Option("missingkey=error").Parse(s.DescriptionTemplate)
	if err != nil {
		return nil, fmt.Errorf("metadata: parse description template: %w", err)
	}
	return &Builder{settings: s, desc: tmpl}, nil
}

// Build assembles the record for the item at index.
func (b *Builder) Build(index int, ts models.TraitSet) (Record, error) {
	var desc strings.Builder
	err := b.desc.Execute(&desc, DescriptionData{
		Name:   b.settings.CollectionName,
		Index:  index,
		Number: index + 1,
		Total:  b.settings.Total,
	})
	if err != nil {
		return Record{}, fmt.Errorf("metadata: description for %d: %w", index, err)
	}

	img := models.ImageName(index)
	return Record{
		Name:                 fmt.Sprintf("%s #%d", b.settings.CollectionName, index+1),
		Symbol:               b.settings.Symbol,
		Description:          desc.String(),
		SellerFeeBasisPoints: b.settings.RoyaltyBPS,
		Image:                img,
		Attributes:           Attributes(ts),
		Properties: Properties{
			Creators: []Creator{{Address: b.settings.RecipientID, Share: 100}},
			Files:    []File{{URI: img, Type: imageMIME}},
		},
	}, nil
}

// Attributes lists every trait of ts in a fixed order.
func Attributes(ts models.TraitSet) []Attribute {
	return []Attribute{
		{TraitBorderColor, ts.BorderColor},
		{TraitDarkColor, ts.DarkColor},
		{TraitLightColor, ts.LightColor},
		{TraitDarkLine, ts.DarkLine},
		{TraitLightLine, ts.LightLine},
		{TraitNodesPerSide, ts.NodesPerSide},
		{TraitEdge, ts.EdgeProbability},
		{TraitBorderStyle, ts.BorderStyle.String()},
	}
}

// ParseTraits recovers the trait set from an encoded record. Every trait
// attribute must be present.
func ParseTraits(data []byte) (models.TraitSet, error) {
	var doc struct {
		Attributes []struct {
			TraitType string          `json:"trait_type"`
			Value     json.RawMessage `json:"value"`
		} `json:"attributes"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.TraitSet{}, fmt.Errorf("metadata: decode: %w", err)
	}

	var ts models.TraitSet
	seen := make(map[string]struct{}, len(doc.Attributes))
	for _, a := range doc.Attributes {
		var err error
		switch a.TraitType {
		case TraitBorderColor:
			err = json.Unmarshal(a.Value, &ts.BorderColor)
		case TraitDarkColor:
			err = json.Unmarshal(a.Value, &ts.DarkColor)
		case TraitLightColor:
			err = json.Unmarshal(a.Value, &ts.LightColor)
		case TraitDarkLine:
			err = json.Unmarshal(a.Value, &ts.DarkLine)
		case TraitLightLine:
			err = json.Unmarshal(a.Value, &ts.LightLine)
		case TraitNodesPerSide:
			err = json.Unmarshal(a.Value, &ts.NodesPerSide)
		case TraitEdge:
			err = json.Unmarshal(a.Value, &ts.EdgeProbability)
		case TraitBorderStyle:
			var name string
			if err = json.Unmarshal(a.Value, &name); err == nil {
				ts.BorderStyle, err = models.ParseBorderStyle(name)
			}
		default:
			continue
		}
		if err != nil {
			return models.TraitSet{}, fmt.Errorf("metadata: attribute %s: %w", a.TraitType, err)
		}
		seen[a.TraitType] = struct{}{}
	}
	for _, a := range Attributes(models.TraitSet{}) {
		if _, ok := seen[a.TraitType]; !ok {
			return models.TraitSet{}, fmt.Errorf("metadata: missing attribute %s", a.TraitType)
		}
	}
	return ts, nil
}
