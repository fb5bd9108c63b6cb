package metadata

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/starford/chessboards/internal/models"
)

func testSettings() Settings {
	return Settings{
		CollectionName:      "ShaChessboard",
		Symbol:              "SHACHESS",
		DescriptionTemplate: "#{{.Number}}/{{.Total}} of the genesis Shachess Chessboards",
		RoyaltyBPS:          500,
		RecipientID:         "wallet-1",
		Total:               500,
	}
}

func classicTraits() models.TraitSet {
	return models.TraitSet{
		BorderColor:     models.RGB(0, 0, 0),
		DarkColor:       models.RGB(0, 0, 0),
		LightColor:      models.RGB(255, 255, 255),
		DarkLine:        models.RGB(76, 76, 76),
		LightLine:       models.RGB(178, 178, 178),
		NodesPerSide:    1,
		EdgeProbability: 0.15,
		BorderStyle:     models.BorderFlat,
	}
}

func TestBuildRecord(t *testing.T) {
	b, err := NewBuilder(testSettings())
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	rec, err := b.Build(41, classicTraits())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rec.Name != "ShaChessboard #42" {
		t.Errorf("name = %q", rec.Name)
	}
	if rec.Description != "#42/500 of the genesis Shachess Chessboards" {
		t.Errorf("description = %q", rec.Description)
	}
	if rec.Image != "41.png" {
		t.Errorf("image = %q", rec.Image)
	}
	if rec.SellerFeeBasisPoints != 500 {
		t.Errorf("fee = %d", rec.SellerFeeBasisPoints)
	}
	if len(rec.Attributes) != 8 {
		t.Errorf("attributes = %d, want 8", len(rec.Attributes))
	}
	if len(rec.Properties.Creators) != 1 || rec.Properties.Creators[0].Share != 100 || rec.Properties.Creators[0].Address != "wallet-1" {
		t.Errorf("creators = %+v", rec.Properties.Creators)
	}
	if len(rec.Properties.Files) != 1 || rec.Properties.Files[0].URI != "41.png" || rec.Properties.Files[0].Type != "image/png" {
		t.Errorf("files = %+v", rec.Properties.Files)
	}
}

func TestEncodeJSONShape(t *testing.T) {
	b, err := NewBuilder(testSettings())
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	rec, _ := b.Build(0, classicTraits())
	data, err := rec.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var doc struct {
		Name       string `json:"name"`
		Attributes []struct {
			TraitType string          `json:"trait_type"`
			Value     json.RawMessage `json:"value"`
		} `json:"attributes"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal: %v\n%s", err, data)
	}
	if doc.Name != "ShaChessboard #1" {
		t.Errorf("name = %q", doc.Name)
	}

	want := map[string]string{
		TraitBorderColor:  "[0,0,0]",
		TraitLightColor:   "[255,255,255]",
		TraitDarkLine:     "[76,76,76]",
		TraitNodesPerSide: "1",
		TraitEdge:         "0.15",
		TraitBorderStyle:  `"flat"`,
	}
	for _, a := range doc.Attributes {
		w, ok := want[a.TraitType]
		if !ok {
			continue
		}
		got := strings.Join(strings.Fields(string(a.Value)), "")
		if got != w {
			t.Errorf("%s = %s, want %s", a.TraitType, got, w)
		}
	}

	if !strings.Contains(string(data), `"seller_fee_basis_points": 500`) {
		t.Errorf("missing royalty field:\n%s", data)
	}
}

func TestAttributeOrder(t *testing.T) {
	order := []string{
		TraitBorderColor, TraitDarkColor, TraitLightColor, TraitDarkLine,
		TraitLightLine, TraitNodesPerSide, TraitEdge, TraitBorderStyle,
	}
	attrs := Attributes(classicTraits())
	for i, name := range order {
		if attrs[i].TraitType != name {
			t.Errorf("attribute %d = %s, want %s", i, attrs[i].TraitType, name)
		}
	}
}

func TestNewBuilderErrors(t *testing.T) {
	s := testSettings()
	s.DescriptionTemplate = "{{.Number"
	if _, err := NewBuilder(s); err == nil {
		t.Error("bad template should fail")
	}

	s = testSettings()
	s.CollectionName = ""
	if _, err := NewBuilder(s); err == nil {
		t.Error("empty name should fail")
	}
}

func TestBuildUnknownTemplateField(t *testing.T) {
	s := testSettings()
	s.DescriptionTemplate = "{{.Missing}}"
	b, err := NewBuilder(s)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	if _, err := b.Build(0, classicTraits()); err == nil {
		t.Error("unknown field should fail at execution")
	}
}

func TestParseTraitsRoundTrip(t *testing.T) {
	b, err := NewBuilder(testSettings())
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	want := classicTraits()
	want.BorderStyle = models.BorderGradient
	want.NodesPerSide = 3
	rec, err := b.Build(2, want)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	data, err := rec.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := ParseTraits(data)
	if err != nil {
		t.Fatalf("ParseTraits: %v", err)
	}
	if got != want {
		t.Errorf("traits = %+v, want %+v", got, want)
	}
}

func TestParseTraitsErrors(t *testing.T) {
	cases := map[string]string{
		"not json":          `{`,
		"no attributes":     `{}`,
		"missing style":     `{"attributes":[{"trait_type":"border-color","value":[0,0,0]}]}`,
		"bad color":         `{"attributes":[{"trait_type":"border-color","value":[0,0]}]}`,
		"unknown style":     `{"attributes":[{"trait_type":"border-style","value":"wavy"}]}`,
		"nodes not integer": `{"attributes":[{"trait_type":"nodes-per-side","value":"two"}]}`,
	}
	for name, doc := range cases {
		if _, err := ParseTraits([]byte(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
