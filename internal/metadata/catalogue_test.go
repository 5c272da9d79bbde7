package metadata

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xeipuuv/gojsonschema"
)

func TestNewCatalogueSortsByName(t *testing.T) {
	catalogue := NewCatalogue([]Metadata{
		{Name: "zeta", FileName: "z.lua"},
		{Name: "Alpha", FileName: "a2.lua"},
		{Name: "alpha", FileName: "a1.lua"},
		{Name: "beta", FileName: "b.lua"},
	})
	got := make([]string, 0, len(catalogue))
	for _, item := range catalogue {
		got = append(got, item.FileName)
	}
	want := "a1.lua,a2.lua,b.lua,z.lua"
	if strings.Join(got, ",") != want {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestEmptyCatalogueMarshalsAsArray(t *testing.T) {
	data, err := NewCatalogue(nil).MarshalIndent()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "[]" {
		t.Fatalf("expected empty array, got %s", data)
	}
}

func TestCatalogueValidatesAgainstSchema(t *testing.T) {
	first, _ := Parse(transposeScript, "transpose.lua")
	second, _ := Parse("function plugindef()\n    return \"Another\"\nend\n", "another.lua")
	data, err := NewCatalogue([]Metadata{first, second}).MarshalIndent()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	schemaPath, err := filepath.Abs(filepath.Join("..", "..", "testdata", "metadata", "catalogue.schema.json"))
	if err != nil {
		t.Fatalf("resolve schema path: %v", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewReferenceLoader("file://"+schemaPath),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		t.Fatalf("validate catalogue schema: %v", err)
	}
	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, item := range result.Errors() {
			messages = append(messages, item.String())
		}
		t.Fatalf("catalogue failed schema validation: %s", strings.Join(messages, "; "))
	}

	var decoded []map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded[0]["name"] != "Another" {
		t.Fatalf("expected catalogue sorted by name, got %v", decoded[0]["name"])
	}
}
