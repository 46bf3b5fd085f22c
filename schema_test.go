package loom

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type weatherParams struct {
	City  string  `json:"city" desc:"City name" required:"true"`
	Units string  `json:"units" enum:"celsius,fahrenheit"`
	Days  int     `json:"days"`
	Lat   float64 `json:"lat"`
	Metric bool   `json:"metric"`
}

func decodeSchema(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var schema map[string]any
	require.NoError(t, json.Unmarshal(raw, &schema))
	return schema
}

func TestSchemaFromStruct(t *testing.T) {
	schema := decodeSchema(t, SchemaFrom[weatherParams]().Build())

	assert.Equal(t, "object", schema["type"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)

	city := props["city"].(map[string]any)
	assert.Equal(t, "string", city["type"])
	assert.Equal(t, "City name", city["description"])

	units := props["units"].(map[string]any)
	assert.ElementsMatch(t, []any{"celsius", "fahrenheit"}, units["enum"])

	assert.Equal(t, "integer", props["days"].(map[string]any)["type"])
	assert.Equal(t, "number", props["lat"].(map[string]any)["type"])
	assert.Equal(t, "boolean", props["metric"].(map[string]any)["type"])

	required, ok := schema["required"].([]any)
	require.True(t, ok)
	assert.Contains(t, required, "city")
}

func TestSchemaBuilderOverrides(t *testing.T) {
	raw := SchemaFrom[weatherParams]().
		Desc("units", "Temperature units").
		Required("units").
		Build()

	schema := decodeSchema(t, raw)
	props := schema["properties"].(map[string]any)
	assert.Equal(t, "Temperature units", props["units"].(map[string]any)["description"])

	required := schema["required"].([]any)
	assert.Contains(t, required, "city")
	assert.Contains(t, required, "units")
}

func TestSchemaFromNested(t *testing.T) {
	type inner struct {
		Street string `json:"street" required:"true"`
	}
	type outer struct {
		Name    string   `json:"name"`
		Address inner    `json:"address"`
		Tags    []string `json:"tags"`
	}

	schema := decodeSchema(t, SchemaFrom[outer]().Build())
	props := schema["properties"].(map[string]any)

	address := props["address"].(map[string]any)
	assert.Equal(t, "object", address["type"])
	inner2 := address["properties"].(map[string]any)
	assert.Equal(t, "string", inner2["street"].(map[string]any)["type"])
	assert.Contains(t, address["required"].([]any), "street")

	tags := props["tags"].(map[string]any)
	assert.Equal(t, "array", tags["type"])
	assert.Equal(t, "string", tags["items"].(map[string]any)["type"])
}

func TestSchemaFromNonStruct(t *testing.T) {
	schema := decodeSchema(t, SchemaFrom[string]().Build())
	assert.Equal(t, "object", schema["type"])
	assert.Empty(t, schema["properties"])
}

func TestMustSchemaFor(t *testing.T) {
	raw := MustSchemaFor[weatherParams]()
	assert.True(t, json.Valid(raw))
}
