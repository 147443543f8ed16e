package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newNamedTool(name, description string) *FunctionTool {
	return NewFunctionTool(name, description, map[string]any{
		"type": "object",
		"properties": map[string]any{
			"city": map[string]any{"type": "string"},
		},
		"required": []string{"city"},
	}, func(_ *Context, args map[string]any) (any, error) {
		return args["city"], nil
	})
}

// -------------------- Registration & Lookup --------------------

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	wt := newNamedTool("get_weather", "Get current weather for a city")
	r.Register(wt)

	entry, ok := r.Get("get_weather")
	assert.True(t, ok)
	assert.Equal(t, wt.Name(), entry.Name)
	assert.Equal(t, wt.Description(), entry.Description)
	assert.True(t, r.Has("get_weather"))
	assert.Equal(t, 1, r.Count())
}

func TestRegistry_OverwriteKeepsCount(t *testing.T) {
	r := NewRegistry()
	r.Register(newNamedTool("get_weather", "v1 description"))
	r.Register(newNamedTool("get_weather", "v2 description"))

	assert.Equal(t, 1, r.Count())
	entry, _ := r.Get("get_weather")
	assert.Equal(t, "v2 description", entry.Description)
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry()
	r.Register(newNamedTool("get_weather", "Weather"))

	assert.True(t, r.Unregister("get_weather"))
	assert.False(t, r.Has("get_weather"))
	assert.Equal(t, 0, r.Count())

	// Second removal reports false
	assert.False(t, r.Unregister("get_weather"))
}

// -------------------- Filtering & Search --------------------

func TestRegistry_ListByCategoryAndTag(t *testing.T) {
	r := NewRegistry()
	r.Register(newNamedTool("get_weather", "Weather lookup"), WithCategory("web"), WithTags("weather", "external"))
	r.Register(newNamedTool("get_forecast", "Weather forecast"), WithCategory("web"), WithTags("weather"))
	r.Register(newNamedTool("calculate_sum", "Add numbers"), WithCategory("math"))

	web := r.ListByCategory("web")
	assert.Len(t, web, 2)

	math := r.ListByCategory("math")
	assert.Len(t, math, 1)
	assert.Equal(t, "calculate_sum", math[0].Name)

	tagged := r.ListByTag("external")
	assert.Len(t, tagged, 1)
	assert.Equal(t, "get_weather", tagged[0].Name)

	assert.Empty(t, r.ListByCategory("missing"))
	assert.Empty(t, r.ListByTag("missing"))
}

func TestRegistry_SearchCaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(newNamedTool("get_weather", "Get current Weather for a city"))
	r.Register(newNamedTool("forecast", "Five day WEATHER forecast"))
	r.Register(newNamedTool("calculate_sum", "Add numbers"))

	results := r.Search("weather")
	assert.Len(t, results, 2)
	names := []string{results[0].Name, results[1].Name}
	assert.ElementsMatch(t, []string{"get_weather", "forecast"}, names)

	assert.Empty(t, r.Search("nonexistent"))
}

func TestRegistry_ListAllSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(newNamedTool("zeta", "Last"))
	r.Register(newNamedTool("alpha", "First"))

	all := r.ListAll()
	assert.Len(t, all, 2)
	assert.Equal(t, "alpha", all[0].Name)
	assert.Equal(t, "zeta", all[1].Name)
}

// -------------------- Argument Validation --------------------

func TestRegistry_ValidateArgs(t *testing.T) {
	r := NewRegistry()
	r.Register(newNamedTool("get_weather", "Weather"))

	// Valid
	res := r.ValidateArgs("get_weather", map[string]any{"city": "Berlin"})
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)

	// Missing required field
	res = r.ValidateArgs("get_weather", map[string]any{})
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Errors)

	// Unknown tool yields the distinguished message, not an error
	res = r.ValidateArgs("unknown_tool", map[string]any{})
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors[0], "not found in registry")
}
