package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPromptTruncatesPageText(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 20000)
	prompt := BuildPrompt(long, "https://shop.example.com/products/mug", 12000)

	require.Contains(t, prompt, "https://shop.example.com/products/mug")
	require.Contains(t, prompt, "Return ONLY a JSON object")
	require.LessOrEqual(t, strings.Count(prompt, "x"), 12000)
}

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	raw, err := ExtractJSON("Sure! Here is the data:\n```json\n{\"name\": \"Mug\"}\n```")
	require.NoError(t, err)
	require.JSONEq(t, `{"name": "Mug"}`, raw)

	_, err = ExtractJSON("I could not find any product data.")
	require.Error(t, err)
}

func TestResponsePayloadFields(t *testing.T) {
	t.Parallel()

	payload := responsePayload{
		ID:           []byte(`7890123`),
		Name:         "Blue Mug",
		Vendor:       "Example Co",
		Type:         "Drinkware",
		Price:        []byte(`"34.95"`),
		SKU:          "MUG-1",
		Description:  "A blue mug.",
		Availability: "in stock",
		Tags:         []string{"ceramic"},
		Images:       []string{"https://cdn.shopify.com/x.jpg"},
	}
	fields := payload.fields()

	require.Equal(t, "7890123", fields.ID)
	require.Equal(t, "Blue Mug", fields.Title)
	require.Equal(t, "Example Co", fields.Vendor)
	require.Equal(t, "Drinkware", fields.ProductType)
	require.Equal(t, "34.95", fields.Price)
	require.Equal(t, "MUG-1", fields.SKU)
	require.Equal(t, "in stock", fields.Availability)
}

func TestFlexString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "34.95", flexString([]byte(`"34.95"`)))
	require.Equal(t, "35", flexString([]byte(`35`)))
	require.Equal(t, "34.95", flexString([]byte(`34.95`)))
	require.Empty(t, flexString([]byte(`null`)))
	require.Empty(t, flexString(nil))
}

func TestEnvKeyResolver(t *testing.T) {
	t.Setenv(DefaultEnvVar, "env-key")
	resolve := EnvKeyResolver(DefaultEnvVar, nil, nil)
	key, err := resolve()
	require.NoError(t, err)
	require.Equal(t, "env-key", key)
}

func TestEnvKeyResolverPromptsWhenUnset(t *testing.T) {
	t.Setenv(DefaultEnvVar, "")

	var out strings.Builder
	resolve := EnvKeyResolver(DefaultEnvVar, strings.NewReader("typed-key\n"), &out)
	key, err := resolve()
	require.NoError(t, err)
	require.Equal(t, "typed-key", key)
	require.Contains(t, out.String(), "Gemini API key")

	resolve = EnvKeyResolver(DefaultEnvVar, strings.NewReader("\n"), &out)
	_, err = resolve()
	require.Error(t, err)
}

func TestStaticKeyResolver(t *testing.T) {
	t.Parallel()

	key, err := StaticKeyResolver("abc")()
	require.NoError(t, err)
	require.Equal(t, "abc", key)

	_, err = StaticKeyResolver("")()
	require.Error(t, err)
}
