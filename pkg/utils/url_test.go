package utils

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashURL(t *testing.T) {
	a := HashURL("https://example.com/products/a")
	b := HashURL("https://example.com/products/b")

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, HashURL("https://example.com/products/a"))
}

func TestToAbsoluteURL(t *testing.T) {
	base, err := url.Parse("https://hairbeautymart.com.au/collections/shampoo")
	require.NoError(t, err)

	abs, err := ToAbsoluteURL(base, "/products/silk-shampoo")
	require.NoError(t, err)
	assert.Equal(t, "https://hairbeautymart.com.au/products/silk-shampoo", abs)

	abs, err = ToAbsoluteURL(base, "https://other.com/products/x")
	require.NoError(t, err)
	assert.Equal(t, "https://other.com/products/x", abs)
}

func TestEnsureProtocol(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/x.jpg", EnsureProtocol("//cdn.example.com/x.jpg"))
	assert.Equal(t, "https://cdn.example.com/x.jpg", EnsureProtocol("https://cdn.example.com/x.jpg"))
	assert.Equal(t, "/media/x.jpg", EnsureProtocol("/media/x.jpg"))
}

func TestTitleFromSlug(t *testing.T) {
	assert.Equal(t, "Hair Care", TitleFromSlug("https://example.com/collections/hair-care"))
	assert.Equal(t, "Silk Shampoo", TitleFromSlug("/products/silk-shampoo/"))
}

func TestTitleFromSlugMultibyte(t *testing.T) {
	assert.Equal(t, "Émile Brush", TitleFromSlug("/products/émile-brush"))
	assert.Equal(t, "Ökö Serum", TitleFromSlug("/products/ökö-serum/"))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "hair-care", Slugify("Hair Care"))
	assert.Equal(t, "40-off-sale", Slugify("40% Off — Sale!"))
	assert.Equal(t, "shampoo", Slugify("  Shampoo  "))
}
