package motif

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateName(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 50; i++ {
		name := GenerateName(rng, CategoryChaos, ScopeRegional)
		assert.NotEmpty(t, name)
		assert.True(t, strings.HasPrefix(name, "The") || strings.HasPrefix(name, "A"),
			"unexpected prefix in %q", name)
		// Prefix, adjective, noun at minimum.
		assert.GreaterOrEqual(t, len(strings.Fields(name)), 3)
	}

	// Categories outside the adjective table still produce names.
	name := GenerateName(rng, CategoryMystery, ScopeLocal)
	assert.NotEmpty(t, name)
}

func TestGenerateDescription(t *testing.T) {
	desc := GenerateDescription(CategoryChaos, ScopeRegional, 5.0)
	assert.Contains(t, strings.ToLower(desc), "disorder")
	assert.Contains(t, desc, "kingdoms")

	high := GenerateDescription(CategoryBetrayal, ScopeGlobal, 8.5)
	assert.Contains(t, strings.ToLower(high), "overwhelming")

	low := GenerateDescription(CategoryHope, ScopeLocal, 2.0)
	assert.Contains(t, strings.ToLower(low), "subtle")

	// Unlisted categories fall back to a generic template.
	generic := GenerateDescription(CategoryMystery, ScopeLocal, 4.0)
	assert.Contains(t, generic, "mystery")
}

func TestGenerateDuration(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for i := 0; i < 100; i++ {
		global := GenerateDuration(rng, ScopeGlobal, 5.0)
		assert.GreaterOrEqual(t, global, 1)
		assert.Greater(t, global, 10, "global motifs should run for weeks")

		local := GenerateDuration(rng, ScopeLocal, 3.0)
		assert.GreaterOrEqual(t, local, 1)
		assert.Less(t, local, 20)

		regional := GenerateDuration(rng, ScopeRegional, 4.0)
		assert.GreaterOrEqual(t, regional, 1)
	}
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "", SanitizeName("   "))
	assert.Equal(t, "The Rising Dawn", SanitizeName("  the   rising    dawn "))

	long := SanitizeName(strings.Repeat("abc ", 60))
	assert.LessOrEqual(t, len(long), 100)
	assert.True(t, strings.HasSuffix(long, "..."))
}

func TestNormalizeDescription(t *testing.T) {
	assert.Equal(t, "", NormalizeDescription(""))
	assert.Equal(t, "A shadow falls.", NormalizeDescription("  A  shadow   falls "))
	assert.Equal(t, "Is it over?", NormalizeDescription("Is it over?"))

	long := NormalizeDescription(strings.Repeat("lorem ipsum ", 60))
	assert.LessOrEqual(t, len(long), 500)
}
