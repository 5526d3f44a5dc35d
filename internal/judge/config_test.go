package judge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguageBySlugKnown(t *testing.T) {
	for _, slug := range []string{"python3", "python", "java", "c"} {
		cfg, ok := LanguageBySlug(slug)
		require.True(t, ok, "expected %q to be a known language", slug)
		assert.Equal(t, slug, cfg.Slug)
		assert.NotEmpty(t, cfg.Image, "LanguageBySlug(%q) has no image", slug)
		assert.NotEmpty(t, cfg.RunCommand, "LanguageBySlug(%q) has no run command", slug)
		if cfg.NeedsCompile {
			assert.NotEmpty(t, cfg.CompileCommand, "LanguageBySlug(%q) needs compile but has no compile command", slug)
		}
	}
}

func TestLanguageBySlugUnknown(t *testing.T) {
	_, ok := LanguageBySlug("cobol")
	assert.False(t, ok, "expected cobol to be unsupported")
}

func TestSupportedLanguageSlugs(t *testing.T) {
	slugs := SupportedLanguageSlugs()
	want := map[string]bool{"python3": true, "python": true, "java": true, "c": true}
	require.Len(t, slugs, len(want))
	for _, s := range slugs {
		assert.True(t, want[s], "unexpected slug %q", s)
	}
}

func TestLimitsForContext(t *testing.T) {
	cases := []struct {
		context SubmissionContext
		want    ResourceLimits
	}{
		{ContextContest, ContestLimits},
		{ContextPractice, PracticeLimits},
		{ContextDefault, DefaultLimits},
		{SubmissionContext(""), DefaultLimits},
		{SubmissionContext("unknown"), DefaultLimits},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, LimitsForContext(c.context))
	}
}

func TestStrategyAssignment(t *testing.T) {
	python, _ := LanguageBySlug("python3")
	assert.Equal(t, StrategyBatch, python.Strategy)
	java, _ := LanguageBySlug("java")
	assert.Equal(t, StrategyIndividual, java.Strategy)
}
