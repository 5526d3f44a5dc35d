package judge

import "time"

// Strategy is how the Execution Engine drives a sandboxed run across
// multiple test cases: one process fed every test case at once, or one
// process per test case.
type Strategy string

const (
	StrategyBatch      Strategy = "batch"
	StrategyIndividual Strategy = "individual"
)

// LanguageConfig describes how to compile and run submissions in one
// language inside the sandbox.
type LanguageConfig struct {
	Slug            string
	Image           string
	Strategy        Strategy
	NeedsCompile    bool
	SourceFilename  string
	CompileCommand  []string // empty when NeedsCompile is false
	RunCommand      []string
}

// languages mirrors the language table a judging backend carries: Python
// runs in BATCH mode (one container whose batch runner starts a python3
// subprocess per test case), compiled languages run INDIVIDUAL (one process per test case,
// since compilation already pays the startup cost once).
var languages = map[string]LanguageConfig{
	"python3": {
		Slug:           "python3",
		Image:          "python:3.12-slim",
		Strategy:       StrategyBatch,
		NeedsCompile:   false,
		SourceFilename: "solution.py",
		RunCommand:     []string{"python3", "/app/solution.py"},
	},
	"python": {
		Slug:           "python",
		Image:          "python:3.12-slim",
		Strategy:       StrategyBatch,
		NeedsCompile:   false,
		SourceFilename: "solution.py",
		RunCommand:     []string{"python3", "/app/solution.py"},
	},
	"java": {
		Slug:           "java",
		Image:          "eclipse-temurin:21-jdk",
		Strategy:       StrategyIndividual,
		NeedsCompile:   true,
		SourceFilename: "Solution.java", // javac requires the public class filename to match
		CompileCommand: []string{"javac", "-d", "/app", "/app/Solution.java"},
		RunCommand:     []string{"java", "-cp", "/app", "Solution"},
	},
	"c": {
		Slug:           "c",
		Image:          "gcc:13",
		Strategy:       StrategyIndividual,
		NeedsCompile:   true,
		SourceFilename: "solution.c",
		CompileCommand: []string{"gcc", "-O2", "-std=c17", "-o", "/app/solution", "/app/solution.c"},
		RunCommand:     []string{"/app/solution"},
	},
}

// LanguageBySlug looks up a language's sandbox configuration.
func LanguageBySlug(slug string) (LanguageConfig, bool) {
	cfg, ok := languages[slug]
	return cfg, ok
}

// SupportedLanguageSlugs lists every slug LanguageBySlug recognizes.
func SupportedLanguageSlugs() []string {
	slugs := make([]string, 0, len(languages))
	for slug := range languages {
		slugs = append(slugs, slug)
	}
	return slugs
}

// ResourceLimits bounds what a single submission's sandbox run may consume.
type ResourceLimits struct {
	TimeLimitPerTest  time.Duration
	MaxTotalTimeout   time.Duration
	CompilationTimeout time.Duration
	MemoryLimit       string // docker --memory syntax, e.g. "256m"
	MemorySwapLimit   string
	CPULimit          string // docker --cpus syntax, e.g. "1.0"
	MaxPIDs           int64
	MaxOpenFiles      int64
	MaxStdoutBytes    int
	MaxStderrBytes    int
}

// DefaultLimits is the limits profile LimitsForContext returns for the
// "default" submission context and for an empty or unrecognized one.
var DefaultLimits = ResourceLimits{
	TimeLimitPerTest:   2 * time.Second,
	MaxTotalTimeout:    60 * time.Second,
	CompilationTimeout: 30 * time.Second,
	MemoryLimit:        "256m",
	MemorySwapLimit:    "256m",
	CPULimit:           "1.0",
	MaxPIDs:            128,
	MaxOpenFiles:       64,
	MaxStdoutBytes:     1 << 20,
	MaxStderrBytes:     512 << 10,
}

// ContestLimits tightens DefaultLimits for timed-contest submissions, which
// need fast turnaround more than generous headroom.
var ContestLimits = ResourceLimits{
	TimeLimitPerTest:   1 * time.Second,
	MaxTotalTimeout:    30 * time.Second,
	CompilationTimeout: 20 * time.Second,
	MemoryLimit:        "256m",
	MemorySwapLimit:    "256m",
	CPULimit:           "1.0",
	MaxPIDs:            64,
	MaxOpenFiles:       64,
	MaxStdoutBytes:     1 << 20,
	MaxStderrBytes:     512 << 10,
}

// PracticeLimits relaxes DefaultLimits for untimed practice submissions.
var PracticeLimits = ResourceLimits{
	TimeLimitPerTest:   5 * time.Second,
	MaxTotalTimeout:    120 * time.Second,
	CompilationTimeout: 30 * time.Second,
	MemoryLimit:        "512m",
	MemorySwapLimit:    "512m",
	CPULimit:           "1.0",
	MaxPIDs:            128,
	MaxOpenFiles:       64,
	MaxStdoutBytes:     2 << 20,
	MaxStderrBytes:     1 << 20,
}

// SubmissionContext selects which ResourceLimits preset governs a
// submission's sandboxed run.
type SubmissionContext string

const (
	ContextDefault  SubmissionContext = "default"
	ContextContest  SubmissionContext = "contest"
	ContextPractice SubmissionContext = "practice"
)

// LimitsForContext resolves a submission context to its ResourceLimits
// preset, falling back to DefaultLimits for an empty or unrecognized value.
func LimitsForContext(context SubmissionContext) ResourceLimits {
	switch context {
	case ContextContest:
		return ContestLimits
	case ContextPractice:
		return PracticeLimits
	default:
		return DefaultLimits
	}
}
