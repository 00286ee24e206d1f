package tools

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// Tool defines the interface for all agent capabilities.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any // JSON Schema for the tool's inputs
	Execute(ctx context.Context, input string) (string, error)
}

// Registry manages the set of available tools. Registration and
// unregistration happen between runs, never mid-run, but the registry
// may be shared by concurrent runs, so access is mutex-guarded and
// resolution works against a snapshot taken at call time.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

func (r *Registry) Get(name string) Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a consistent copy of the registered tools, sorted by
// name. One call resolves and describes against one snapshot.
func (r *Registry) Snapshot() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Tool, 0, len(names))
	for _, name := range names {
		out = append(out, r.tools[name])
	}
	return out
}

// Resolve maps a requested action name to a registered tool,
// best-effort. Exact match wins, then a normalized match, then
// substring containment either way, then the smallest edit distance
// within a tolerance. Candidates are visited in name order, so
// resolving the same name against an unchanged registry always yields
// the same tool.
func (r *Registry) Resolve(name string) Tool {
	snapshot := r.Snapshot()

	for _, t := range snapshot {
		if t.Name() == name {
			return t
		}
	}

	want := normalizeName(name)
	if want == "" {
		return nil
	}

	for _, t := range snapshot {
		if normalizeName(t.Name()) == want {
			return t
		}
	}

	for _, t := range snapshot {
		have := normalizeName(t.Name())
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return t
		}
	}

	var best Tool
	bestDist := -1
	for _, t := range snapshot {
		d := editDistance(want, normalizeName(t.Name()))
		if d <= maxEditDistance(want) && (bestDist < 0 || d < bestDist) {
			best = t
			bestDist = d
		}
	}
	return best
}

// Descriptions formats tool names and descriptions for prompt text.
func (r *Registry) Descriptions() string {
	var lines []string
	for _, t := range r.Snapshot() {
		lines = append(lines, "- "+t.Name()+": "+t.Description())
	}
	return strings.Join(lines, "\n")
}

// LLMTools converts the registry snapshot into the model backend's
// function-calling format.
func (r *Registry) LLMTools() []llms.Tool {
	var out []llms.Tool
	for _, t := range r.Snapshot() {
		out = append(out, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return out
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, " ", "_")
	return name
}

// maxEditDistance scales the fuzzy tolerance with the name length so
// short names like "web" never match unrelated tools.
func maxEditDistance(name string) int {
	d := len(name) / 3
	if d > 3 {
		d = 3
	}
	return d
}

func editDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
