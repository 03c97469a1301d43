package operations

import (
	"cmp"
	"reflect"
	"runtime"
	"slices"
	"strings"

	"github.com/iancoleman/strcase"
)

// Candidate is a computation offered for registration by a Source.
// An empty Name is derived from the function name with DeriveName.
type Candidate struct {
	Name    string
	Fn      any
	Options []RegisterOption
}

// Source provides candidates for bulk discovery, typically one per function library package.
type Source interface {
	Candidates() []Candidate
}

// Library is a Source backed by a fixed list of candidates.
type Library []Candidate

// Candidates implements Source.
func (l Library) Candidates() []Candidate {
	return l
}

// SkippedCandidate records a candidate that BulkDiscover did not register.
type SkippedCandidate struct {
	Name string
	Err  error
}

// DiscoveryResult lists what BulkDiscover registered and skipped, both sorted by name.
type DiscoveryResult struct {
	Registered []string
	Skipped    []SkippedCandidate
}

// BulkDiscover registers every eligible candidate of src. Ineligible candidates, and candidates
// whose name is already taken, are logged and skipped. Candidates are never invoked.
func (r *OperationRegistry) BulkDiscover(src Source) DiscoveryResult {
	var res DiscoveryResult

	for _, c := range src.Candidates() {
		name := c.Name
		if name == "" {
			name = DeriveName(c.Fn)
		}

		if _, err := r.Register(name, c.Fn, c.Options...); err != nil {
			r.lggr.Debugw("Skipping discovered computation", "name", name, "error", err)
			res.Skipped = append(res.Skipped, SkippedCandidate{Name: name, Err: err})

			continue
		}
		r.lggr.Debugw("Registered discovered computation", "name", name)
		res.Registered = append(res.Registered, name)
	}

	slices.Sort(res.Registered)
	slices.SortFunc(res.Skipped, func(a, b SkippedCandidate) int {
		return cmp.Compare(a.Name, b.Name)
	})

	r.lggr.Infow("Discovery finished", "registered", len(res.Registered), "skipped", len(res.Skipped))

	return res
}

// DeriveName returns the snake_case name of a named Go function, e.g. "first_words" for
// textops.FirstWords. It returns an empty string for values that are not functions.
func DeriveName(fn any) string {
	if fn == nil {
		return ""
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}

	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return ""
	}

	full := rf.Name()
	full = strings.TrimSuffix(full, "-fm")
	if i := strings.LastIndex(full, "/"); i >= 0 {
		full = full[i+1:]
	}
	if i := strings.LastIndex(full, "."); i >= 0 {
		full = full[i+1:]
	}

	return strcase.ToSnake(full)
}
