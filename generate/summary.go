package generate

import (
	"sort"
	"time"

	"github.com/nodetool-ai/nodetool-sdk/discovery"
	"github.com/nodetool-ai/nodetool-sdk/typegen"
)

// Summary is the outcome of one run
type Summary struct {
	RunID     string
	Mode      Mode
	OutputDir string

	// Packages lists every package discovery considered
	Packages []discovery.PackageReport

	// Types and Nodes hold per-package stage results, sorted by package
	Types []typegen.PackageResult
	Nodes []typegen.PackageResult

	// Registry is the path of the registry file, empty when none was written
	Registry string

	// OutputErrors counts cleanup and registry failures
	OutputErrors int

	Duration time.Duration
}

// Generated counts every file written
func (s *Summary) Generated() int {
	n := 0
	for _, r := range s.results() {
		n += r.Generated
		if r.Summary != "" {
			n++
		}
	}
	if s.Registry != "" {
		n++
	}
	return n
}

// Errors counts every recoverable failure
func (s *Summary) Errors() int {
	n := s.OutputErrors
	for _, r := range s.results() {
		n += r.Errors
	}
	for _, p := range s.Packages {
		n += p.ModulesFailed + p.Rejected
	}
	return n
}

func (s *Summary) results() []typegen.PackageResult {
	out := make([]typegen.PackageResult, 0, len(s.Types)+len(s.Nodes))
	out = append(out, s.Types...)
	return append(out, s.Nodes...)
}

// Row is one line of the run-end report
type Row struct {
	Package string `json:"package"`
	Origin  string `json:"origin"`
	Types   int    `json:"types"`
	Nodes   int    `json:"nodes"`
	Errors  int    `json:"errors"`
	Note    string `json:"note,omitempty"`
}

// Rows merges discovery reports with stage results, one row per package,
// sorted by package name. Failed packages show up with zero classes.
func (s *Summary) Rows() []Row {
	rows := make(map[string]*Row)
	get := func(pkg string) *Row {
		if r, ok := rows[pkg]; ok {
			return r
		}
		r := &Row{Package: pkg}
		rows[pkg] = r
		return r
	}

	for _, p := range s.Packages {
		r := get(p.Package)
		r.Origin = p.Origin
		r.Errors += p.ModulesFailed + p.Rejected
		switch {
		case p.Skipped != "":
			r.Note = p.Skipped
		case p.ModulesFailed > 0 && r.Note == "":
			r.Note = "some modules failed to load"
		case p.Rejected > 0 && r.Note == "":
			r.Note = "some class names are not identifiers"
		}
	}
	for _, res := range s.Types {
		r := get(res.Package)
		r.Types += res.Generated
		r.Errors += res.Errors
	}
	for _, res := range s.Nodes {
		r := get(res.Package)
		r.Nodes += res.Generated
		r.Errors += res.Errors
	}

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Package < out[j].Package })
	return out
}

// Row returns the row of one package
func (s *Summary) Row(pkg string) (Row, bool) {
	for _, r := range s.Rows() {
		if r.Package == pkg {
			return r, true
		}
	}
	return Row{}, false
}
