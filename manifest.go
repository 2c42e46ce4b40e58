package harvest

import (
	"fmt"
	"net/url"
	"strings"
)

// Manifest is the ordered catalog of documentation to harvest.
// Categories and their sub-items keep the order they had in the source file.
type Manifest struct {
	Categories []*Category
}

// Category groups sub-items whose artifacts share one output directory.
type Category struct {
	Name string

	// Directory is used verbatim as a path segment below the output root
	// and must be unique across categories.
	Directory string

	SubItems []*SubItem
}

// SubItem describes a single documentation page.
type SubItem struct {
	Name string

	// ModuleName is the artifact filename stem and the idempotency key
	// within the category directory.
	ModuleName string

	SourceURL string
}

// Job is one unit of work derived from a sub-item. Jobs are values and are
// never mutated after expansion.
type Job struct {
	CategoryName string
	CategoryDir  string
	SubItemName  string
	ModuleName   string
	SourceURL    string
}

// JobGroup holds the jobs of one category in manifest order.
type JobGroup struct {
	CategoryName string
	CategoryDir  string
	Jobs         []Job
}

// Problems returns every validation problem found in the manifest.
// It does not stop at the first problem.
func (m *Manifest) Problems() []string {
	var problems []string
	seen := make(map[string]string)

	for _, c := range m.Categories {
		switch {
		case c.Directory == "":
			problems = append(problems, fmt.Sprintf("category %q: missing directory", c.Name))
		case !ValidPathSegment(c.Directory):
			problems = append(problems, fmt.Sprintf("category %q: directory %q must be a single path segment", c.Name, c.Directory))
		case seen[c.Directory] != "":
			problems = append(problems, fmt.Sprintf("category %q: directory %q already used by category %q", c.Name, c.Directory, seen[c.Directory]))
		default:
			seen[c.Directory] = c.Name
		}

		if len(c.SubItems) == 0 {
			problems = append(problems, fmt.Sprintf("category %q: missing sub_modules", c.Name))
			continue
		}

		for _, s := range c.SubItems {
			if s.ModuleName == "" {
				problems = append(problems, fmt.Sprintf("category %q, sub-module %q: missing module_name", c.Name, s.Name))
			} else if !ValidPathSegment(s.ModuleName) {
				problems = append(problems, fmt.Sprintf("category %q, sub-module %q: module_name %q must be a single path segment", c.Name, s.Name, s.ModuleName))
			}
			if s.SourceURL == "" {
				problems = append(problems, fmt.Sprintf("category %q, sub-module %q: missing url", c.Name, s.Name))
			} else if !ValidURL(s.SourceURL) {
				problems = append(problems, fmt.Sprintf("category %q, sub-module %q: invalid url %q", c.Name, s.Name, s.SourceURL))
			}
		}
	}

	return problems
}

// Validate returns an ECONFIG error listing every problem, or nil.
func (m *Manifest) Validate() error {
	problems := m.Problems()
	if len(problems) == 0 {
		return nil
	}
	return Errorf(ECONFIG, "invalid manifest: %s", strings.Join(problems, "; "))
}

// ExpandJobs returns one job per sub-item, grouped by category, in manifest
// order. Sub-items sharing a module name are kept as separate jobs.
func (m *Manifest) ExpandJobs() []JobGroup {
	groups := make([]JobGroup, 0, len(m.Categories))
	for _, c := range m.Categories {
		g := JobGroup{
			CategoryName: c.Name,
			CategoryDir:  c.Directory,
			Jobs:         make([]Job, 0, len(c.SubItems)),
		}
		for _, s := range c.SubItems {
			g.Jobs = append(g.Jobs, Job{
				CategoryName: c.Name,
				CategoryDir:  c.Directory,
				SubItemName:  s.Name,
				ModuleName:   s.ModuleName,
				SourceURL:    s.SourceURL,
			})
		}
		groups = append(groups, g)
	}
	return groups
}

// TotalJobs returns the number of jobs ExpandJobs produces.
func (m *Manifest) TotalJobs() int {
	var n int
	for _, c := range m.Categories {
		n += len(c.SubItems)
	}
	return n
}

// FindCategory returns the category with the given name, or nil.
func (m *Manifest) FindCategory(name string) *Category {
	for _, c := range m.Categories {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Only returns a manifest holding the named categories, in the order
// given. An unknown name is an ECONFIG error.
func (m *Manifest) Only(names ...string) (*Manifest, error) {
	sub := &Manifest{}
	for _, name := range names {
		c := m.FindCategory(name)
		if c == nil {
			return nil, Errorf(ECONFIG, "unknown category %q", name)
		}
		sub.Categories = append(sub.Categories, c)
	}
	return sub, nil
}

// FindModule returns the job for the first sub-item with the given module name.
func (m *Manifest) FindModule(moduleName string) (Job, bool) {
	for _, g := range m.ExpandJobs() {
		for _, j := range g.Jobs {
			if j.ModuleName == moduleName {
				return j, true
			}
		}
	}
	return Job{}, false
}

// ValidPathSegment reports whether s can name a file or directory directly
// below its parent without escaping it.
func ValidPathSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, "/\\\x00")
}

// ValidURL reports whether raw is an absolute http or https URL with a host.
func ValidURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}
