package main

import (
	"fmt"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/yaml"
)

// Run executes the run command.
func (c *RunCmd) Run(deps *Dependencies) error {
	m, err := yaml.LoadManifestFile(deps.Config.Manifest)
	if err != nil {
		return err
	}
	if len(c.Only) > 0 {
		if m, err = m.Only(c.Only...); err != nil {
			return err
		}
	}

	report, err := deps.Orchestrator.Run(deps.Ctx, m, newProgress(deps.Stdout))
	if harvest.ErrorCode(err) == harvest.ECONFIG {
		printProblems(deps.Stderr, m)
		return err
	}
	printSummary(deps.Stdout, report)
	if err != nil {
		return err
	}
	return checkStrict(c.Strict, report)
}

// Run executes the flat command.
func (c *FlatCmd) Run(deps *Dependencies) error {
	urls, err := c.discover(deps)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return harvest.Errorf(harvest.EINVALID, "no URLs to harvest. Pass URLs, --sitemap or --index")
	}

	if c.Preview {
		for _, u := range urls {
			fmt.Fprintln(deps.Stdout, u)
		}
		return nil
	}

	report, err := deps.Orchestrator.RunFlat(deps.Ctx, urls, newProgress(deps.Stdout))
	printSummary(deps.Stdout, report)
	if err != nil {
		return err
	}
	return checkStrict(c.Strict, report)
}

// discover merges the URLs given on the command line with those found in
// the sitemap and on the index page. Filters only apply to discovered URLs.
func (c *FlatCmd) discover(deps *Dependencies) ([]string, error) {
	filter, err := harvest.NewURLFilter(c.Filter, c.Exclude)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var urls []string
	add := func(u string) {
		if !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}

	for _, u := range c.URLs {
		add(u)
	}

	if c.Sitemap != "" {
		found, err := deps.Sitemaps.DiscoverURLs(deps.Ctx, c.Sitemap, filter)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(deps.Stderr, "Found %d URLs in sitemap\n", len(found))
		for _, u := range found {
			add(u)
		}
	}

	if c.Index != "" {
		result, err := deps.Fetcher.Fetch(deps.Ctx, c.Index, deps.Config.Render.Profile())
		if err != nil {
			return nil, err
		}
		links, err := deps.Links.ExtractLinks(result.HTML, result.URL)
		if err != nil {
			return nil, err
		}
		var n int
		for _, l := range links {
			if filter.Match(l.URL) {
				add(l.URL)
				n++
			}
		}
		fmt.Fprintf(deps.Stderr, "Found %d links on index page\n", n)
	}

	return urls, nil
}
