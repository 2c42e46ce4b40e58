package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/toml"
)

// Run executes the init command.
func (c *InitCmd) Run(deps *Dependencies) error {
	if !c.Force {
		if _, err := os.Stat(c.Path); err == nil {
			return harvest.Errorf(harvest.ECONFLICT, "%s already exists. Use --force to overwrite", c.Path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return harvest.Errorf(harvest.ECONFIG, "check %s: %v", c.Path, err)
		}
	}

	if err := toml.CreateSample(c.Path); err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "Wrote %s\n", c.Path)
	return nil
}
