package site

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrNotASite indicates no site configuration file was found in the current
// directory or any of its parents.
var ErrNotASite = errors.New("not inside a lithos site directory (no lithos.yaml found)")

// FindRoot walks upward from the working directory until it finds the site
// configuration file and returns the directory containing it.
func FindRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindRootFrom(dir)
}

// FindRootFrom walks upward from dir looking for the configuration file.
func FindRootFrom(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotASite
		}
		dir = parent
	}
}
