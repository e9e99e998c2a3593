package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const supExt = ".sup"

// Discover resolves the input path to the subtitle files to process: the
// file itself, or every .sup directly inside the folder. Nested folders are
// not descended into. Paths come back sorted so submission order is
// deterministic.
func Discover(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("could not read input path %q: %w", input, err)
	}

	if !info.IsDir() {
		if !strings.EqualFold(filepath.Ext(input), supExt) {
			return nil, fmt.Errorf("input file %q is not a %s file", input, supExt)
		}
		return []string{input}, nil
	}

	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, fmt.Errorf("could not read folder %q: %w", input, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), supExt) {
			files = append(files, filepath.Join(input, entry.Name()))
		}
	}
	sort.Strings(files)

	return files, nil
}
