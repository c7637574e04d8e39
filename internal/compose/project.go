// File: internal/compose/project.go
// Brief: Compose project loading and file discovery.

// Package compose implements the stack backend against docker compose:
// the declared catalog comes from loading the compose project files,
// mutations shell out to the `docker compose` CLI, and per-service
// status is read from the Docker Engine API.
package compose

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	composetypes "github.com/compose-spec/compose-go/v2/types"
)

var defaultFilenames = []string{"docker-compose.yml", "docker-compose.yaml", "compose.yml", "compose.yaml"}

// ResolveFiles returns absolute paths for the given compose files, or
// discovers the conventional filenames in the current directory when
// none were given.
func ResolveFiles(files []string) ([]string, error) {
	if len(files) > 0 {
		return absolutePaths(files)
	}
	detected, err := findComposeFiles(".")
	if err != nil {
		return nil, err
	}
	if len(detected) == 0 {
		return nil, errors.New("no compose files specified and none found in the current directory")
	}
	return detected, nil
}

func findComposeFiles(base string) ([]string, error) {
	detected := make([]string, 0)
	for _, candidate := range defaultFilenames {
		path := candidate
		if base != "" && base != "." {
			path = filepath.Join(base, candidate)
		}
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		if info.IsDir() {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		detected = append(detected, abs)
	}
	return detected, nil
}

func absolutePaths(paths []string) ([]string, error) {
	out := make([]string, len(paths))
	for i, p := range paths {
		if p == "" {
			return nil, errors.New("compose file path cannot be empty")
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("abs %s: %w", p, err)
		}
		out[i] = abs
	}
	return out, nil
}

// LoadProject parses the compose files into a typed project.
func LoadProject(files []string, projectName string, profiles []string) (*composetypes.Project, error) {
	if len(files) == 0 {
		return nil, errors.New("no compose files specified")
	}
	env := make(composetypes.Mapping)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[key] = value
	}

	configFiles := make([]composetypes.ConfigFile, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read compose file %s: %w", path, err)
		}
		configFiles = append(configFiles, composetypes.ConfigFile{Filename: path, Content: data})
	}

	workingDir := filepath.Dir(files[0])
	details := composetypes.ConfigDetails{
		WorkingDir:  workingDir,
		ConfigFiles: configFiles,
		Environment: env,
	}

	project, err := loader.Load(details, func(o *loader.Options) {
		if projectName != "" {
			o.SetProjectName(projectName, true)
		} else {
			// Same fallback docker compose uses: the directory name,
			// non-imperatively so a `name:` key in the file still wins.
			o.SetProjectName(fallbackProjectName(workingDir), false)
		}
		if len(profiles) > 0 {
			o.Profiles = append(o.Profiles, profiles...)
		}
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// fallbackProjectName normalizes a directory name into a valid compose
// project name (lowercase alphanumerics, dashes and underscores).
func fallbackProjectName(dir string) string {
	base := strings.ToLower(filepath.Base(dir))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := strings.TrimLeft(b.String(), "-_")
	if name == "" {
		return "default"
	}
	return name
}

// serviceNames returns the project's declared services sorted for a
// deterministic catalog order.
func serviceNames(project *composetypes.Project) []string {
	names := project.ServiceNames()
	sort.Strings(names)
	return names
}
