package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// yamlDoc mirrors BuildConfig/ProjectConfig field-for-field but with yaml
// tags and pointer-friendly defaults, kept separate from the public structs
// so the on-disk schema can evolve independently of the frozen in-memory
// shape.
type yamlDoc struct {
	CacheDir   string        `yaml:"cache_dir"`
	MaxWorkers int           `yaml:"max_workers"`
	Toolchain  string        `yaml:"toolchain"`
	Projects   []yamlProject `yaml:"projects"`
}

type yamlProject struct {
	Name                 string   `yaml:"name"`
	Output               string   `yaml:"output"`
	Sources              []string `yaml:"sources"`
	IncludeDirs          []string `yaml:"include_dirs"`
	Defines              []string `yaml:"defines"`
	LibraryDirs          []string `yaml:"library_dirs"`
	Libraries            []string `yaml:"libraries"`
	ChunkSize            int      `yaml:"chunk_size"`
	ChunkTolerance       float64  `yaml:"chunk_tolerance"`
	HeaderRecursionDepth int      `yaml:"header_recursion_depth"`
	HeadersUnderRootOnly bool     `yaml:"headers_under_root_only"`
	Static               bool     `yaml:"static"`
	Shared               bool     `yaml:"shared"`
	Dependencies         []string `yaml:"dependencies"`
}

// Load parses a YAML project file into a frozen BuildConfig. RootDir is the
// directory the file lives in, joined against any relative Sources/output
// paths the file names, matching how the original DSL resolved paths
// relative to the calling script's own directory.
func Load(path string) (*BuildConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var doc yamlDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	rootDir := filepath.Dir(path)
	b := NewBuilder(rootDir)
	if doc.CacheDir != "" {
		b.WithCacheDir(resolvePath(rootDir, doc.CacheDir))
	}
	if doc.MaxWorkers != 0 {
		b.WithMaxWorkers(doc.MaxWorkers)
	}
	if doc.Toolchain != "" {
		b.WithToolchain(doc.Toolchain)
	}

	for _, yp := range doc.Projects {
		pc := &ProjectConfig{
			Name:                 yp.Name,
			Output:               resolvePath(rootDir, yp.Output),
			ChunkSize:            yp.ChunkSize,
			ChunkTolerance:       yp.ChunkTolerance,
			HeaderRecursionDepth: yp.HeaderRecursionDepth,
			HeadersUnderRootOnly: yp.HeadersUnderRootOnly,
			IsStaticLib:          yp.Static,
			IsSharedLib:          yp.Shared,
			Defines:              append([]string{}, yp.Defines...),
			Libraries:            append([]string{}, yp.Libraries...),
			Dependencies:         append([]string{}, yp.Dependencies...),
		}
		for _, s := range yp.Sources {
			pc.Sources = append(pc.Sources, resolvePath(rootDir, s))
		}
		for _, d := range yp.IncludeDirs {
			pc.IncludeDirs = append(pc.IncludeDirs, resolvePath(rootDir, d))
		}
		for _, d := range yp.LibraryDirs {
			pc.LibraryDirs = append(pc.LibraryDirs, resolvePath(rootDir, d))
		}
		b.AddProject(pc)
	}

	return b.Build()
}

func resolvePath(rootDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(rootDir, p)
}
