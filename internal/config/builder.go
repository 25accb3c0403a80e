package config

// Builder assembles a BuildConfig programmatically, for callers (mainly
// tests) that want to skip writing a YAML file. It mirrors the teacher's
// accumulate-then-freeze style from cmd-env-flags.go, but the accumulation
// lives on a value instead of package globals, and Build() hands back an
// immutable snapshot.
type Builder struct {
	cfg BuildConfig
}

func NewBuilder(rootDir string) *Builder {
	return &Builder{cfg: BuildConfig{
		RootDir:    rootDir,
		MaxWorkers: 0, // 0 means "let the scheduler auto-size from RLIMIT_NOFILE"
		Toolchain:  "gcc",
	}}
}

func (b *Builder) WithCacheDir(dir string) *Builder {
	b.cfg.CacheDir = dir
	return b
}

func (b *Builder) WithMaxWorkers(n int) *Builder {
	b.cfg.MaxWorkers = n
	return b
}

func (b *Builder) WithToolchain(name string) *Builder {
	b.cfg.Toolchain = name
	return b
}

func (b *Builder) AddProject(pc *ProjectConfig) *Builder {
	b.cfg.Projects = append(b.cfg.Projects, pc)
	return b
}

// Build validates and returns the frozen config. The Builder itself may be
// discarded afterwards; the returned *BuildConfig is not shared with a new
// builder so mutating one never affects the other.
func (b *Builder) Build() (*BuildConfig, error) {
	out := b.cfg
	out.Projects = append([]*ProjectConfig(nil), b.cfg.Projects...)
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}
