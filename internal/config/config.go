package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Port is fixed; it is printed at startup rather than configured.
const Port = 2333

type Config struct {
	Project struct {
		Root string `yaml:"root"`
		// PublicDir is searched after Root, relative to it.
		PublicDir string `yaml:"public_dir"`
		// SourceSegment marks paths whose images are inlined as data URIs.
		SourceSegment string `yaml:"source_segment"`
	} `yaml:"project"`

	Resolve struct {
		// LockFile is relative to Project.Root unless absolute. A missing
		// lock file means a flat store.
		LockFile    string   `yaml:"lock_file"`
		StoreDir    string   `yaml:"store_dir"`
		EntryFields []string `yaml:"entry_fields"`
	} `yaml:"resolve"`

	Env struct {
		Mode string `yaml:"mode"`
	} `yaml:"env"`

	Logging struct {
		// AccessLog defaults to on when unset.
		AccessLog     *bool  `yaml:"access_log"`
		AccessLogPath string `yaml:"access_log_path"`
	} `yaml:"logging"`
}

// Load reads the YAML config at path. A missing file yields the defaults,
// so a bare `devserve` works in any project directory.
func Load(path string) (*Config, error) {
	var cfg Config
	if strings.TrimSpace(path) != "" {
		// #nosec G304 -- config path comes from trusted flag.
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, err
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, err
		}
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used without a config file.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Project.Root) == "" {
		cfg.Project.Root = "."
	}
	if strings.TrimSpace(cfg.Project.PublicDir) == "" {
		cfg.Project.PublicDir = "public"
	}
	if strings.TrimSpace(cfg.Project.SourceSegment) == "" {
		cfg.Project.SourceSegment = "/src/"
	}
	if strings.TrimSpace(cfg.Resolve.LockFile) == "" {
		cfg.Resolve.LockFile = "pnpm-lock.yaml"
	}
	if strings.TrimSpace(cfg.Resolve.StoreDir) == "" {
		cfg.Resolve.StoreDir = "node_modules"
	}
	if len(cfg.Resolve.EntryFields) == 0 {
		cfg.Resolve.EntryFields = []string{"module"}
	}
	if strings.TrimSpace(cfg.Env.Mode) == "" {
		cfg.Env.Mode = "development"
	}
	if cfg.Logging.AccessLog == nil {
		on := true
		cfg.Logging.AccessLog = &on
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("DEVSERVE_ROOT")); v != "" {
		cfg.Project.Root = v
	}
	if v := strings.TrimSpace(os.Getenv("DEVSERVE_PUBLIC_DIR")); v != "" {
		cfg.Project.PublicDir = v
	}
	if v := strings.TrimSpace(os.Getenv("DEVSERVE_LOCK_FILE")); v != "" {
		cfg.Resolve.LockFile = v
	}
	if v := strings.TrimSpace(os.Getenv("DEVSERVE_MODE")); v != "" {
		cfg.Env.Mode = v
	}
	accessLog := envBool("DEVSERVE_ACCESS_LOG", cfg.AccessLogEnabled())
	cfg.Logging.AccessLog = &accessLog
	if v := strings.TrimSpace(os.Getenv("DEVSERVE_ACCESS_LOG_PATH")); v != "" {
		cfg.Logging.AccessLogPath = v
	}
}

func validate(cfg *Config) error {
	if filepath.IsAbs(cfg.Project.PublicDir) {
		return errors.New("project.public_dir must be relative to project.root")
	}
	if !strings.HasPrefix(cfg.Project.SourceSegment, "/") {
		return errors.New("project.source_segment must start with \"/\"")
	}
	if filepath.IsAbs(cfg.Resolve.StoreDir) {
		return errors.New("resolve.store_dir must be relative to project.root")
	}
	for _, f := range cfg.Resolve.EntryFields {
		if strings.TrimSpace(f) == "" {
			return errors.New("resolve.entry_fields must not contain empty names")
		}
	}
	return nil
}

// AccessLogEnabled reports whether requests are logged.
func (c *Config) AccessLogEnabled() bool {
	return c.Logging.AccessLog == nil || *c.Logging.AccessLog
}

// PublicPath returns the public directory joined to the root.
func (c *Config) PublicPath() string {
	return filepath.Join(c.Project.Root, c.Project.PublicDir)
}

// LockFilePath returns the lock file location.
func (c *Config) LockFilePath() string {
	if filepath.IsAbs(c.Resolve.LockFile) {
		return c.Resolve.LockFile
	}
	return filepath.Join(c.Project.Root, c.Resolve.LockFile)
}

func envBool(name string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}
