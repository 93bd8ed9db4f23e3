package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"habitualize/backend"
	"habitualize/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	_ "embed"
)

var configOnce sync.Once

var globalConfig *Config

var globalErr error

var customConfigPath string // Custom config path set via --config flag

//go:embed config.sample.yaml
var sampleConfig []byte

const (
	CONFIG_FILE_PATH = "config.yaml"
	STATE_DB_FILE    = "state.db"
	CONFIG_DIR_PERM  = 0755
	CONFIG_FILE_PERM = 0644

	DefaultServerAddr = "127.0.0.1:5000"
	DefaultTimeout    = 30 * time.Second
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr        string   `yaml:"addr,omitempty" validate:"omitempty,hostname_port"`
	CORSOrigins []string `yaml:"cors_origins,omitempty" validate:"omitempty,dive,url"`
	Mode        string   `yaml:"mode,omitempty" validate:"omitempty,oneof=debug release test"`

	// PullInterval refreshes the tables from the remote in the background.
	// Zero disables it.
	PullInterval time.Duration `yaml:"pull_interval,omitempty" validate:"omitempty,min=0"`
}

// Config represents the application configuration.
type Config struct {
	DataDir string               `yaml:"data_dir"`
	StateDB string               `yaml:"state_db,omitempty"`
	Log     utils.LogConfig      `yaml:"log"`
	Remote  backend.RemoteConfig `yaml:"remote"`
	Server  ServerConfig         `yaml:"server"`

	// Path is the file the configuration was read from.
	Path string `yaml:"-"`
}

func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Log.Level != "" && !utils.ParseLevel(c.Log.Level) {
		return utils.ErrInvalidConfig("log.level", fmt.Sprintf("unknown level %q, use debug, info, warn or error", c.Log.Level))
	}

	switch c.Remote.Type {
	case "github":
		if c.Remote.Owner == "" || c.Remote.Repo == "" {
			return utils.ErrInvalidConfig("remote", "owner and repo are required for the github remote")
		}
	case "git":
		if c.Remote.RepoPath == "" {
			return utils.ErrInvalidConfig("remote.repo_path", "required for the git remote")
		}
	}
	return nil
}

// applyDefaults fills unset fields and expands ~ and $VARS in paths.
func (c *Config) applyDefaults() error {
	if c.DataDir == "" {
		dir, err := utils.DataDir()
		if err != nil {
			return fmt.Errorf("failed to get data dir: %w", err)
		}
		c.DataDir = dir
	}

	var err error
	if c.DataDir, err = utils.ExpandPath(c.DataDir); err != nil {
		return fmt.Errorf("failed to expand data_dir: %w", err)
	}
	if c.StateDB == "" {
		c.StateDB = filepath.Join(c.DataDir, STATE_DB_FILE)
	}
	if c.StateDB, err = utils.ExpandPath(c.StateDB); err != nil {
		return fmt.Errorf("failed to expand state_db: %w", err)
	}
	if c.Log.File, err = utils.ExpandPath(c.Log.File); err != nil {
		return fmt.Errorf("failed to expand log.file: %w", err)
	}
	if c.Remote.RepoPath, err = utils.ExpandPath(c.Remote.RepoPath); err != nil {
		return fmt.Errorf("failed to expand remote.repo_path: %w", err)
	}

	if c.Remote.Type == "" {
		c.Remote.Type = "none"
	}
	if c.Remote.ConflictPolicy == "" {
		c.Remote.ConflictPolicy = "last_write_wins"
	}
	if c.Remote.Timeout == 0 {
		c.Remote.Timeout = DefaultTimeout
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	return nil
}

// SetCustomConfigPath sets a custom config path to use instead of the default user config directory.
// If path is a directory, it looks for "config.yaml" inside it.
// This must be called before GetConfig() is called for the first time.
func SetCustomConfigPath(path string) {
	if path == "" {
		customConfigPath = ""
		return
	}
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		customConfigPath = filepath.Join(path, CONFIG_FILE_PATH)
	} else {
		customConfigPath = path
	}
}

// GetConfig loads the configuration once per process.
func GetConfig() (*Config, error) {
	configOnce.Do(func() {
		path, err := GetConfigPath()
		if err != nil {
			globalErr = err
			return
		}
		globalConfig, globalErr = Load(path)
	})
	return globalConfig, globalErr
}

func GetConfigPath() (string, error) {
	// A custom path may not exist yet; the sample is written there.
	if customConfigPath != "" {
		return customConfigPath, nil
	}

	dir, err := utils.ConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	return filepath.Join(dir, CONFIG_FILE_PATH), nil
}

// Load reads, defaults and validates the configuration at configPath. A
// missing file is created from the embedded sample. A .env file next to
// the configuration or in the working directory is loaded first.
func Load(configPath string) (*Config, error) {
	loadDotEnv(filepath.Join(filepath.Dir(configPath), ".env"), ".env")

	configData, err := configDataFromPath(configPath)
	if err != nil {
		return nil, err
	}
	return parseConfig(configData, configPath)
}

// loadDotEnv loads each existing file. Variables already set win.
func loadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			utils.Warnf("ignoring %s: %v", p, err)
		}
	}
}

func createConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), CONFIG_DIR_PERM)
}

func WriteConfigFile(configPath string, data []byte) error {
	return os.WriteFile(configPath, data, CONFIG_FILE_PERM)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() []byte {
	return sampleConfig
}

func createConfigFromSample(configPath string) error {
	if err := createConfigDir(configPath); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := WriteConfigFile(configPath, sampleConfig); err != nil {
		return fmt.Errorf("failed to write sample config: %w", err)
	}
	utils.Infof("wrote sample configuration to %s", configPath)
	return nil
}

func configDataFromPath(configPath string) ([]byte, error) {
	configData, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		if err := createConfigFromSample(configPath); err != nil {
			// Fall back to the in-memory sample on read-only systems.
			utils.Warnf("%v", err)
		}
		return sampleConfig, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return configData, nil
}

func parseConfig(configData []byte, configPath string) (*Config, error) {
	var configObj Config
	if err := yaml.Unmarshal(configData, &configObj); err != nil {
		return nil, fmt.Errorf("invalid YAML in config file %s: %w", configPath, err)
	}
	configObj.Path = configPath

	if err := configObj.applyDefaults(); err != nil {
		return nil, err
	}
	if err := configObj.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return &configObj, nil
}
