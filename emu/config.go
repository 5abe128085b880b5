package emu

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"corehost/emu/log"
	"corehost/hw/audio"
	"corehost/hw/input"
	"corehost/hw/shaders"

	"github.com/BurntSushi/toml"
	"github.com/kirsle/configdir"
)

type Config struct {
	General   GeneralConfig   `toml:"general"`
	Audio     AudioConfig     `toml:"audio"`
	Video     VideoConfig     `toml:"video"`
	Emulation EmulationConfig `toml:"emulation"`
	Input     InputConfig     `toml:"input"`
}

type GeneralConfig struct {
	// DocumentsDir holds saves and states, in per-console directories.
	DocumentsDir string `toml:"documents_dir"`
	// CoresDir is where core libraries are looked for.
	CoresDir string `toml:"cores_dir"`
}

type AudioConfig struct {
	DisableAudio bool `toml:"disable_audio"`
	// Strategy overrides the console strategy when set.
	Strategy       AudioStrategy `toml:"strategy"`
	DeviceRate     int           `toml:"device_rate"`
	RingCapacity   int           `toml:"ring_capacity"`
	QueueThreshold int           `toml:"queue_threshold"`
	MaxInFlight    int           `toml:"max_in_flight"`
}

type VideoConfig struct {
	DisableVSync bool    `toml:"disable_vsync"`
	Monitor      int32   `toml:"monitor"`
	Scale        int     `toml:"scale"`
	Shader       string  `toml:"shader"`
	RefreshRate  float64 `toml:"refresh_rate"` // headless only
}

type EmulationConfig struct {
	// SampleRateCorrection overrides the console setting, by console tag.
	SampleRateCorrection map[string]bool `toml:"sample_rate_correction"`
}

// SampleRateCorrectionFor reports whether sample rate correction applies to c.
func (ecfg *EmulationConfig) SampleRateCorrectionFor(c *Console) bool {
	if on, ok := ecfg.SampleRateCorrection[c.Tag]; ok {
		return on
	}
	return c.SampleRateCorrection
}

type InputConfig struct {
	Presets map[string]input.Preset `toml:"presets"`
}

// Preset returns the input preset of a console, or the default one.
func (icfg *InputConfig) Preset(tag string) input.Preset {
	if p, ok := icfg.Presets[tag]; ok {
		return p
	}
	return input.DefaultPreset()
}

var ConfigDir = sync.OnceValue(func() string {
	dir := configdir.LocalConfig("corehost")
	if err := configdir.MakePath(dir); err != nil {
		log.ModEmu.FatalZ("failed to create directory").String("dir", dir).Error("err", err).End()
	}
	return dir
})

const cfgFilename = "config.toml"

// DefaultConfig returns a config with all fields set to their defaults,
// except directories, set by Check.
func DefaultConfig() Config {
	return Config{
		Audio: AudioConfig{
			DeviceRate:     audio.DefaultDeviceRate,
			RingCapacity:   audio.DefaultRingCapacity,
			QueueThreshold: audio.DefaultQueueThreshold,
			MaxInFlight:    audio.DefaultMaxInFlight,
		},
		Video: VideoConfig{
			Scale:       2,
			Shader:      shaders.DefaultName,
			RefreshRate: 60,
		},
	}
}

// Check replaces missing or invalid values with their defaults.
func (cfg *Config) Check() {
	def := DefaultConfig()
	if cfg.General.DocumentsDir == "" {
		cfg.General.DocumentsDir = ConfigDir()
	}
	if cfg.General.CoresDir == "" {
		cfg.General.CoresDir = filepath.Join(ConfigDir(), "cores")
	}
	if cfg.Audio.DeviceRate <= 0 {
		cfg.Audio.DeviceRate = def.Audio.DeviceRate
	}
	if cfg.Audio.RingCapacity <= 1 {
		cfg.Audio.RingCapacity = def.Audio.RingCapacity
	}
	if cfg.Audio.QueueThreshold <= 0 {
		cfg.Audio.QueueThreshold = def.Audio.QueueThreshold
	}
	if cfg.Audio.MaxInFlight <= 0 {
		cfg.Audio.MaxInFlight = def.Audio.MaxInFlight
	}
	if cfg.Video.Scale <= 0 {
		cfg.Video.Scale = def.Video.Scale
	}
	if cfg.Video.RefreshRate <= 0 {
		cfg.Video.RefreshRate = def.Video.RefreshRate
	}
	if !shaders.Valid(cfg.Video.Shader) {
		if cfg.Video.Shader != "" {
			log.ModEmu.Warnf("Invalid shader name %q, fallback to %q", cfg.Video.Shader, shaders.DefaultName)
		}
		cfg.Video.Shader = shaders.DefaultName
	}
}

// LoadConfig decodes the config file at path over the default config.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return DefaultConfig(), err
	}
	return cfg, nil
}

// LoadConfigOrDefault loads the configuration from the corehost config
// directory, or provide a default one.
func LoadConfigOrDefault() Config {
	path := filepath.Join(ConfigDir(), cfgFilename)
	cfg, err := LoadConfig(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.ModEmu.WarnZ("Invalid config, using defaults").String("path", path).Error("err", err).End()
	}
	cfg.Check()
	return cfg
}

// SaveConfig into corehost config directory.
func SaveConfig(cfg Config) error {
	return writeConfig(filepath.Join(ConfigDir(), cfgFilename), cfg)
}

func writeConfig(path string, cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, buf, 0644)
}
