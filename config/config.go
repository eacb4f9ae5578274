// Package config loads engine configuration from an ini file, the way the
// teacher loaded mysqld.ini: section-by-section with defaulted keys.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// OpenFlag mirrors the RLITE_OPEN_* bitmask from spec.md §6.
type OpenFlag uint8

const (
	OpenReadWrite OpenFlag = 1 << iota
	OpenCreate
)

// Cfg is the parsed engine configuration.
type Cfg struct {
	Raw *ini.File

	DataDir     string
	PageSize    uint32
	OpenFlags   OpenFlag
	FifoDir     string
	LogLevel    string
	InfoLogPath string
	ErrLogPath  string
}

// Default returns the configuration used when no file is supplied: data
// and FIFO directories ".", page size 1024, read-write and create open
// flags, info-level logging to stdout/stderr. Cfg has no setting that
// selects the in-memory driver; that is chosen by the database path.
func Default() *Cfg {
	return &Cfg{
		Raw:       ini.Empty(),
		DataDir:   ".",
		PageSize:  1024,
		OpenFlags: OpenReadWrite | OpenCreate,
		FifoDir:   ".",
		LogLevel:  "info",
	}
}

// LoadFile parses path and overlays its [engine]/[log] sections onto the
// default configuration.
func LoadFile(path string) (*Cfg, error) {
	raw, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	cfg := Default()
	cfg.Raw = raw

	if err := cfg.parseEngineSection(raw.Section("engine")); err != nil {
		return nil, err
	}
	cfg.parseLogSection(raw.Section("log"))
	return cfg, nil
}

func (cfg *Cfg) parseEngineSection(section *ini.Section) error {
	dataDir, err := valueAsString(section, "data_dir", cfg.DataDir)
	if err != nil {
		return err
	}
	cfg.DataDir, err = filepath.Abs(dataDir)
	if err != nil {
		return fmt.Errorf("config: invalid data_dir %q: %w", dataDir, err)
	}

	pageSize := section.Key("page_size").MustInt(int(cfg.PageSize))
	if pageSize <= 0 || pageSize%8 != 0 {
		return errors.New("config: page_size must be a positive multiple of 8")
	}
	cfg.PageSize = uint32(pageSize)

	flagsRaw, err := valueAsString(section, "open_flags", "readwrite,create")
	if err != nil {
		return err
	}
	flags, err := parseOpenFlags(flagsRaw)
	if err != nil {
		return err
	}
	cfg.OpenFlags = flags

	fifoDir, err := valueAsString(section, "fifo_dir", cfg.DataDir)
	if err != nil {
		return err
	}
	cfg.FifoDir = fifoDir
	return nil
}

func (cfg *Cfg) parseLogSection(section *ini.Section) {
	cfg.LogLevel = section.Key("level").MustString(cfg.LogLevel)
	cfg.InfoLogPath = section.Key("info_log_path").MustString("")
	cfg.ErrLogPath = section.Key("error_log_path").MustString("")
}

func parseOpenFlags(raw string) (OpenFlag, error) {
	var flags OpenFlag
	for _, part := range strings.Split(raw, ",") {
		switch strings.TrimSpace(strings.ToLower(part)) {
		case "readwrite":
			flags |= OpenReadWrite
		case "create":
			flags |= OpenCreate
		case "":
		default:
			return 0, fmt.Errorf("config: unrecognized open_flags entry %q", part)
		}
	}
	return flags, nil
}

// valueAsString mirrors the teacher's defaulted-key helper: MustString
// never errors, but the defer/recover keeps the call site symmetric with
// the rest of the ini-backed config surface in case a future key type
// panics on malformed input.
func valueAsString(section *ini.Section, keyName, defaultValue string) (value string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("config: invalid value for key %q: %v", keyName, r)
		}
	}()
	return section.Key(keyName).MustString(defaultValue), nil
}
