package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

var ErrInvalid = errors.New("config: invalid value")

// Config of the demo server. Zero sections are filled from Default.
type Config struct {
	Server  Server  `toml:"server"`
	Diagram Diagram `toml:"diagram"`
	Log     Log     `toml:"log"`
}

type Server struct {
	Addr string `toml:"addr"`
}

// Diagram holds the form defaults of the page and of /diagram.png.
type Diagram struct {
	Width    int  `toml:"width"`
	Height   int  `toml:"height"`
	Stations int  `toml:"stations"`
	Random   bool `toml:"random"`
	// Seed of the random stations; 0 picks a new one per request
	Seed      int64 `toml:"seed"`
	ClipToBox bool  `toml:"clip_to_box"`
}

type Log struct {
	Level  string `toml:"level"`
	Stderr bool   `toml:"stderr"`
}

func Default() Config {
	return Config{
		Server: Server{Addr: ":8080"},
		Diagram: Diagram{
			Width:     1000,
			Height:    1000,
			Stations:  12,
			ClipToBox: true,
		},
		Log: Log{Level: "debug", Stderr: true},
	}
}

// Load reads a TOML file over the defaults. An empty path means defaults
// only. Keys the Config does not know are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every bad value at once.
func (c Config) Validate() error {
	var err error
	if c.Server.Addr == "" {
		err = multierr.Append(err, fmt.Errorf("%w: server.addr is empty", ErrInvalid))
	}
	if c.Diagram.Width < 100 || c.Diagram.Width > 5000 {
		err = multierr.Append(err, fmt.Errorf("%w: diagram.width %d not in [100, 5000]", ErrInvalid, c.Diagram.Width))
	}
	if c.Diagram.Height < 100 || c.Diagram.Height > 5000 {
		err = multierr.Append(err, fmt.Errorf("%w: diagram.height %d not in [100, 5000]", ErrInvalid, c.Diagram.Height))
	}
	if c.Diagram.Stations < 1 || c.Diagram.Stations > 10000 {
		err = multierr.Append(err, fmt.Errorf("%w: diagram.stations %d not in [1, 10000]", ErrInvalid, c.Diagram.Stations))
	}
	if _, perr := zapcore.ParseLevel(c.Log.Level); perr != nil {
		err = multierr.Append(err, fmt.Errorf("%w: log.level: %v", ErrInvalid, perr))
	}
	return err
}

// LogLevel is Log.Level parsed; Debug when it does not parse.
func (c Config) LogLevel() zapcore.Level {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return zapcore.DebugLevel
	}
	return level
}
