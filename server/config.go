package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings is the typed view of the loaded configuration
type Settings struct {
	Addr      string
	DBPath    string
	LogLevel  string
	LogFormat string

	AuthSecret   string
	AuthRequired bool

	RegionSize      float64
	MotionInterval  time.Duration
	ProjectileEvery time.Duration
	MineInterval    time.Duration
	AIInterval      time.Duration
	CleanupInterval time.Duration
	PersistInterval time.Duration
	BroadcastEvery  int // motion ticks per state frame
	MaxSessions     int
	Seed            int64

	Match MatchConfig
}

// LoadConfig reads tankarena.json from configDir (if present), then
// TANKARENA_* environment overrides, on top of defaults
func LoadConfig(configDir string) (Settings, error) {
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("db.path", "tankarena.db")
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logFormat", "console")

	viper.SetDefault("auth.secret", "")
	viper.SetDefault("auth.required", false)

	viper.SetDefault("sim.regionSize", DefaultRegionSize)
	viper.SetDefault("sim.motionHz", 30)
	viper.SetDefault("sim.projectileHz", 30)
	viper.SetDefault("sim.mineHz", 10)
	viper.SetDefault("sim.aiInterval", "1s")
	viper.SetDefault("sim.cleanupInterval", "250ms")
	viper.SetDefault("sim.persistInterval", "10s")
	viper.SetDefault("sim.broadcastHz", 15)
	viper.SetDefault("sim.maxSessions", 16)
	viper.SetDefault("sim.seed", 0)

	viper.SetDefault("match.timeLimit", "5m")
	viper.SetDefault("match.scoreLimit", 25)
	viper.SetDefault("match.resultsDelay", "10s")
	viper.SetDefault("match.botsPerTeam", 3)
	viper.SetDefault("match.maxTanks", 64)

	viper.SetEnvPrefix("TANKARENA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("tankarena")
	viper.SetConfigType("json")
	if configDir != "" {
		viper.AddConfigPath(configDir)
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return currentSettings()
}

func hz(key string) (time.Duration, error) {
	n := viper.GetInt(key)
	if n <= 0 {
		return 0, fmt.Errorf("config %s: must be positive, got %d", key, n)
	}
	return time.Second / time.Duration(n), nil
}

// currentSettings validates and converts the viper values
func currentSettings() (Settings, error) {
	s := Settings{
		Addr:            viper.GetString("server.addr"),
		DBPath:          viper.GetString("db.path"),
		LogLevel:        viper.GetString("logLevel"),
		LogFormat:       viper.GetString("logFormat"),
		AuthSecret:      viper.GetString("auth.secret"),
		AuthRequired:    viper.GetBool("auth.required"),
		RegionSize:      viper.GetFloat64("sim.regionSize"),
		AIInterval:      viper.GetDuration("sim.aiInterval"),
		CleanupInterval: viper.GetDuration("sim.cleanupInterval"),
		PersistInterval: viper.GetDuration("sim.persistInterval"),
		MaxSessions:     viper.GetInt("sim.maxSessions"),
		Seed:            viper.GetInt64("sim.seed"),
		Match: MatchConfig{
			TimeLimit:    viper.GetDuration("match.timeLimit").Seconds(),
			ScoreLimit:   viper.GetInt("match.scoreLimit"),
			ResultsDelay: viper.GetDuration("match.resultsDelay"),
			BotsPerTeam:  viper.GetInt("match.botsPerTeam"),
			MaxTanks:     viper.GetInt("match.maxTanks"),
		},
	}
	var err error
	if s.MotionInterval, err = hz("sim.motionHz"); err != nil {
		return s, err
	}
	if s.ProjectileEvery, err = hz("sim.projectileHz"); err != nil {
		return s, err
	}
	if s.MineInterval, err = hz("sim.mineHz"); err != nil {
		return s, err
	}
	bc := viper.GetInt("sim.broadcastHz")
	if bc <= 0 {
		return s, fmt.Errorf("config sim.broadcastHz: must be positive, got %d", bc)
	}
	s.BroadcastEvery = viper.GetInt("sim.motionHz") / bc
	if s.BroadcastEvery < 1 {
		s.BroadcastEvery = 1
	}
	if s.RegionSize <= 0 {
		return s, fmt.Errorf("config sim.regionSize: must be positive, got %v", s.RegionSize)
	}
	if s.AIInterval <= 0 || s.CleanupInterval <= 0 || s.PersistInterval <= 0 {
		return s, fmt.Errorf("config sim intervals must be positive")
	}
	return s, nil
}
