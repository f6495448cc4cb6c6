// Package config handles simulation configuration loading and management.
package config

import (
	"time"

	"github.com/Faultbox/ringwalk/internal/combat"
	"github.com/Faultbox/ringwalk/internal/locomotion"
)

// Config holds all ringwalk settings.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Player     PlayerConfig     `yaml:"player"`
	Platforms  []PlatformConfig `yaml:"platforms"`
	Combat     CombatConfig     `yaml:"combat"`
	Simulation SimulationConfig `yaml:"simulation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// WorldConfig describes the boundary and its gravity.
type WorldConfig struct {
	CenterX         float64 `yaml:"center_x"`
	CenterY         float64 `yaml:"center_y"`
	Radius          float64 `yaml:"radius"`
	Shape           string  `yaml:"shape"`    // circle, octagon or polygon
	Segments        int     `yaml:"segments"` // Polygon side count
	GravityStrength float64 `yaml:"gravity_strength"`
}

// PlayerConfig holds the locomotion tuning shared by every character.
type PlayerConfig struct {
	MoveSpeed          float64 `yaml:"move_speed"`
	MaxMoveSpeed       float64 `yaml:"max_move_speed"`
	JumpForce          float64 `yaml:"jump_force"`
	GravityScale       float64 `yaml:"gravity_scale"`
	FallMultiplier     float64 `yaml:"fall_multiplier"`
	MaxFallSpeed       float64 `yaml:"max_fall_speed"`
	GroundFriction     float64 `yaml:"ground_friction"`
	AirFriction        float64 `yaml:"air_friction"`
	AirReversalDamping float64 `yaml:"air_reversal_damping"`
	GroundThreshold    float64 `yaml:"ground_threshold"`
	FootOffset         float64 `yaml:"foot_offset"`
	SnapEnabled        bool    `yaml:"snap_enabled"`
	SnapDistance       float64 `yaml:"snap_distance"`
	SnapClearance      float64 `yaml:"snap_clearance"`
}

// PlatformConfig describes one static platform. Arcs follow the surface; polylines
// are given as explicit points.
type PlatformConfig struct {
	Name        string       `yaml:"name"`
	Kind        string       `yaml:"kind"` // arc or polyline
	CenterAngle float64      `yaml:"center_angle,omitempty"`
	ArcAngle    float64      `yaml:"arc_angle,omitempty"`
	Height      float64      `yaml:"height,omitempty"`
	Segments    int          `yaml:"segments,omitempty"`
	Points      [][2]float64 `yaml:"points,omitempty"`
}

// CombatConfig holds health and projectile settings.
type CombatConfig struct {
	MaxHealth  float64          `yaml:"max_health"`
	HitRadius  float64          `yaml:"hit_radius"`
	Projectile ProjectileConfig `yaml:"projectile"`
}

// ProjectileConfig is the projectile fired by characters.
type ProjectileConfig struct {
	Damage       float64 `yaml:"damage"`
	Speed        float64 `yaml:"speed"`
	Lifetime     float64 `yaml:"lifetime"`
	GravityScale float64 `yaml:"gravity_scale"`
	DestroyOnHit bool    `yaml:"destroy_on_hit"`
	MaxHits      int     `yaml:"max_hits"`
	Cooldown     float64 `yaml:"cooldown"`
}

// SimulationConfig holds run settings for the headless simulator.
type SimulationConfig struct {
	TickRate    float64             `yaml:"tick_rate"`
	Duration    time.Duration       `yaml:"duration"`
	Ticks       uint64              `yaml:"ticks,omitempty"` // Overrides duration
	Realtime    bool                `yaml:"realtime"`
	Workers     int                 `yaml:"workers"` // 0 = GOMAXPROCS
	Output      string              `yaml:"output"`  // JSON-lines frame file, "-" for stdout
	Characters  []CharacterConfig   `yaml:"characters"`
	Script      []CueConfig         `yaml:"script"`
	Reconfigure []ReconfigureConfig `yaml:"reconfigure,omitempty"`
}

// CharacterConfig spawns one character.
type CharacterConfig struct {
	Name  string  `yaml:"name"`
	Angle float64 `yaml:"angle"` // Degrees
}

// CueConfig is one scripted input window in seconds.
type CueConfig struct {
	Character string  `yaml:"character,omitempty"` // Empty = everyone
	From      float64 `yaml:"from"`
	To        float64 `yaml:"to"`
	Move      float64 `yaml:"move,omitempty"`
	Jump      bool    `yaml:"jump,omitempty"`
	Fire      bool    `yaml:"fire,omitempty"`
}

// ReconfigureConfig changes the boundary during a run.
type ReconfigureConfig struct {
	At       float64 `yaml:"at"` // Seconds
	Radius   float64 `yaml:"radius"`
	Shape    string  `yaml:"shape"`
	Segments int     `yaml:"segments,omitempty"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	loco := locomotion.DefaultConfig()
	proj := combat.DefaultProjectileData()

	return &Config{
		World: WorldConfig{
			Radius:          10,
			Shape:           "octagon",
			Segments:        8,
			GravityStrength: loco.GravityStrength,
		},
		Player: PlayerConfig{
			MoveSpeed:          loco.MoveSpeed,
			MaxMoveSpeed:       loco.MaxMoveSpeed,
			JumpForce:          loco.JumpForce,
			GravityScale:       loco.GravityScale,
			FallMultiplier:     loco.FallMultiplier,
			MaxFallSpeed:       loco.MaxFallSpeed,
			GroundFriction:     loco.GroundFriction,
			AirFriction:        loco.AirFriction,
			AirReversalDamping: loco.AirReversalDamping,
			GroundThreshold:    loco.GroundThreshold,
			FootOffset:         loco.FootOffset,
			SnapEnabled:        loco.SnapEnabled,
			SnapDistance:       loco.SnapDistance,
			SnapClearance:      loco.SnapClearance,
		},
		Platforms: []PlatformConfig{
			{Name: "ledge", Kind: "arc", CenterAngle: 300, ArcAngle: 30, Height: 2.5, Segments: 12},
		},
		Combat: CombatConfig{
			MaxHealth: 100,
			HitRadius: 0.5,
			Projectile: ProjectileConfig{
				Damage:       proj.Damage,
				Speed:        proj.Speed,
				Lifetime:     proj.Lifetime,
				GravityScale: proj.GravityScale,
				DestroyOnHit: proj.DestroyOnHit,
				MaxHits:      proj.MaxHits,
				Cooldown:     proj.Cooldown,
			},
		},
		Simulation: SimulationConfig{
			TickRate: 50,
			Duration: 10 * time.Second,
			Characters: []CharacterConfig{
				{Name: "p1", Angle: 270},
				{Name: "p2", Angle: 90},
			},
			Script: []CueConfig{
				{Character: "p1", From: 0.5, To: 4, Move: 1},
				{Character: "p1", From: 2, To: 2.1, Jump: true},
				{Character: "p1", From: 2.3, To: 3, Move: -1},
				{Character: "p2", From: 1, To: 6, Move: -1},
				{Character: "p2", From: 5, To: 5.02, Fire: true},
			},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
