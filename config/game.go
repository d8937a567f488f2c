package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// GameConfig holds the tunable game rules. Loaded from a YAML file so bet
// limits and costs can change without a rebuild.
type GameConfig struct {
	Casino CasinoConfig `yaml:"casino"`
	Map    MapConfig    `yaml:"map"`
	Attack AttackConfig `yaml:"attack"`
}

// CasinoConfig bounds every casino bet.
type CasinoConfig struct {
	MinBet int64 `yaml:"min_bet"`
	MaxBet int64 `yaml:"max_bet"`
}

// MapConfig covers locations and building placement.
type MapConfig struct {
	PlotsPerLocation int   `yaml:"plots_per_location"`
	BuildingCost     int64 `yaml:"building_cost"`
	StartingCash     int64 `yaml:"starting_cash"`
}

// AttackConfig tunes company-vs-company attacks.
type AttackConfig struct {
	SuccessChance   int `yaml:"success_chance"`   // percent
	StealPercent    int `yaml:"steal_percent"`    // of target cash on success
	PrisonMinutes   int `yaml:"prison_minutes"`   // sentence on failure
	ConditionDamage int `yaml:"condition_damage"` // building damage on success
}

// LoadGameConfig reads the game tuning file, filling defaults for anything
// unset.
func LoadGameConfig(path string) (*GameConfig, error) {
	cfg := DefaultGameConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if cfg.Casino.MinBet == 0 {
		cfg.Casino.MinBet = 1
	}
	if cfg.Casino.MaxBet == 0 {
		cfg.Casino.MaxBet = 10000
	}
	if cfg.Map.PlotsPerLocation == 0 {
		cfg.Map.PlotsPerLocation = 64
	}
	if cfg.Map.BuildingCost == 0 {
		cfg.Map.BuildingCost = 2500
	}
	if cfg.Map.StartingCash == 0 {
		cfg.Map.StartingCash = 10000
	}
	if cfg.Attack.SuccessChance == 0 {
		cfg.Attack.SuccessChance = 50
	}
	if cfg.Attack.StealPercent == 0 {
		cfg.Attack.StealPercent = 10
	}
	if cfg.Attack.PrisonMinutes == 0 {
		cfg.Attack.PrisonMinutes = 30
	}
	if cfg.Attack.ConditionDamage == 0 {
		cfg.Attack.ConditionDamage = 25
	}

	return cfg, nil
}

// DefaultGameConfig returns the built-in tuning values.
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Casino: CasinoConfig{MinBet: 1, MaxBet: 10000},
		Map: MapConfig{
			PlotsPerLocation: 64,
			BuildingCost:     2500,
			StartingCash:     10000,
		},
		Attack: AttackConfig{
			SuccessChance:   50,
			StealPercent:    10,
			PrisonMinutes:   30,
			ConditionDamage: 25,
		},
	}
}
