package admin

import (
	"fmt"
	"log"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/cuetable/internal/config"
	"github.com/playmatatu/cuetable/internal/models"
)

// GetAllRuntimeConfig returns all runtime config entries
func GetAllRuntimeConfig(db *sqlx.DB) ([]models.RuntimeConfig, error) {
	var configs []models.RuntimeConfig
	err := db.Select(&configs, `
		SELECT key, value, value_type, description, updated_by, updated_at
		FROM runtime_config
		ORDER BY key
	`)
	return configs, err
}

// GetRuntimeConfigValue returns a single runtime config value
func GetRuntimeConfigValue(db *sqlx.DB, key string) (*models.RuntimeConfig, error) {
	var cfg models.RuntimeConfig
	err := db.Get(&cfg, `SELECT key, value, value_type, description, updated_by, updated_at FROM runtime_config WHERE key=$1`, key)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateRuntimeValue checks value against the declared type of a config entry.
func ValidateRuntimeValue(valueType, value string) error {
	switch valueType {
	case "int":
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("invalid integer value: %s", value)
		}
	case "float":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("invalid float value: %s", value)
		}
	case "bool":
		if value != "true" && value != "false" {
			return fmt.Errorf("invalid boolean value: %s (must be 'true' or 'false')", value)
		}
	}
	return nil
}

// UpdateRuntimeConfigValue updates a single runtime config value
func UpdateRuntimeConfigValue(db *sqlx.DB, key, value, adminPhone string) error {
	existing, err := GetRuntimeConfigValue(db, key)
	if err != nil {
		return fmt.Errorf("config key not found: %s", key)
	}
	if err := ValidateRuntimeValue(existing.ValueType, value); err != nil {
		return err
	}

	_, err = db.Exec(`
		UPDATE runtime_config SET value=$1, updated_by=$2, updated_at=NOW() WHERE key=$3
	`, value, adminPhone, key)
	return err
}

// ApplyRuntimeConfigToConfig loads runtime config from DB and applies overrides to the Config struct
func ApplyRuntimeConfigToConfig(db *sqlx.DB, cfg *config.Config) error {
	configs, err := GetAllRuntimeConfig(db)
	if err != nil {
		return err
	}

	applied := 0
	for _, c := range configs {
		if ApplyOverride(cfg, c.Key, c.Value) {
			applied++
		}
	}

	log.Printf("[CONFIG] Applied %d runtime config overrides from database", applied)
	return nil
}

// ApplyOverride sets one known key on cfg. Unknown keys and unparsable
// or out-of-range values are ignored and reported as not applied.
func ApplyOverride(cfg *config.Config, key, value string) bool {
	switch key {
	case "physics_damping":
		return setFloat(&cfg.Damping, value, 0, 100)
	case "wall_restitution":
		return setFloat(&cfg.WallRestitution, value, 0, 1)
	case "collision_loss":
		return setFloat(&cfg.CollisionLoss, value, 0, 1)
	case "shot_power_scale":
		return setFloat(&cfg.ShotPowerScale, value, 0, 1000)
	case "max_bodies":
		return setInt(&cfg.MaxBodies, value, 0)
	case "max_sessions":
		return setInt(&cfg.MaxSessions, value, 0)
	case "idle_timeout_seconds":
		return setInt(&cfg.IdleTimeoutSeconds, value, 0)
	}
	return false
}

func setFloat(dst *float64, value string, min, max float64) bool {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || v < min || v > max {
		return false
	}
	*dst = v
	return true
}

func setInt(dst *int, value string, min int) bool {
	v, err := strconv.Atoi(value)
	if err != nil || v < min {
		return false
	}
	*dst = v
	return true
}
