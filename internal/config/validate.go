package config

import "fmt"

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	if err := c.SRS.validate(); err != nil {
		return fmt.Errorf("srs: %w", err)
	}

	return nil
}

func (s *SRSConfig) validate() error {
	if s.MinEaseFactor <= 0 {
		return fmt.Errorf("min_ease_factor must be > 0 (got %v)", s.MinEaseFactor)
	}
	if s.DefaultEaseFactor < s.MinEaseFactor {
		return fmt.Errorf("default_ease_factor must be >= min_ease_factor (got %v < %v)", s.DefaultEaseFactor, s.MinEaseFactor)
	}
	if s.EaseBonus < 0 || s.EasePenalty < 0 {
		return fmt.Errorf("ease_bonus and ease_penalty must be >= 0")
	}
	if s.MaxBox < 1 {
		return fmt.Errorf("max_box must be >= 1 (got %d)", s.MaxBox)
	}
	if s.MinIntervalDays < 1 {
		return fmt.Errorf("min_interval_days must be >= 1 (got %d)", s.MinIntervalDays)
	}
	if s.MaxIntervalDays < s.MinIntervalDays {
		return fmt.Errorf("max_interval_days must be >= min_interval_days (got %d < %d)", s.MaxIntervalDays, s.MinIntervalDays)
	}
	if s.GraduatingInterval < 1 {
		return fmt.Errorf("graduating_interval must be >= 1 (got %d)", s.GraduatingInterval)
	}
	if s.DefaultBatchSize < 1 || s.DefaultBatchSize > 200 {
		return fmt.Errorf("default_batch_size must be between 1 and 200 (got %d)", s.DefaultBatchSize)
	}
	return nil
}
