package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	return validateCustomRules(cfg)
}

// validateCustomRules performs validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// The badger and postgres sections carry their required fields as free
	// maps, so type-dependent requirements are checked here.
	switch cfg.Nodes.Type {
	case "badger":
		path, _ := cfg.Nodes.Badger["path"].(string)
		inMemory, _ := cfg.Nodes.Badger["in_memory"].(bool)
		if path == "" && !inMemory {
			return fmt.Errorf("nodes.badger: path is required unless in_memory is set")
		}
	case "postgres":
		if dsn, _ := cfg.Nodes.Postgres["dsn"].(string); dsn == "" {
			return fmt.Errorf("nodes.postgres: dsn is required")
		}
	}

	if cfg.Content.Type == "s3" {
		if bucket, _ := cfg.Content.S3["bucket"].(string); bucket == "" {
			return fmt.Errorf("content.s3: bucket is required")
		}
		if region, _ := cfg.Content.S3["region"].(string); region == "" {
			return fmt.Errorf("content.s3: region is required")
		}
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly
// messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
