package target

import "fmt"

// NewTarget creates a Target based on the provided Config.
// It dispatches to the appropriate backend constructor and wraps the result
// in a RetryTarget if MaxRetries > 0.
func NewTarget(cfg Config) (Target, error) {
	var (
		t   Target
		err error
	)

	switch cfg.Type {
	case "azure", "":
		t, err = newAzureTarget(cfg)
	case "s3":
		t, err = newS3Target(cfg)
	case "gcs":
		t, err = newGCSTarget(cfg)
	case "memory":
		t = GetOrCreateMemoryTarget(cfg.Name)
	default:
		return nil, fmt.Errorf("unsupported target type: %q (must be azure, s3, gcs, or memory)", cfg.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("creating %s target %q: %w", cfg.Type, cfg.Name, err)
	}

	if cfg.MaxRetries > 0 {
		t = NewRetryTarget(t, cfg.MaxRetries, cfg.RetryBackoff)
	}

	return t, nil
}
