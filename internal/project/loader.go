package project

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/ncdeploy/ncdeploy/pkg/models"
)

// LoadStack reads the optional stack.toml topology manifest. When the file
// is absent the defaults describe the shipped Nextcloud compose stack.
func LoadStack(path string) (*models.StackConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultStack(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var stack models.StackConfig
	if err := toml.Unmarshal(data, &stack); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := validateAndSetDefaults(&stack); err != nil {
		return nil, fmt.Errorf("invalid stack manifest: %w", err)
	}

	return &stack, nil
}

// DefaultStack is the shipped Nextcloud topology: cache and database
// first, auxiliary services next, then the application, web tier, proxy
// and cron last.
func DefaultStack() *models.StackConfig {
	return &models.StackConfig{
		Services: []models.ServiceConfig{
			{Name: "redis", UpdateOrder: 10},
			{Name: "db", UpdateOrder: 20},
			{Name: "notify-push", UpdateOrder: 30, HoldsDBConnections: true},
			{Name: "imaginary", UpdateOrder: 40},
			{Name: "app", UpdateOrder: 50, HoldsDBConnections: true},
			{Name: "web", UpdateOrder: 60},
			{Name: "proxy", UpdateOrder: 70},
			{Name: "cron", UpdateOrder: 80, HoldsDBConnections: true},
		},
		Volumes: map[string]models.Volume{
			"nextcloud":  {DependentServices: []string{"app", "web", "cron", "notify-push"}},
			"db":         {DependentServices: []string{"db"}},
			"redis":      {DependentServices: []string{"redis"}},
			"proxy-cert": {DependentServices: []string{"proxy"}},
		},
		OCC: models.OCCConfig{
			Binary: "php occ",
			User:   "www-data",
		},
	}
}

func validateAndSetDefaults(stack *models.StackConfig) error {
	if len(stack.Services) == 0 {
		stack.Services = DefaultStack().Services
	}
	if stack.Volumes == nil {
		stack.Volumes = DefaultStack().Volumes
	}
	if stack.OCC.Binary == "" {
		stack.OCC.Binary = "php occ"
	}
	if stack.OCC.User == "" {
		stack.OCC.User = "www-data"
	}

	seen := make(map[string]bool)
	for _, svc := range stack.Services {
		if svc.Name == "" {
			return fmt.Errorf("service with empty name")
		}
		if seen[svc.Name] {
			return fmt.Errorf("duplicate service %q", svc.Name)
		}
		seen[svc.Name] = true
	}

	for name, vol := range stack.Volumes {
		for _, dep := range vol.DependentServices {
			if !seen[dep] {
				return fmt.Errorf("volume %q depends on unknown service %q", name, dep)
			}
		}
	}

	return nil
}
