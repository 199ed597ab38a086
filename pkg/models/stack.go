package models

// StackConfig describes the compose stack topology: which services exist,
// the order they are updated in, and which services depend on which named
// volumes. Loaded from stack.toml when present; defaults cover the shipped
// Nextcloud stack so the file is optional.
type StackConfig struct {
	Services []ServiceConfig   `toml:"services"`
	Volumes  map[string]Volume `toml:"volumes"`
	OCC      OCCConfig         `toml:"occ"`
}

type ServiceConfig struct {
	Name        string `toml:"name"`
	UpdateOrder int    `toml:"update_order"`
	// HoldsDBConnections marks services stopped before a database restore.
	HoldsDBConnections bool `toml:"holds_db_connections"`
}

type Volume struct {
	// Services that must be stopped while the volume content is replaced.
	DependentServices []string `toml:"dependent_services"`
}

type OCCConfig struct {
	Binary string `toml:"binary"`
	User   string `toml:"user"`
}

// UpdateOrder returns service names sorted by their update order:
// cache and database first, the application and edge tier last.
func (s *StackConfig) UpdateOrder() []string {
	ordered := make([]ServiceConfig, len(s.Services))
	copy(ordered, s.Services)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j].UpdateOrder < ordered[j-1].UpdateOrder; j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}
	names := make([]string, len(ordered))
	for i, svc := range ordered {
		names[i] = svc.Name
	}
	return names
}

// DBConnectedServices returns the services that hold open database
// connections and must be stopped around a database restore.
func (s *StackConfig) DBConnectedServices() []string {
	var names []string
	for _, svc := range s.Services {
		if svc.HoldsDBConnections {
			names = append(names, svc.Name)
		}
	}
	return names
}
