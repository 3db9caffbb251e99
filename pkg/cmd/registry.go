package cmd

import (
	"fmt"
	"log/slog"

	"github.com/counselops/matterflow/pkg/registry"
)

// NewRegistry builds the request type registry, loading definition files
// from definitionsPath when it is set.
func NewRegistry(logger *slog.Logger, definitionsPath string) *registry.Registry {
	reg := registry.NewRegistry(logger)

	if err := reg.LoadDefinitions(definitionsPath); err != nil {
		panic(fmt.Errorf("failed to load request type definitions: %w", err))
	}

	return reg
}
