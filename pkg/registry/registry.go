// Package registry loads and serves request type definitions. Definitions
// are JSON files validated against an embedded schema, so configuration
// mistakes surface at startup instead of at request creation.
package registry

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"

	"github.com/counselops/matterflow/pkg/models"
)

// RequestTypeDefinition describes one request type available for intake.
type RequestTypeDefinition struct {
	Type             models.RequestType      `json:"type"`
	DisplayName      string                  `json:"display_name"`
	Description      string                  `json:"description,omitempty"`
	AllowedAudiences []models.ReviewAudience `json:"allowed_audiences"`

	// ForesideEligible marks types that may require Foreside/FINRA review.
	ForesideEligible bool `json:"foreside_eligible"`
}

// AllowsAudience reports whether the given audience may review this type.
func (d *RequestTypeDefinition) AllowsAudience(audience models.ReviewAudience) bool {
	for _, allowed := range d.AllowedAudiences {
		if allowed == audience {
			return true
		}
	}

	return false
}

// Registry holds the request type definitions loaded at startup. It is
// read-only after Load and safe for concurrent use.
type Registry struct {
	logger      *slog.Logger
	definitions map[models.RequestType]*RequestTypeDefinition
}

// NewRegistry creates an empty registry preloaded with the built-in types.
func NewRegistry(logger *slog.Logger) *Registry {
	r := &Registry{
		logger:      logger.With("module", "registry"),
		definitions: make(map[models.RequestType]*RequestTypeDefinition),
	}

	for _, def := range builtinDefinitions() {
		r.definitions[def.Type] = def
	}

	return r
}

func builtinDefinitions() []*RequestTypeDefinition {
	return []*RequestTypeDefinition{
		{
			Type:             models.RequestTypeGeneral,
			DisplayName:      "General Legal Review",
			AllowedAudiences: []models.ReviewAudience{models.AudienceLegal, models.AudienceCompliance, models.AudienceBoth},
		},
		{
			Type:             models.RequestTypeMarketingMaterial,
			DisplayName:      "Marketing Material Review",
			AllowedAudiences: []models.ReviewAudience{models.AudienceCompliance, models.AudienceBoth},
			ForesideEligible: true,
		},
		{
			Type:             models.RequestTypeContract,
			DisplayName:      "Contract Review",
			AllowedAudiences: []models.ReviewAudience{models.AudienceLegal},
		},
	}
}

// LoadDefinitions reads *.json definition files from dir, validates each
// against the definition schema, and registers them. Files override built-in
// definitions with the same type. A missing directory is not an error.
func (r *Registry) LoadDefinitions(dir string) error {
	if dir == "" {
		return nil
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		r.logger.Warn("request type definitions directory does not exist", "dir", dir)

		return nil
	}

	files, err := fs.Glob(os.DirFS(dir), "*.json")
	if err != nil {
		return fmt.Errorf("failed to list definition files: %w", err)
	}

	for _, file := range files {
		def, err := r.loadDefinition(path.Join(dir, file))
		if err != nil {
			return fmt.Errorf("failed to load definition %s: %w", file, err)
		}

		r.definitions[def.Type] = def
		r.logger.Info("registered request type", "type", def.Type, "display_name", def.DisplayName)
	}

	return nil
}

func (r *Registry) loadDefinition(filePath string) (*RequestTypeDefinition, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	err = validateDefinition(data)
	if err != nil {
		return nil, err
	}

	var def RequestTypeDefinition

	err = json.Unmarshal(data, &def)
	if err != nil {
		return nil, err
	}

	return &def, nil
}

// Get returns the definition for a request type, or nil when unknown.
func (r *Registry) Get(requestType models.RequestType) *RequestTypeDefinition {
	return r.definitions[requestType]
}

// Types returns the registered request types, sorted for stable output.
func (r *Registry) Types() []models.RequestType {
	types := make([]models.RequestType, 0, len(r.definitions))
	for t := range r.definitions {
		types = append(types, t)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}
