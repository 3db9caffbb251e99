// Package file provides file-based persistence for legal review requests.
// It is the default backend for local development and tests.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/counselops/matterflow/pkg/persistence"
)

// Persistence implements persistence.Persistence on the local file system.
type Persistence struct {
	root        string
	requestRepo *RequestRepository
}

// NewPersistence creates file-backed persistence rooted at the given
// directory. A "file://" prefix is tolerated so database URLs work.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:        cleanRoot,
		requestRepo: NewRequestRepository(cleanRoot),
	}
}

// RequestRepository returns the request repository backed by this root.
func (fp *Persistence) RequestRepository() persistence.RequestRepository {
	return fp.requestRepo
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. There is nothing to clean up for
// file persistence.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}
