package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/contentspec/internal/ctxlog"
)

// Validate runs check against every entry and reports all failures at once.
func (r *Registry[F]) Validate(ctx context.Context, check func(*Entry[F]) error) error {
	logger := ctxlog.FromContext(ctx)

	var errs []string
	for _, e := range r.Entries() {
		if len(e.Capabilities) == 0 {
			logger.Warn("Registered type has no capabilities and cannot fill any typed slot.", "id", e.ID)
		}
		if err := check(e); err != nil {
			errs = append(errs, fmt.Sprintf("type '%s': %v", e.ID, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	logger.Debug("Registry validated.", "types", len(r.Entries()))
	return nil
}
