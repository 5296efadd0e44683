package inventory

import (
	"context"

	"github.com/de-tools/fleet-compliance/pkg/models/domain"
)

// Fetcher reads servers and images from the inventory of a region.
type Fetcher interface {
	ListServers(ctx context.Context, region, token string) ([]domain.ServerRecord, error)
	// ResolveImageName never fails: an image whose name cannot be fetched reports ok=false.
	ResolveImageName(ctx context.Context, region, imageID, token string) (name string, ok bool)
}
