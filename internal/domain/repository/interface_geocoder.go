package repository

import (
	"context"

	"github.com/ezraball/neighborhood-tour/internal/domain/model"
)

// Geocoder resolves free-text addresses to coordinates and coordinates back
// to street names for overlay labels.
type Geocoder interface {
	// ResolveAddress geocodes an address string. A non-geocodable address
	// returns an InputError.
	ResolveAddress(ctx context.Context, address string) (model.GeoPoint, error)
	// ReverseStreetName returns the street name at a coordinate, or an
	// empty string when none is known. Failures are non-fatal.
	ReverseStreetName(ctx context.Context, point model.GeoPoint) (string, error)
}
