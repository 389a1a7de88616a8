package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ezraball/neighborhood-tour/internal/domain/model"
	"github.com/ezraball/neighborhood-tour/internal/domain/repository"
)

// AreaResolver determines the region a wander may cover: an isochrone
// polygon when the provider capability is available, otherwise a disk.
type AreaResolver struct {
	isochroneProvider repository.IsochroneProvider
	logger            *logrus.Logger
}

// NewAreaResolver creates a resolver. The isochrone provider may be nil.
func NewAreaResolver(isochroneProvider repository.IsochroneProvider, logger *logrus.Logger) *AreaResolver {
	return &AreaResolver{isochroneProvider: isochroneProvider, logger: logger}
}

// Resolve produces the walkable area around center. walkMinutes is the full
// simulated walk time; the isochrone is requested for half of it, since a
// wander roughly doubles back on itself. fallbackRadius bounds the disk
// variant in meters.
func (r *AreaResolver) Resolve(ctx context.Context, center model.GeoPoint, walkMinutes int, fallbackRadius float64) *model.WalkableArea {
	if r.isochroneProvider != nil {
		ring, err := r.isochroneProvider.Isochrone(ctx, center, walkMinutes/2)
		if err == nil && len(ring) >= 3 {
			area := model.NewPolygonArea(center, ring)
			r.logger.WithFields(logrus.Fields{
				"vertices": len(ring),
				"extent_m": int(area.RadiusMeters),
			}).Info("Using walking isochrone boundary")
			return area
		}
		if err != nil && err != repository.ErrIsochroneUnavailable {
			r.logger.WithError(err).Warn("Isochrone lookup failed, falling back to distance-based boundary")
		}
	}

	r.logger.WithField("radius_m", int(fallbackRadius)).Info("Using distance-based boundary")
	return model.NewDiskArea(center, fallbackRadius)
}
