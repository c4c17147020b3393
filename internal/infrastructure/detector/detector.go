package detector

import (
	"context"
	"fmt"

	"github.com/decorlens/backend/internal/domain"
	"github.com/decorlens/backend/internal/infrastructure/sidecar"
	"github.com/decorlens/backend/internal/lazy"
)

// SidecarDetector runs object detection on the local inference runtime.
// The detection model is loaded on first use through model.
type SidecarDetector struct {
	runtime *sidecar.Client
	model   *lazy.Loader[*sidecar.ModelInfo]
}

// New creates a detector backed by the inference runtime
func New(runtime *sidecar.Client, model *lazy.Loader[*sidecar.ModelInfo]) *SidecarDetector {
	return &SidecarDetector{runtime: runtime, model: model}
}

// Detect returns every object at or above threshold, in runtime order.
// The threshold is applied again locally so a lenient runtime can't leak
// low-confidence objects.
func (d *SidecarDetector) Detect(ctx context.Context, image []byte, threshold float64) ([]domain.RawDetection, error) {
	info, err := d.model.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load detection model: %w", err)
	}

	raw, err := d.runtime.Detect(ctx, info.Model, image, threshold)
	if err != nil {
		return nil, err
	}

	detections := make([]domain.RawDetection, 0, len(raw))
	for _, r := range raw {
		if r.Confidence >= threshold {
			detections = append(detections, r)
		}
	}
	return detections, nil
}

// Loaded reports whether the detection model is loaded
func (d *SidecarDetector) Loaded() bool {
	return d.model.Loaded()
}
