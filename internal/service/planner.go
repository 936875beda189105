package service

import (
	"context"
	"log"
	"math"
	"os"
	"sort"

	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/domain"
	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/media"
)

// SilenceSnapWindowSeconds is how far a planned cut may move to land on a
// detected silence point.
const SilenceSnapWindowSeconds = 10.0

// SilenceDetector is the slice of the media layer the planner needs.
type SilenceDetector interface {
	DetectSilence(ctx context.Context, audioPath string, noiseDB int, minSilence float64) ([]media.SilenceInterval, error)
}

// PlannerConfig carries the segmentation thresholds.
type PlannerConfig struct {
	MaxChunkMB         float64
	SilenceThresholdDB int
	MinSilenceDuration float64
}

// PlannerService decides whether and where to cut a recording's audio.
type PlannerService struct {
	detector SilenceDetector
	cfg      PlannerConfig
}

func NewPlannerService(detector SilenceDetector, cfg PlannerConfig) *PlannerService {
	return &PlannerService{detector: detector, cfg: cfg}
}

// ShouldSegment reports whether the file's size strictly exceeds the chunk
// ceiling. A stat failure means "no segmentation": the error is logged but
// never blocks ingestion, the whole-file path will surface any real problem.
func (s *PlannerService) ShouldSegment(filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		log.Printf("planner: stat %s failed, skipping segmentation: %v", filePath, err)
		return false
	}
	sizeMB := float64(info.Size()) / (1024 * 1024)
	return sizeMB > s.cfg.MaxChunkMB
}

// DetectSilencePoints returns the midpoints of detected silence intervals in
// file order. Silence detection is a best-effort heuristic: any failure
// yields an empty list, which simply forces exact-interval cuts downstream.
func (s *PlannerService) DetectSilencePoints(ctx context.Context, audioPath string) []float64 {
	intervals, err := s.detector.DetectSilence(ctx, audioPath, s.cfg.SilenceThresholdDB, s.cfg.MinSilenceDuration)
	if err != nil {
		log.Printf("planner: silence detection failed for %s, falling back to exact cuts: %v", audioPath, err)
		return nil
	}

	points := make([]float64, 0, len(intervals))
	for _, iv := range intervals {
		points = append(points, iv.Midpoint())
	}
	return points
}

// CalculatePlanPoints computes the sorted cut timestamps for a recording.
//
// The chunk count is floor(sizeMB/maxMB)+1, targets are evenly spaced, and
// each target snaps to the closest silence point within the snap window when
// one exists. Snapping is resolved per target, so adjacent targets can in
// pathological inputs collapse onto the same silence point; that plan is
// rejected with domain.ErrInvalidPlan rather than producing a zero-length or
// inverted chunk.
func (s *PlannerService) CalculatePlanPoints(duration, fileSizeMB float64, silencePoints []float64) ([]float64, error) {
	numChunks := int(math.Floor(fileSizeMB/s.cfg.MaxChunkMB)) + 1
	if numChunks <= 1 {
		return nil, nil
	}

	points := make([]float64, 0, numChunks-1)
	interval := duration / float64(numChunks)
	for i := 1; i < numChunks; i++ {
		target := interval * float64(i)
		points = append(points, snapToSilence(target, silencePoints))
	}

	sort.Float64s(points)

	if err := validatePlanPoints(points, duration); err != nil {
		return nil, err
	}
	return points, nil
}

// snapToSilence returns the silence point closest to target within the snap
// window, or the target itself when none qualifies.
func snapToSilence(target float64, silencePoints []float64) float64 {
	best := target
	bestDist := math.Inf(1)
	for _, p := range silencePoints {
		dist := math.Abs(p - target)
		if dist <= SilenceSnapWindowSeconds && dist < bestDist {
			best = p
			bestDist = dist
		}
	}
	return best
}

// validatePlanPoints rejects plans whose points are not strictly increasing
// within (0, duration). Duplicates arise when two targets snap to the same
// silence point; materializing such a plan would produce an empty chunk.
func validatePlanPoints(points []float64, duration float64) error {
	prev := 0.0
	for _, p := range points {
		if p <= prev || p >= duration {
			return domain.ErrInvalidPlan
		}
		prev = p
	}
	return nil
}
