package detector

import "math"
import "sort"

import "github.com/neurlang/detector/datasets/annotations"

// Detection is an object found in an image. X, Y is the box center, in image pixels.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

type rect struct {
	left, top, right, bottom float64
}

func boxRect(x, y, w, h float64) rect {
	return rect{x - w/2, y - h/2, x + w/2, y + h/2}
}

func (d Detection) rect() rect {
	return boxRect(d.X, d.Y, d.Width, d.Height)
}

func (r rect) area() float64 {
	return math.Max(0, r.right-r.left) * math.Max(0, r.bottom-r.top)
}

// iou is the intersection over union of two rectangles, 0 when both are empty.
func (r rect) iou(o rect) float64 {
	inter := rect{
		math.Max(r.left, o.left),
		math.Max(r.top, o.top),
		math.Min(r.right, o.right),
		math.Min(r.bottom, o.bottom),
	}.area()
	union := r.area() + o.area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// matchIoU is the overlap above which two boxes are the same object
const matchIoU = 0.5

// suppress keeps the most confident of every group of same label detections
// overlapping by more than matchIoU.
func suppress(dets []Detection) []Detection {
	sort.SliceStable(dets, func(i, j int) bool {
		return dets[i].Confidence > dets[j].Confidence
	})
	var kept []Detection
	for _, d := range dets {
		var overlaps bool
		for _, k := range kept {
			if k.Label == d.Label && k.rect().iou(d.rect()) > matchIoU {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, d)
		}
	}
	return kept
}

// f1 scores detections against the ground truth of one image, greedily matching
// each detection to the first unmatched truth of its label overlapping by more than
// matchIoU. No detections for no truth scores 1.
func f1(inferred []Detection, truth []annotations.Annotation) float64 {
	if len(inferred) == 0 && len(truth) == 0 {
		return 1
	} else if len(inferred) == 0 || len(truth) == 0 {
		return 0
	}

	var matches int
	seen := make(map[int]bool)
	for _, d := range inferred {
		for j, a := range truth {
			if seen[j] || a.Label != d.Label {
				continue
			}
			c := a.Coordinates
			if d.rect().iou(boxRect(c.X, c.Y, c.Width, c.Height)) <= matchIoU {
				continue
			}
			seen[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0
	}
	precision := float64(matches) / float64(len(inferred))
	recall := float64(matches) / float64(len(truth))
	return 2 * precision * recall / (precision + recall)
}
