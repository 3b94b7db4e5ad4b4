// Package domain models predicted fire-perimeter windows, CAL FIRE reference
// perimeters, and the evaluation artifacts exported for the dashboard.
//
// # Data Sources
//
// Predicted perimeters come from the upstream growth model, which emits one
// polygon per fire per time window ("window"). Reference perimeters come from
// the CAL FIRE historical fire perimeter dataset
// (California_Fire_Perimeters_(all)), whose attributes FIRE_NAME, INC_NUM,
// YEAR_ and GIS_ACRES carry over into [ReferencePerimeter].
//
// # Coordinate Frames
//
// Every geometry exists in two frames, and the two are never interchangeable:
//
//	Planar:     NAD83 / California Albers (EPSG:3310), an equal-area
//	            projection. All areas and overlap metrics are computed here.
//	Geographic: WGS-84 longitude/latitude (EPSG:4326). All display geometry
//	            and the centroid are taken from here.
//
// Computing an area in the geographic frame would run without error and
// produce a geometrically wrong number, so the frame separation is a hard
// invariant. [WindowPerimeter] and [ReferencePerimeter] hold both frames of
// the same row side by side, which keeps per-row correspondence explicit
// instead of relying on two tables staying in lockstep.
//
// # Fire Identity
//
// A fire id is the string FIRE_NAME + "_" + INC_NUM. Two distinct incidents
// sharing both strings would silently collide into one fire record. This is a
// known limitation of the upstream dataset's join key and is preserved as-is.
//
// # Evaluation
//
// The chronologically final predicted perimeter is compared against the
// reference perimeter with intersection-over-union, precision, recall, and an
// F-beta score with beta = 1.25 (recall weighted slightly above precision).
// Degenerate inputs (zero-area polygons, empty unions) yield metric value 0
// rather than an error. See [EvaluateOverlap].
//
// # Unit Conventions
//
// Areas are square kilometers, derived from planar square meters. CAL FIRE
// acreage converts at 0.00404686 km² per acre ([AcresToKm2]). Missing acreage
// counts as 0. Exported areas are rounded to 2 decimal places, iou and f125
// to 3; rounding happens once at assembly, never during computation.
package domain
