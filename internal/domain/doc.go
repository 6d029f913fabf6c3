// Package domain holds the pure core of the farm advisory engine: coordinate
// normalization, weather snapshots, crop state, risk scoring, action
// generation, and advisory formatting.
//
// # Service Area
//
// The service targets farmers in Bangladesh. Coordinates are validated against
// the national bounding box (lat 20.5–26.7, lon 88.0–92.7); anything outside
// it is silently replaced with the default location (Dhaka) so that a farmer
// with a mistyped location still receives advisories instead of an error.
// Coordinates are rounded to two decimal places before they reach the weather
// cache, which groups observations within roughly one kilometre under a single
// cache key.
//
// # Risk Scoring
//
// Four independent weather factors contribute points on stepped scales:
//
//	humidity %      >90 → 35   >80 → 25   >70 → 15   >60 → 8
//	temperature °C  >42 → 30   >38 → 20   >35 → 12   >30 → 7
//	rainfall mm     >150 → 25  >100 → 18  >50 → 10   >20 → 5
//	wind m/s        >20 → 10   >15 → 7    >10 → 4    >5 → 0
//
// The sum is multiplied by the storage vulnerability multiplier when the crop
// is harvested (silo 1.0, tin shed 1.1, jute bag 1.2, open space 1.5), clamped
// to [0,100], and mapped to a level: Low < 40 ≤ Medium < 60 ≤ High < 80 ≤
// Critical. Scoring is deterministic; the only time dependence is the
// precomputed days-until-harvest on the crop context.
//
// # Localization
//
// Advisory messages and action texts are written in Bengali, the script of
// the farmers the SMS channel reaches. Every generated message and every
// action string contains at least one character from the Bengali Unicode
// block; ContainsBengali checks the invariant.
package domain
