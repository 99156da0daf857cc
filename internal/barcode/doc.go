// Package barcode adapts third-party QR decoders to a uniform detection
// result. Two backends are linked by default:
//
//   - gozxing: decodes and localizes symbols (corner quadrilaterals).
//   - goqr: decodes text only.
//
// The Adapter normalizes backend output so that empty results are empty
// slices, never nil, and decode failures on a single frame count as zero
// detections.
package barcode
