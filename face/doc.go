// Package face verifies a submitted face image against an enrolled
// reference image.
//
// Both images travel as base64 payloads, optionally with a data-URI
// prefix. [Comparer] is the pluggable decision point: [PixelComparer]
// implements a byte-sampling heuristic that needs no external service,
// and [ExternalComparer] delegates the decision to an out-of-process
// recognizer. Comparers answer match or no-match only; any failure of
// the comparison machinery itself is treated as no-match upstream.
package face
