// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package gorpos

import "errors"

// Errors returned by the estimators. Callers match them with errors.Is;
// returned errors wrap them with details.
var (
	// Missing or invalid sources, fingerprint, quality scores or options
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// Mutation or estimation attempted while an estimation is in progress
	ErrLocked = errors.New("estimator locked")

	// Estimation attempted before the estimator was fully configured
	ErrNotReady = errors.New("estimator not ready")

	// Source geometry does not determine a point (collinear or coplanar sources)
	ErrDegenerateGeometry = errors.New("degenerate source geometry")

	// No candidate model reached the minimum number of inliers
	ErrInsufficientConsensus = errors.New("insufficient consensus")
)
