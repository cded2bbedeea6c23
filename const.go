// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package gorpos

const (
	DEFAULT_METHOD         = PROMEDS // Robust method used by the command when none is given
	DEFAULT_CONFIDENCE     = 0.99    // Probability of drawing at least one outlier-free subset
	DEFAULT_MAX_ITERATIONS = 5000    // Upper bound of sampling iterations
	DEFAULT_THRESHOLD      = 0.1     // Inlier distance threshold for RANSAC/MSAC/PROSAC [m]
	DEFAULT_STOP_THRESHOLD = 1e-5    // Median residual that ends LMedS/PROMedS sampling early [m]
	DEFAULT_INLIER_FACTOR  = 1.5     // Multiple of the robust scale accepted as inlier (LMedS/PROMedS)
	DEFAULT_PROGRESS_DELTA = 0.05    // Minimum progress change between listener notifications
	FALLBACK_DISTANCE_STD  = 1e-3    // Distance standard deviation used when a reading has none [m]
	MIN_WEIGHT             = 0.001   // Minimum refinement weight derived from quality scores
	LMEDS_NORM_CONSTANT    = 1.4826  // Consistency constant of the median absolute deviation
	MEDIAN_INLIER_RATIO    = 0.5     // The median only vouches for half of the matched set
	DEGENERACY_RCOND       = 1e-10   // Relative singular value below which a geometry is rank deficient
	LATERATION_MAX_LOOP    = 20      // Maximum number of Gauss-Newton loops
	LATERATION_CONVERGENCE = 1e-10   // Gauss-Newton convergence threshold [m]
)
