// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package gorpos

// Listener observes an estimation. Methods are called synchronously from
// Estimate; they must not block for long and cannot reconfigure the
// estimator (setters return ErrLocked while it is running).
type Listener interface {
	OnEstimateStart(e *Estimator)
	OnEstimateEnd(e *Estimator)
	OnNextIteration(e *Estimator, iteration int)
	OnProgress(e *Estimator, progress float64)
}

// NopListener ignores every notification. Embed it to implement only some methods.
type NopListener struct{}

func (NopListener) OnEstimateStart(*Estimator) {}
func (NopListener) OnEstimateEnd(*Estimator) {}
func (NopListener) OnNextIteration(*Estimator, int) {}
func (NopListener) OnProgress(*Estimator, float64) {}
