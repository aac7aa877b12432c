//////////////////////////////////////////////////////////////////////////////
//
// Media errors
//
// Copyright 2019 Lanikai Labs LLC. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package media

import "errors"

var (
	// ErrStopped is returned by producers that gave up waiting for buffer
	// space because the owning player was destroyed.
	ErrStopped = errors.New("Stopped")

	errBadFrame = errors.New("Frame pixel buffer does not match its dimensions")
)
