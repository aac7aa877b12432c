//go:build noffmpeg
// +build noffmpeg

package decode

// Built without FFmpeg: only the pure-Go backends are registered.

const ffmpegAvailable = false
