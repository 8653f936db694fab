//go:build !darwin && !linux && !(cgo && ffmpeg_cgo)

package mediaio

import "fmt"

func loadEngine() (engine, error) {
	return nil, fmt.Errorf("%w: no purego support on this platform, build with cgo and -tags ffmpeg_cgo", ErrEngineUnavailable)
}
