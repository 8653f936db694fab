//go:build (darwin || linux) && !(cgo && ffmpeg_cgo)

// Shared utilities for the purego engine.

package mediaio

import (
	"os"
	"path/filepath"
	"runtime"
	"unsafe"
)

// goStringFromPtr converts a C string pointer to a Go string.
func goStringFromPtr(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	// Find string length
	p := unsafe.Pointer(ptr)
	var length int
	for {
		if *(*byte)(unsafe.Add(p, length)) == 0 {
			break
		}
		length++
		if length > 1<<16 { // Safety limit, configuration strings run long
			break
		}
	}
	if length == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(p), length))
}

// cString returns a NUL-terminated copy of s, or nil for the empty string so
// optional arguments reach C as NULL.
func cString(s string) *byte {
	if s == "" {
		return nil
	}
	b := make([]byte, len(s)+1)
	copy(b, s)
	return &b[0]
}

// readPtr loads a pointer-sized field at addr.
func readPtr(addr uintptr) uintptr {
	return *(*uintptr)(unsafe.Pointer(addr))
}

// writePtr stores a pointer-sized field at addr.
func writePtr(addr, v uintptr) {
	*(*uintptr)(unsafe.Pointer(addr)) = v
}

// findModuleRoot walks up the directory tree from the current working directory
// to find the module root (directory containing go.mod).
func findModuleRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// findSourceRoot returns the directory holding this source file, which is the
// module root when running from a checkout.
func findSourceRoot() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	return filepath.Dir(file)
}

// sharedLibPaths lists candidate paths for a shared library, most specific
// first: an explicit file from fileEnv, the directory in MEDIAIO_LIB_PATH,
// build/ directories near the executable, working directory and source tree,
// then versioned and unversioned system names.
func sharedLibPaths(fileEnv, base string, majors []string) []string {
	var paths []string

	var names []string
	switch runtime.GOOS {
	case "darwin":
		for _, m := range majors {
			names = append(names, base+"."+m+".dylib")
		}
		names = append(names, base+".dylib")
	default:
		for _, m := range majors {
			names = append(names, base+".so."+m)
		}
		names = append(names, base+".so")
	}

	// Environment variable overrides
	if envPath := os.Getenv(fileEnv); envPath != "" {
		paths = append(paths, envPath)
	}
	if envDir := os.Getenv("MEDIAIO_LIB_PATH"); envDir != "" {
		for _, name := range names {
			paths = append(paths, filepath.Join(envDir, name))
		}
	}

	var dirs []string
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		dirs = append(dirs, exeDir, filepath.Join(exeDir, "..", "lib"))
	}
	if root := findModuleRoot(); root != "" {
		dirs = append(dirs, filepath.Join(root, "build"))
	}
	if root := findSourceRoot(); root != "" {
		dirs = append(dirs, filepath.Join(root, "build"))
	}
	for _, dir := range dirs {
		for _, name := range names {
			paths = append(paths, filepath.Join(dir, name))
		}
	}

	// System paths
	switch runtime.GOOS {
	case "darwin":
		for _, name := range names {
			paths = append(paths,
				name,
				filepath.Join("/opt/homebrew/lib", name),
				filepath.Join("/usr/local/lib", name),
			)
		}
	case "linux":
		for _, name := range names {
			paths = append(paths,
				name,
				filepath.Join("/usr/local/lib", name),
				filepath.Join("/usr/lib", name),
			)
		}
	}

	return paths
}
