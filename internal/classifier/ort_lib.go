package classifier

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// resolveORTLibPath returns the path to the ONNX Runtime shared library.
// Search order:
//  1. MUDRA_ORT_LIB_PATH
//  2. lib/<goos>-<goarch>/ relative to the executable
//  3. ../lib/<goos>-<goarch>/ relative to the executable
//  4. the same two relative to the working directory, only if MUDRA_DEV_MODE=1
func resolveORTLibPath() (string, error) {
	if envPath := os.Getenv("MUDRA_ORT_LIB_PATH"); envPath != "" {
		info, err := os.Stat(envPath)
		if err != nil {
			return "", fmt.Errorf("ort: MUDRA_ORT_LIB_PATH=%q does not exist", envPath)
		}
		if info.IsDir() {
			return "", fmt.Errorf("ort: MUDRA_ORT_LIB_PATH=%q is a directory, expected a file", envPath)
		}
		return envPath, nil
	}

	filename := ortLibFilename()
	platform := runtime.GOOS + "-" + runtime.GOARCH
	rels := []string{
		filepath.Join("lib", platform, filename),
		filepath.Join("..", "lib", platform, filename),
	}

	var dirs []string
	if exePath, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exePath))
	}
	if os.Getenv("MUDRA_DEV_MODE") == "1" {
		if wd, err := os.Getwd(); err == nil {
			dirs = append(dirs, wd)
		}
	}

	for _, dir := range dirs {
		for _, rel := range rels {
			path := filepath.Join(dir, rel)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	return "", fmt.Errorf("ort: shared library not found; searched lib/%s/%s (set MUDRA_ORT_LIB_PATH to override)", platform, filename)
}

// ortLibFilename returns the platform-specific ONNX Runtime library filename.
func ortLibFilename() string {
	switch runtime.GOOS {
	case "darwin":
		return "libonnxruntime.dylib"
	case "windows":
		return "onnxruntime.dll"
	default:
		return "libonnxruntime.so"
	}
}
