package tools

import "path/filepath"

// resolveAbs resolves path to absolute form against cwd, matching spec.md
// 4.G: "All file paths are resolved to absolute form against cwd."
func resolveAbs(cwd, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(cwd, path))
}

// binaryLikeExtensions is the hardcoded list carried over from the source
// this tool set was ported from (spec.md Open Question a). It is
// intentionally not configurable yet.
var binaryLikeExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".webp": true, ".gif": true, ".bmp": true, ".ico": true,
	".pdf": true, ".zip": true, ".gz": true, ".tar": true, ".7z": true,
	".mp3": true, ".wav": true, ".mp4": true, ".mov": true, ".avi": true,
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true,
	".exe": true, ".dll": true, ".so": true, ".class": true, ".jar": true, ".bin": true,
}

// isBinaryLikeExtension reports whether ext (including the leading dot,
// lowercased) names a known binary file type rejected by read_file.
func isBinaryLikeExtension(ext string) bool {
	return binaryLikeExtensions[ext]
}
