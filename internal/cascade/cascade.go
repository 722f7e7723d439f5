// Package cascade builds the ordered list of candidate configuration files for
// a base path and environment, from least to most specific.
package cascade

import (
	"os"
	"strings"
)

// DefaultBasePath is used when no base path is supplied.
const DefaultBasePath = "./config"

// Build returns candidate paths in precedence order: later entries override
// earlier ones. When basePath has an extension the environment is inserted
// before it; otherwise bare, .yml and .yaml variants are all tried.
func Build(basePath, environment string, includeLocal bool) []string {
	return BuildSep(basePath, environment, includeLocal, os.PathSeparator)
}

// BuildSep is Build with an explicit path separator.
func BuildSep(basePath, environment string, includeLocal bool, sep rune) []string {
	if basePath == "" {
		basePath = DefaultBasePath
	}

	if stem, ext, ok := SplitExtensionSep(basePath, sep); ok {
		files := []string{
			basePath,
			stem + "." + environment + "." + ext,
		}
		if includeLocal {
			files = append(files, stem+"."+environment+".local."+ext)
		}
		return files
	}

	files := make([]string, 0, 9)
	for _, suffix := range []string{"", ".yml", ".yaml"} {
		files = append(files,
			basePath+suffix,
			basePath+"."+environment+suffix,
		)
		if includeLocal {
			files = append(files, basePath+"."+environment+".local"+suffix)
		}
	}
	return files
}

// SplitExtensionSep locates the file-name component after the last sep and
// splits it on its last dot. Dots in directory names are ignored. ok is false
// when the file name has no dot or the extension is empty.
func SplitExtensionSep(path string, sep rune) (stem, ext string, ok bool) {
	fileName := path
	if idx := strings.LastIndex(path, string(sep)); idx != -1 {
		fileName = path[idx+len(string(sep)):]
	}

	dot := strings.LastIndexByte(fileName, '.')
	if dot == -1 {
		return path, "", false
	}

	ext = fileName[dot+1:]
	if ext == "" {
		return path, "", false
	}
	return path[:len(path)-(len(fileName)-dot)], ext, true
}
