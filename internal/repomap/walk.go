package repomap

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/codeintel/internal/langs"
)

// skipDirs is the fixed set of directory names the tree walk never
// descends into, in addition to any hidden ("." prefixed) directory
// (spec.md §4.D step 1).
var skipDirs = map[string]bool{
	"node_modules": true,
	"target":       true,
	"dist":         true,
	"bin":          true,
	"obj":          true,
	"packages":     true,
	"build":        true,
	".vs":          true,
	".vscode":      true,
	".git":         true,
	".idea":        true,
}

// walkFile is one project-relative source file discovered during the walk.
type walkFile struct {
	relPath string
	absPath string
	lang    langs.Language
}

// walkProject walks root, skipping hidden directories and skipDirs,
// canonicalising every kept file to project-relative forward-slash form,
// and keeping only files whose extension maps to a supported language.
func walkProject(root string) ([]walkFile, error) {
	var files []walkFile

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible paths rather than aborting the walk
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}

		lang, ok := langs.ForExtension(filepath.Ext(path))
		if !ok {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		files = append(files, walkFile{relPath: rel, absPath: path, lang: lang})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// batchSize implements spec.md §4.D's adaptive batch sizing table, sampling
// the average size of up to the first 50 files to decide a bucket without
// statting the entire tree.
func batchSize(files []walkFile) int {
	n := len(files)
	if n == 0 {
		return 50
	}

	sample := files
	if len(sample) > 50 {
		sample = sample[:50]
	}
	var total int64
	var sampled int
	for _, f := range sample {
		if info, err := os.Stat(f.absPath); err == nil {
			total += info.Size()
			sampled++
		}
	}
	var avg int64
	if sampled > 0 {
		avg = total / int64(sampled)
	}

	const kb = 1024
	switch {
	case n > 10000 && avg < 10*kb:
		return 50
	case n > 5000 && avg < 50*kb:
		return 30
	case n > 1000 && avg > 100*kb:
		return 10
	case n > 500 && avg > 500*kb:
		return 5
	case n > 1000:
		return 20
	default:
		return 50
	}
}

// batches partitions files into chunks of size batchSz (the final chunk may
// be shorter).
func batches(files []walkFile, batchSz int) [][]walkFile {
	if batchSz <= 0 {
		batchSz = 50
	}
	var out [][]walkFile
	for i := 0; i < len(files); i += batchSz {
		end := i + batchSz
		if end > len(files) {
			end = len(files)
		}
		out = append(out, files[i:end])
	}
	return out
}
