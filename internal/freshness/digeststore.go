package freshness

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/vkbuild/ubuild/internal/common"
)

// DigestStore persists the last-known content digest of every source file
// ubuild has seen, the Go equivalent of jmake's per-file ".md5" sidecar
// files, but consolidated into a single JSON index under the cache
// directory instead of one sidecar per source (cheaper to fsync, and avoids
// recreating jmake's mirrored directory tree under its cache dir).
type DigestStore struct {
	mu       sync.Mutex
	path     string
	digests  map[string]common.SHA256
	modified bool
}

type digestStoreFile struct {
	Digests map[string]string `json:"digests"`
}

// OpenDigestStore loads (or creates) the digest index at
// <cacheDir>/digests.json.
func OpenDigestStore(cacheDir string) (*DigestStore, error) {
	path := filepath.Join(cacheDir, "digests.json")
	ds := &DigestStore{path: path, digests: make(map[string]common.SHA256)}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ds, nil
		}
		return nil, err
	}

	var onDisk digestStoreFile
	if err := json.Unmarshal(raw, &onDisk); err != nil {
		return nil, err
	}
	for k, v := range onDisk.Digests {
		var sha common.SHA256
		sha.FromLongHexString(v)
		ds.digests[k] = sha
	}
	return ds, nil
}

func (ds *DigestStore) Get(sourcePath string) (common.SHA256, bool) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	sha, ok := ds.digests[sourcePath]
	return sha, ok
}

// Put records a new digest in memory; the caller is responsible for calling
// Flush once per build so a crash mid-build doesn't persist a half-updated
// index (the object file wouldn't have been produced either, so the next
// build would still see a missing-object rebuild trigger regardless).
func (ds *DigestStore) Put(sourcePath string, sha common.SHA256) error {
	ds.mu.Lock()
	ds.digests[sourcePath] = sha
	ds.modified = true
	ds.mu.Unlock()
	return nil
}

func (ds *DigestStore) Flush() error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if !ds.modified {
		return nil
	}

	onDisk := digestStoreFile{Digests: make(map[string]string, len(ds.digests))}
	for k, sha := range ds.digests {
		shaCopy := sha
		onDisk.Digests[k] = shaCopy.ToLongHexString()
	}

	raw, err := json.MarshalIndent(onDisk, "", "  ")
	if err != nil {
		return err
	}

	if err := common.MkdirForFile(ds.path); err != nil {
		return err
	}
	if err := os.WriteFile(ds.path, raw, 0644); err != nil {
		return err
	}
	ds.modified = false
	return nil
}
