package gpu

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// shaderCacheVersion is bumped whenever the on-disk record layout
// changes (§6: "8-byte version, 8-byte source-mtime, 4-byte payload
// length, payload bytes").
const shaderCacheVersion uint64 = 1

// ShaderCache persists compiled shader bytecode keyed by a hash of
// (source path, entry point, defines), invalidated on source mtime
// change.
type ShaderCache struct {
	Dir string
}

func NewShaderCache(dir string) *ShaderCache {
	return &ShaderCache{Dir: dir}
}

// Key returns the deterministic cache-file name for a given shader
// compile request, content-addressed via uuid.NewSHA1 the way the
// teacher's asset server content-addresses handles, but keyed on the
// compile inputs instead of a random seed.
func (c *ShaderCache) Key(sourcePath, entryPoint string, defines []string) string {
	joined := sourcePath + "\x00" + entryPoint + "\x00" + strings.Join(defines, ",")
	id := uuid.NewSHA1(uuid.Nil, []byte(joined))
	return id.String() + ".bin"
}

// Load returns the cached bytecode for sourcePath/entryPoint/defines,
// or (nil, false) if absent or stale relative to sourcePath's mtime.
func (c *ShaderCache) Load(sourcePath, entryPoint string, defines []string) ([]byte, bool) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return nil, false
	}
	path := filepath.Join(c.Dir, c.Key(sourcePath, entryPoint, defines))
	raw, err := os.ReadFile(path)
	if err != nil || len(raw) < 20 {
		return nil, false
	}
	version := binary.LittleEndian.Uint64(raw[0:8])
	mtimeNanos := int64(binary.LittleEndian.Uint64(raw[8:16]))
	payloadLen := binary.LittleEndian.Uint32(raw[16:20])
	if version != shaderCacheVersion {
		return nil, false
	}
	if mtimeNanos != info.ModTime().UnixNano() {
		return nil, false
	}
	if int(payloadLen) != len(raw)-20 {
		return nil, false
	}
	return raw[20:], true
}

// Store writes payload to the cache, stamped with sourcePath's current
// mtime.
func (c *ShaderCache) Store(sourcePath, entryPoint string, defines []string, payload []byte) error {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return fmt.Errorf("shadercache: stat %s: %w", sourcePath, err)
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return err
	}
	buf := make([]byte, 20+len(payload))
	binary.LittleEndian.PutUint64(buf[0:8], shaderCacheVersion)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(info.ModTime().UnixNano()))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(len(payload)))
	copy(buf[20:], payload)
	path := filepath.Join(c.Dir, c.Key(sourcePath, entryPoint, defines))
	return os.WriteFile(path, buf, 0o644)
}
