package reconciler

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"time"

	"hyde/internal/storage"
)

// Fingerprint identifies the state of a backing file.
type Fingerprint struct {
	Exists  bool      `json:"exists" yaml:"exists"`
	Size    int64     `json:"size" yaml:"size"`
	ModTime time.Time `json:"modTime" yaml:"modTime"`
	SHA256  string    `json:"sha256" yaml:"sha256"`
}

// Matches reports whether two fingerprints describe the same content.
// Modification times are informational only; coarse filesystem timestamps
// would otherwise hide or invent changes.
func (f Fingerprint) Matches(other Fingerprint) bool {
	if !f.Exists || !other.Exists {
		return f.Exists == other.Exists
	}
	return f.Size == other.Size && f.SHA256 == other.SHA256
}

func (f Fingerprint) String() string {
	if !f.Exists {
		return "missing"
	}
	short := f.SHA256
	if len(short) > 12 {
		short = short[:12]
	}
	return short
}

func fingerprintOf(data []byte, modTime time.Time) Fingerprint {
	sum := sha256.Sum256(data)
	return Fingerprint{
		Exists:  true,
		Size:    int64(len(data)),
		ModTime: modTime,
		SHA256:  hex.EncodeToString(sum[:]),
	}
}

// fileImage is the content and fingerprint of a backing file at one moment.
type fileImage struct {
	exists      bool
	data        []byte
	fingerprint Fingerprint
}

// readImage reads path through st. A missing file is not an error.
func readImage(st storage.Storage, path string) (fileImage, error) {
	data, err := st.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fileImage{}, nil
		}
		return fileImage{}, err
	}

	var modTime time.Time
	if info, err := st.Stat(path); err == nil {
		modTime = info.ModTime()
	}
	return fileImage{exists: true, data: data, fingerprint: fingerprintOf(data, modTime)}, nil
}

// writtenFingerprint fingerprints data just written to path.
func writtenFingerprint(st storage.Storage, path string, data []byte) Fingerprint {
	var modTime time.Time
	if info, err := st.Stat(path); err == nil {
		modTime = info.ModTime()
	}
	return fingerprintOf(data, modTime)
}
