package session

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

func ensureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// writeFileAtomic 先写临时文件再改名，避免留下半个文件
func writeFileAtomic(path string, data []byte) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return eris.Wrapf(err, "create dir for %s", path)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return eris.Wrapf(err, "write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "rename %s", tmp)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
