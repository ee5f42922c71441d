package apply

import (
	"bytes"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

const compareChunk = 32 * 1024

func filesAreIdentical(fsys afero.Fs, path1, path2 string) (bool, error) {
	info1, err := fsys.Stat(path1)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path1, err)
	}
	info2, err := fsys.Stat(path2)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path2, err)
	}
	if info1.Size() != info2.Size() {
		return false, nil
	}

	f1, err := fsys.Open(path1)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", path1, err)
	}
	defer f1.Close()
	f2, err := fsys.Open(path2)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", path2, err)
	}
	defer f2.Close()

	buf1 := make([]byte, compareChunk)
	buf2 := make([]byte, compareChunk)
	for {
		n1, err1 := io.ReadFull(f1, buf1)
		n2, err2 := io.ReadFull(f2, buf2)
		if err1 != nil && err1 != io.EOF && err1 != io.ErrUnexpectedEOF {
			return false, fmt.Errorf("read %s: %w", path1, err1)
		}
		if err2 != nil && err2 != io.EOF && err2 != io.ErrUnexpectedEOF {
			return false, fmt.Errorf("read %s: %w", path2, err2)
		}
		if n1 != n2 || !bytes.Equal(buf1[:n1], buf2[:n2]) {
			return false, nil
		}
		if err1 != nil || err2 != nil {
			return true, nil
		}
	}
}
