package airdrop

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/cavaliercoder/go-cpio"
)

// WriteArchive produces a gzip-compressed CPIO stream from the given
// absolute file paths onto w, archiving each entry at "./<basename>". The
// stream is self-delimiting (CPIO trailer + gzip footer), so the reader
// never needs a content-length.
func WriteArchive(w io.Writer, paths []string) error {
	gz := gzip.NewWriter(w)
	cw := cpio.NewWriter(gz)

	for _, p := range paths {
		if err := writeEntry(cw, p); err != nil {
			return fmt.Errorf("archive %s: %w", p, err)
		}
	}

	if err := cw.Close(); err != nil {
		return fmt.Errorf("close cpio writer: %w", err)
	}
	return gz.Close()
}

func writeEntry(cw *cpio.Writer, absPath string) error {
	info, err := os.Stat(absPath)
	if err != nil {
		return err
	}

	hdr, err := cpio.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = "./" + filepath.Base(absPath)

	if err := cw.WriteHeader(hdr); err != nil {
		return err
	}

	f, err := os.Open(absPath)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(cw, f)
	return err
}

// PipeArchive archives paths into an in-memory pipe so the caller (an
// HTTP request body reader, typically) can stream the result without the
// producer ever buffering the whole archive. Any archiving error is
// delivered by closing the pipe's read side with that error.
func PipeArchive(paths []string) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		err := WriteArchive(pw, paths)
		pw.CloseWithError(err)
	}()
	return pr
}

// ExtractArchive reads a gzip-compressed CPIO stream from r and
// materializes each entry under destDir, preserving the entry's
// archive-relative path. The archive is consumed incrementally — at no
// point is a whole entry or the whole stream buffered in memory.
// Symbolic links and device nodes are refused.
func ExtractArchive(r io.Reader, destDir string) (bytesWritten int64, err error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close()

	cr := cpio.NewReader(gz)
	for {
		hdr, err := cr.Next()
		if err == io.EOF {
			return bytesWritten, nil
		}
		if err != nil {
			return bytesWritten, fmt.Errorf("read cpio entry: %w", err)
		}

		n, err := extractEntry(cr, hdr, destDir)
		bytesWritten += n
		if err != nil {
			return bytesWritten, err
		}
	}
}

func extractEntry(cr *cpio.Reader, hdr *cpio.Header, destDir string) (int64, error) {
	cleaned := path.Clean(hdr.Name)
	target := filepath.Join(destDir, filepath.FromSlash(cleaned))

	switch hdr.Mode & cpio.ModeType {
	case cpio.ModeDir:
		return 0, os.MkdirAll(target, 0755)
	case cpio.ModeSymlink:
		return 0, fmt.Errorf("%w: symlink entries are not supported: %s", ErrProtocolViolation, hdr.Name)
	case cpio.ModeRegular:
	default:
		return 0, fmt.Errorf("%w: unsupported entry type for %s", ErrProtocolViolation, hdr.Name)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return 0, err
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	return io.Copy(f, cr)
}
