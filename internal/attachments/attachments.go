package attachments

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// Extension is the suffix, compared case-insensitively, that marks an archive
// member as a bill.
const Extension = ".pdf"

// MediaType is the content type bills are attached with.
const MediaType = "application/pdf"

// Document is one bill pulled out of the archive.
type Document struct {
	// Name is the member's base filename with any directory stripped.
	Name    string
	Content []byte
}

// Size returns the document length in bytes.
func (d Document) Size() int {
	return len(d.Content)
}

// ExtractError reports an archive that could not be opened or read.
type ExtractError struct {
	Path string
	Err  error
}

func (e *ExtractError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("extract documents: %v", e.Err)
	}
	return fmt.Sprintf("extract documents from %s: %v", e.Path, e.Err)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// Extract reads every bill from the zip archive at archivePath, in archive order.
func Extract(archivePath string) ([]Document, error) {
	rc, err := zip.OpenReader(archivePath)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, &ExtractError{Path: archivePath, Err: err}
	}
	defer rc.Close()

	docs, err := extract(&rc.Reader)
	if err != nil {
		return nil, &ExtractError{Path: archivePath, Err: err}
	}
	return docs, nil
}

// ExtractReader reads bills from an in-memory or otherwise seekable archive.
func ExtractReader(r io.ReaderAt, size int64) ([]Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, &ExtractError{Err: err}
	}
	docs, err := extract(zr)
	if err != nil {
		return nil, &ExtractError{Err: err}
	}
	return docs, nil
}

// Member paths are only used for their base names and nothing is written to
// disk, so archives flagged with zip.ErrInsecurePath are still read.
func extract(zr *zip.Reader) ([]Document, error) {
	var docs []Document
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !IsDocument(f.Name) {
			continue
		}
		content, err := readMember(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		docs = append(docs, Document{Name: baseName(f.Name), Content: content})
	}
	return docs, nil
}

func readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// IsDocument reports whether a member name carries the bill extension.
func IsDocument(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), Extension)
}

// baseName strips the directory part of a member name. Zip names use forward
// slashes, but archives built on Windows sometimes carry backslashes.
func baseName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	return path.Base(name)
}
