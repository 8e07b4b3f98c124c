package epub

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var (
	ErrInvalidMimetype   = errors.New("invalid mimetype: must be 'application/epub+zip'")
	ErrMimetypeNotFound  = errors.New("mimetype file not found")
	ErrContainerNotFound = errors.New("META-INF/container.xml not found")
	ErrOPFPathNotFound   = errors.New("OPF path not found in container.xml")
	ErrNavNotFound       = errors.New("no navigation document in manifest")
)

// Reader provides access to one EPUB container.
type Reader struct {
	zipReader *zip.ReadCloser
	files     map[string]*zip.File
	opfPath   string
	opfDir    string

	meta      Metadata
	spine     []string
	navPath   string
	ncxPath   string
	coverPath string
}

// container.xml structure
type container struct {
	Rootfiles struct {
		Rootfile []struct {
			FullPath  string `xml:"full-path,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

// Open opens an EPUB file, validates its structure, and parses the OPF package.
func Open(filePath string) (*Reader, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("open epub: %w", err)
	}

	r := &Reader{
		zipReader: zr,
		files:     make(map[string]*zip.File),
	}
	for _, f := range zr.File {
		r.files[normalizePath(f.Name)] = f
	}

	if err := r.validateMimetype(); err != nil {
		zr.Close()
		return nil, err
	}
	if err := r.parseContainer(); err != nil {
		zr.Close()
		return nil, err
	}
	if err := r.parsePackage(); err != nil {
		zr.Close()
		return nil, err
	}

	return r, nil
}

// Close releases the underlying archive.
func (r *Reader) Close() error {
	return r.zipReader.Close()
}

// Metadata returns the package metadata.
func (r *Reader) Metadata() Metadata {
	return r.meta
}

// SpinePaths returns the linear content document paths in reading order.
func (r *Reader) SpinePaths() []string {
	cp := make([]string, len(r.spine))
	copy(cp, r.spine)
	return cp
}

// ReadFile reads the contents of a file from the EPUB.
func (r *Reader) ReadFile(filePath string) ([]byte, error) {
	filePath = normalizePath(filePath)
	f, ok := r.files[filePath]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", filePath)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open member %s: %w", filePath, err)
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// ReadSpineRange concatenates the spine documents from fromPath (inclusive) up
// to toPath (exclusive). An empty toPath reads through the end of the spine.
// fromPath must be a spine document.
func (r *Reader) ReadSpineRange(fromPath, toPath string) ([]byte, error) {
	fromPath = normalizePath(fromPath)
	toPath = normalizePath(toPath)

	start := -1
	for i, p := range r.spine {
		if p == fromPath {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("document %s is not in the spine", fromPath)
	}

	var buf bytes.Buffer
	for _, p := range r.spine[start:] {
		if toPath != "" && p == toPath {
			break
		}
		data, err := r.ReadFile(p)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// FindCoverImage returns the cover image path declared by the package,
// preferring the EPUB3 cover-image property over the EPUB2 meta element.
func (r *Reader) FindCoverImage() (string, bool) {
	if r.coverPath == "" {
		return "", false
	}
	return r.coverPath, true
}

func (r *Reader) validateMimetype() error {
	if _, ok := r.files["mimetype"]; !ok {
		return ErrMimetypeNotFound
	}
	// A deflated mimetype is still readable; only the content is enforced.
	content, err := r.ReadFile("mimetype")
	if err != nil {
		return fmt.Errorf("read mimetype: %w", err)
	}
	if strings.TrimSpace(string(content)) != "application/epub+zip" {
		return ErrInvalidMimetype
	}
	return nil
}

func (r *Reader) parseContainer() error {
	content, err := r.ReadFile("META-INF/container.xml")
	if err != nil {
		return ErrContainerNotFound
	}

	var c container
	if err := xml.Unmarshal(content, &c); err != nil {
		return fmt.Errorf("parse container.xml: %w", err)
	}

	for _, rf := range c.Rootfiles.Rootfile {
		if rf.MediaType == "application/oebps-package+xml" || rf.MediaType == "" {
			r.opfPath = normalizePath(rf.FullPath)
			r.opfDir = path.Dir(r.opfPath)
			if r.opfDir == "." {
				r.opfDir = ""
			}
			return nil
		}
	}
	if len(c.Rootfiles.Rootfile) > 0 {
		r.opfPath = normalizePath(c.Rootfiles.Rootfile[0].FullPath)
		r.opfDir = path.Dir(r.opfPath)
		if r.opfDir == "." {
			r.opfDir = ""
		}
		return nil
	}
	return ErrOPFPathNotFound
}

// normalizePath normalizes member paths for consistent map lookups.
func normalizePath(p string) string {
	if p == "" {
		return ""
	}
	p = strings.TrimPrefix(p, "./")
	return path.Clean(strings.ReplaceAll(p, "\\", "/"))
}

// resolveAgainst joins a relative href onto the directory of the referencing
// document and cleans .. segments.
func resolveAgainst(baseDir, href string) string {
	if href == "" {
		return ""
	}
	if baseDir == "" {
		return normalizePath(href)
	}
	return normalizePath(path.Join(baseDir, href))
}
