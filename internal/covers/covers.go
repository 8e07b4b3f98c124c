// Package covers renders JPEG thumbnails for virtual books from images inside
// the source archive.
package covers

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/disintegration/imaging"

	"bindery/internal/epub"
)

// DefaultMaxDim bounds the longer thumbnail edge in pixels.
const DefaultMaxDim = 400

// WorkCover renders a thumbnail for the work starting at anchorPath: the first
// image referenced by the work's start document, falling back to the book's
// declared cover. Returns an error when neither yields a decodable image.
func WorkCover(r *epub.Reader, anchorPath string, maxDim int) ([]byte, error) {
	if maxDim <= 0 {
		maxDim = DefaultMaxDim
	}

	if imagePath := firstImagePath(r, anchorPath); imagePath != "" {
		if data, err := render(r, imagePath, maxDim); err == nil {
			return data, nil
		}
	}

	coverPath, ok := r.FindCoverImage()
	if !ok {
		return nil, fmt.Errorf("no cover image available")
	}
	return render(r, coverPath, maxDim)
}

// firstImagePath scans the start document for the first img or svg image
// reference, resolved against the document's directory.
func firstImagePath(r *epub.Reader, docPath string) string {
	if docPath == "" {
		return ""
	}
	content, err := r.ReadFile(docPath)
	if err != nil {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return ""
	}

	var href string
	doc.Find("img, image").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, attr := range []string{"src", "xlink:href", "href"} {
			if value, ok := s.Attr(attr); ok && value != "" && !strings.HasPrefix(value, "data:") {
				href = value
				return false
			}
		}
		return true
	})
	if href == "" {
		return ""
	}
	return path.Join(path.Dir(docPath), href)
}

func render(r *epub.Reader, imagePath string, maxDim int) ([]byte, error) {
	content, err := r.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", imagePath, err)
	}
	img, err := imaging.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", imagePath, err)
	}

	thumb := imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
