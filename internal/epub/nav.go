package epub

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// NavPoints returns the top-level entries of the navigation document in
// document order. The EPUB3 nav document is preferred; NCX is the fallback.
func (r *Reader) NavPoints() ([]NavPoint, error) {
	if r.navPath != "" {
		points, err := r.parseNavDoc()
		if err == nil && len(points) > 0 {
			return points, nil
		}
		if err != nil && r.ncxPath == "" {
			return nil, err
		}
	}
	if r.ncxPath != "" {
		return r.parseNCX()
	}
	if r.navPath != "" {
		// Nav document existed but yielded nothing usable.
		return nil, nil
	}
	return nil, ErrNavNotFound
}

// parseNavDoc extracts top-level toc entries from an EPUB3 nav document.
func (r *Reader) parseNavDoc() ([]NavPoint, error) {
	content, err := r.ReadFile(r.navPath)
	if err != nil {
		return nil, fmt.Errorf("read nav document: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse nav document: %w", err)
	}

	nav := doc.Find("nav").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.AttrOr("epub:type", ""), "toc")
	}).First()
	if nav.Length() == 0 {
		nav = doc.Find("nav").First()
	}
	if nav.Length() == 0 {
		return nil, nil
	}

	baseDir := path.Dir(r.navPath)
	if baseDir == "." {
		baseDir = ""
	}

	var points []NavPoint
	nav.ChildrenFiltered("ol").First().ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		link := li.Find("a").First()
		href := strings.TrimSpace(link.AttrOr("href", ""))
		label := strings.TrimSpace(link.Text())
		if label == "" {
			label = strings.TrimSpace(li.ChildrenFiltered("span").First().Text())
		}
		if href == "" || label == "" {
			return
		}
		rel, fragment := splitFragment(href)
		points = append(points, NavPoint{
			Label:    label,
			Path:     resolveAgainst(baseDir, rel),
			Fragment: fragment,
		})
	})
	return points, nil
}

// ncxDocument mirrors the NCX XML structure down to the top navigation level.
type ncxDocument struct {
	XMLName xml.Name `xml:"ncx"`
	NavMap  struct {
		NavPoints []ncxNavPoint `xml:"navPoint"`
	} `xml:"navMap"`
}

type ncxNavPoint struct {
	Label struct {
		Text string `xml:"text"`
	} `xml:"navLabel"`
	Content struct {
		Src string `xml:"src,attr"`
	} `xml:"content"`
}

// parseNCX extracts top-level navMap entries from an NCX document.
func (r *Reader) parseNCX() ([]NavPoint, error) {
	content, err := r.ReadFile(r.ncxPath)
	if err != nil {
		return nil, fmt.Errorf("read ncx: %w", err)
	}

	var ncx ncxDocument
	if err := xml.Unmarshal(content, &ncx); err != nil {
		return nil, fmt.Errorf("parse ncx: %w", err)
	}

	baseDir := path.Dir(r.ncxPath)
	if baseDir == "." {
		baseDir = ""
	}

	points := make([]NavPoint, 0, len(ncx.NavMap.NavPoints))
	for _, np := range ncx.NavMap.NavPoints {
		label := strings.TrimSpace(np.Label.Text)
		src := strings.TrimSpace(np.Content.Src)
		if label == "" || src == "" {
			continue
		}
		rel, fragment := splitFragment(src)
		points = append(points, NavPoint{
			Label:    label,
			Path:     resolveAgainst(baseDir, rel),
			Fragment: fragment,
		})
	}
	return points, nil
}
