package epub

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
)

// opfPackage mirrors the OPF XML structure.
type opfPackage struct {
	XMLName  xml.Name    `xml:"package"`
	Version  string      `xml:"version,attr"`
	UniqueID string      `xml:"unique-identifier,attr"`
	Metadata opfMetadata `xml:"metadata"`
	Manifest opfManifest `xml:"manifest"`
	Spine    opfSpine    `xml:"spine"`
}

type opfMetadata struct {
	Title       []string        `xml:"http://purl.org/dc/elements/1.1/ title"`
	Creator     []opfCreator    `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Language    []string        `xml:"http://purl.org/dc/elements/1.1/ language"`
	Identifier  []opfIdentifier `xml:"http://purl.org/dc/elements/1.1/ identifier"`
	Publisher   []string        `xml:"http://purl.org/dc/elements/1.1/ publisher"`
	Date        []string        `xml:"http://purl.org/dc/elements/1.1/ date"`
	Description []string        `xml:"http://purl.org/dc/elements/1.1/ description"`
	Meta        []opfMeta       `xml:"meta"`
}

type opfCreator struct {
	Name string `xml:",chardata"`
	Role string `xml:"http://www.idpf.org/2007/opf role,attr"`
}

type opfIdentifier struct {
	Value  string `xml:",chardata"`
	ID     string `xml:"id,attr"`
	Scheme string `xml:"http://www.idpf.org/2007/opf scheme,attr"`
}

type opfMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

type opfManifest struct {
	Items []opfManifestItem `xml:"item"`
}

type opfManifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

type opfSpine struct {
	Toc      string       `xml:"toc,attr"`
	ItemRefs []opfItemRef `xml:"itemref"`
}

type opfItemRef struct {
	IDRef  string `xml:"idref,attr"`
	Linear string `xml:"linear,attr"`
}

var isbnPattern = regexp.MustCompile(`^(97[89])?\d{9}[\dXx]$`)

// parsePackage reads the OPF document and fills metadata, the linear spine,
// and the navigation/cover paths.
func (r *Reader) parsePackage() error {
	content, err := r.ReadFile(r.opfPath)
	if err != nil {
		return fmt.Errorf("read package document: %w", err)
	}

	var pkg opfPackage
	if err := xml.Unmarshal(content, &pkg); err != nil {
		return fmt.Errorf("parse package document: %w", err)
	}

	r.meta = buildMetadata(&pkg.Metadata)

	manifest := make(map[string]opfManifestItem, len(pkg.Manifest.Items))
	var coverID string
	for _, item := range pkg.Manifest.Items {
		manifest[item.ID] = item
		for _, prop := range strings.Fields(item.Properties) {
			switch prop {
			case "nav":
				r.navPath = resolveAgainst(r.opfDir, item.Href)
			case "cover-image":
				r.coverPath = resolveAgainst(r.opfDir, item.Href)
			}
		}
	}

	for _, m := range pkg.Metadata.Meta {
		if m.Name == "cover" && m.Content != "" {
			coverID = m.Content
			break
		}
	}
	if r.coverPath == "" && coverID != "" {
		if item, ok := manifest[coverID]; ok {
			r.coverPath = resolveAgainst(r.opfDir, item.Href)
		}
	}

	for _, ref := range pkg.Spine.ItemRefs {
		if ref.Linear == "no" {
			continue
		}
		item, ok := manifest[ref.IDRef]
		if !ok {
			continue
		}
		r.spine = append(r.spine, resolveAgainst(r.opfDir, item.Href))
	}

	if pkg.Spine.Toc != "" {
		if item, ok := manifest[pkg.Spine.Toc]; ok {
			r.ncxPath = resolveAgainst(r.opfDir, item.Href)
		}
	}

	return nil
}

func buildMetadata(meta *opfMetadata) Metadata {
	md := Metadata{}
	if len(meta.Title) > 0 {
		md.Title = strings.TrimSpace(meta.Title[0])
	}
	if len(meta.Publisher) > 0 {
		md.Publisher = strings.TrimSpace(meta.Publisher[0])
	}
	if len(meta.Description) > 0 {
		md.Description = strings.TrimSpace(meta.Description[0])
	}
	if len(meta.Language) > 0 {
		md.Language = strings.TrimSpace(meta.Language[0])
	}
	if len(meta.Date) > 0 {
		md.Date = strings.TrimSpace(meta.Date[0])
	}
	for _, creator := range meta.Creator {
		if name := strings.TrimSpace(creator.Name); name != "" {
			md.Creators = append(md.Creators, name)
		}
	}
	for _, id := range meta.Identifier {
		value := strings.TrimSpace(id.Value)
		normalized := strings.ReplaceAll(strings.TrimPrefix(strings.ToLower(value), "urn:isbn:"), "-", "")
		if strings.EqualFold(id.Scheme, "isbn") || isbnPattern.MatchString(normalized) {
			md.ISBN = strings.TrimPrefix(value, "urn:isbn:")
			break
		}
	}
	return md
}
