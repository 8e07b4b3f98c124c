package testsupport

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WorkSpec describes one embedded work inside a generated omnibus. Each work
// becomes a single content document; Chapters adds fragment-addressed sections
// within it.
type WorkSpec struct {
	Title    string
	Chapters int
	// Excerpt is the work's opening paragraph.
	Excerpt string
	// Image embeds an img reference (href relative to the document) at the top
	// of the work document.
	Image string
}

// BookSpec describes a generated EPUB fixture.
type BookSpec struct {
	Title     string
	Publisher string
	Creators  []string
	Language  string
	Works     []WorkSpec
	// UseNCX emits an EPUB2 toc.ncx instead of an EPUB3 nav document.
	UseNCX bool
	// ChapterNav adds top-level navigation entries for chapter fragments,
	// pointing into the same document as their work.
	ChapterNav bool
	// IncludeCover embeds a 1x1 PNG declared as the cover image.
	IncludeCover bool
}

// 1x1 transparent PNG.
var tinyPNG, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

// WriteEPUB generates a valid EPUB archive at path from spec.
func WriteEPUB(t testing.TB, path string, spec BookSpec) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer file.Close()

	w := zip.NewWriter(file)

	// mimetype must be first and stored uncompressed.
	mimetypeWriter, err := w.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		t.Fatalf("create mimetype: %v", err)
	}
	if _, err := mimetypeWriter.Write([]byte("application/epub+zip")); err != nil {
		t.Fatalf("write mimetype: %v", err)
	}

	addFile(t, w, "META-INF/container.xml", containerXML)
	addFile(t, w, "OEBPS/content.opf", buildOPF(spec))

	if spec.UseNCX {
		addFile(t, w, "OEBPS/toc.ncx", buildNCX(spec))
	} else {
		addFile(t, w, "OEBPS/nav.xhtml", buildNav(spec))
	}

	for i, work := range spec.Works {
		addFile(t, w, fmt.Sprintf("OEBPS/work%d.xhtml", i+1), buildWorkDoc(work))
	}

	if spec.IncludeCover {
		addFile(t, w, "OEBPS/cover.png", string(tinyPNG))
	}

	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
}

// WriteZip writes an arbitrary zip archive at path, for malformed-input tests.
func WriteZip(t testing.TB, path string, members map[string]string) {
	t.Helper()

	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer file.Close()

	w := zip.NewWriter(file)
	for name, content := range members {
		addFile(t, w, name, content)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
}

func addFile(t testing.TB, w *zip.Writer, name, content string) {
	t.Helper()
	fw, err := w.Create(name)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`

func buildOPF(spec BookSpec) string {
	language := spec.Language
	if language == "" {
		language = "en"
	}

	var meta strings.Builder
	fmt.Fprintf(&meta, "    <dc:title>%s</dc:title>\n", xmlEscape(spec.Title))
	fmt.Fprintf(&meta, "    <dc:language>%s</dc:language>\n", xmlEscape(language))
	if spec.Publisher != "" {
		fmt.Fprintf(&meta, "    <dc:publisher>%s</dc:publisher>\n", xmlEscape(spec.Publisher))
	}
	for _, creator := range spec.Creators {
		fmt.Fprintf(&meta, "    <dc:creator>%s</dc:creator>\n", xmlEscape(creator))
	}

	var manifest, spine strings.Builder
	if spec.UseNCX {
		manifest.WriteString(`    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>` + "\n")
	} else {
		manifest.WriteString(`    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>` + "\n")
	}
	if spec.IncludeCover {
		manifest.WriteString(`    <item id="cover-img" href="cover.png" media-type="image/png" properties="cover-image"/>` + "\n")
	}
	for i := range spec.Works {
		fmt.Fprintf(&manifest, `    <item id="work%d" href="work%d.xhtml" media-type="application/xhtml+xml"/>`+"\n", i+1, i+1)
		fmt.Fprintf(&spine, `    <itemref idref="work%d"/>`+"\n", i+1)
	}

	spineAttr := ""
	if spec.UseNCX {
		spineAttr = ` toc="ncx"`
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
%s  </metadata>
  <manifest>
%s  </manifest>
  <spine%s>
%s  </spine>
</package>
`, meta.String(), manifest.String(), spineAttr, spine.String())
}

func buildNav(spec BookSpec) string {
	var items strings.Builder
	for i, work := range spec.Works {
		fmt.Fprintf(&items, `      <li><a href="work%d.xhtml">%s</a></li>`+"\n", i+1, xmlEscape(work.Title))
		if spec.ChapterNav {
			for ch := 2; ch <= work.Chapters; ch++ {
				fmt.Fprintf(&items, `      <li><a href="work%d.xhtml#ch%d">Chapter %d</a></li>`+"\n", i+1, ch, ch)
			}
		}
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head><title>Contents</title></head>
<body>
  <nav epub:type="toc">
    <ol>
%s    </ol>
  </nav>
</body>
</html>
`, items.String())
}

func buildNCX(spec BookSpec) string {
	var points strings.Builder
	order := 1
	for i, work := range spec.Works {
		fmt.Fprintf(&points, `    <navPoint id="np%d" playOrder="%d">
      <navLabel><text>%s</text></navLabel>
      <content src="work%d.xhtml"/>
`, order, order, xmlEscape(work.Title), i+1)
		order++
		if spec.ChapterNav {
			for ch := 2; ch <= work.Chapters; ch++ {
				fmt.Fprintf(&points, `      <navPoint id="np%d" playOrder="%d">
        <navLabel><text>Chapter %d</text></navLabel>
        <content src="work%d.xhtml#ch%d"/>
      </navPoint>
`, order, order, ch, i+1, ch)
				order++
			}
		}
		points.WriteString("    </navPoint>\n")
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <head/>
  <docTitle><text>%s</text></docTitle>
  <navMap>
%s  </navMap>
</ncx>
`, xmlEscape(spec.Title), points.String())
}

func buildWorkDoc(work WorkSpec) string {
	var body bytes.Buffer
	fmt.Fprintf(&body, "  <h1>%s</h1>\n", xmlEscape(work.Title))
	if work.Image != "" {
		fmt.Fprintf(&body, `  <img src="%s" alt=""/>`+"\n", xmlEscape(work.Image))
	}
	if work.Excerpt != "" {
		fmt.Fprintf(&body, "  <p>%s</p>\n", xmlEscape(work.Excerpt))
	}
	chapters := work.Chapters
	if chapters < 1 {
		chapters = 1
	}
	for ch := 1; ch <= chapters; ch++ {
		fmt.Fprintf(&body, `  <section id="ch%d"><h2>Chapter %d</h2><p>Text of chapter %d.</p></section>`+"\n", ch, ch, ch)
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>%s</title></head>
<body>
%s</body>
</html>
`, xmlEscape(work.Title), body.String())
}

func xmlEscape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return replacer.Replace(s)
}
