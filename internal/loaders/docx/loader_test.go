package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doclore/doclore/internal/core/domain"
)

// createTestDOCX creates a minimal valid DOCX archive in memory.
func createTestDOCX(documentXML, coreXML string) []byte {
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	contentTypes, _ := w.Create("[Content_Types].xml")
	contentTypes.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`))

	if documentXML != "" {
		doc, _ := w.Create("word/document.xml")
		doc.Write([]byte(documentXML))
	}

	if coreXML != "" {
		core, _ := w.Create("docProps/core.xml")
		core.Write([]byte(coreXML))
	}

	w.Close()
	return buf.Bytes()
}

const sampleDocumentXML = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
<w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
</w:body>
</w:document>`

func TestLoad_Success(t *testing.T) {
	coreXML := `<?xml version="1.0"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
 xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title>Annual Report</dc:title>
<dc:creator>J. Author</dc:creator>
</cp:coreProperties>`

	raw := &domain.RawDocument{
		Path:    "reports/annual_report.docx",
		Format:  domain.FormatDocx,
		Content: createTestDOCX(sampleDocumentXML, coreXML),
	}

	docs, err := New().Load(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, "First paragraph.\nSecond paragraph.", docs[0].Content)
	assert.Equal(t, "Annual Report", docs[0].Title)
	assert.Equal(t, "J. Author", docs[0].Author)
	assert.Equal(t, "reports/annual_report.docx", docs[0].Source)
}

func TestLoad_TitleFallsBackToFilename(t *testing.T) {
	raw := &domain.RawDocument{
		Path:    "reports/annual_report.docx",
		Content: createTestDOCX(sampleDocumentXML, ""),
	}

	docs, err := New().Load(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "annual report", docs[0].Title)
	assert.Empty(t, docs[0].Author)
}

func TestLoad_EmptyBodyYieldsNoUnits(t *testing.T) {
	empty := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body></w:body>
</w:document>`

	raw := &domain.RawDocument{
		Path:    "blank.docx",
		Content: createTestDOCX(empty, ""),
	}

	docs, err := New().Load(context.Background(), raw)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestLoad_MissingDocumentXML(t *testing.T) {
	raw := &domain.RawDocument{
		Path:    "hollow.docx",
		Content: createTestDOCX("", ""),
	}

	_, err := New().Load(context.Background(), raw)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoad_NotAZip(t *testing.T) {
	raw := &domain.RawDocument{
		Path:    "fake.docx",
		Content: []byte("plain text pretending to be docx"),
	}

	_, err := New().Load(context.Background(), raw)
	assert.Error(t, err)
}

func TestLoad_NilInput(t *testing.T) {
	_, err := New().Load(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
