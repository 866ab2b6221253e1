package archiver

import (
	"bytes"
	"regexp"
	"strings"
	"time"

	"github.com/hochfrequenz/case-archiver/internal/archive"
	"github.com/hochfrequenz/case-archiver/internal/category"
	"github.com/hochfrequenz/case-archiver/internal/domain"
)

// The committee responsible for building cases was reorganized twice; the
// producer recorded in the archive depends on when the case arrived.
const (
	producerAuthority        = "Municipal archive authority"
	producerCommitteeCurrent = "Urban development committee"
	producerCommitteeLegacy  = "Building committee"

	archiveClassCurrent = "Permit administration"
	archiveClassLegacy  = "F 2 Building permits"
)

var committeeReorganized = time.Date(2016, 12, 31, 0, 0, 0, 0, time.UTC)
var committeeRenamed = time.Date(1992, 12, 31, 0, 0, 0, 0, time.UTC)

// buildAttachment prepares the file payload for the sink. Files delivered
// without an extension get one sniffed from the payload bytes; when that
// fails too the attachment goes out without one and the sink's format
// rejection routes the document to manual handling.
func buildAttachment(doc domain.Document, file *domain.File) archive.Attachment {
	ext := strings.ToLower(strings.TrimSpace(file.Extension))
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = sniffExtension(file.Content)
	}

	name := file.Name
	if name == "" {
		name = doc.Name
	}

	attachment := archive.Attachment{
		Name:    nameWithExtension(name, ext),
		Content: file.Content,
	}
	if ext != "" {
		attachment.Extension = "." + ext
	}
	return attachment
}

// buildMetadata derives the archive registry record for one file
func buildMetadata(c *domain.Case, doc domain.Document, cat category.Category, file *domain.File, attachmentName string) archive.Metadata {
	md := archive.Metadata{
		CaseID:              c.ID,
		CaseType:            c.Type,
		CaseDescription:     c.Description,
		CaseStatus:          domain.CaseStatusClosed,
		CaseRegisteredAt:    formatDate(c.RegisteredAt),
		CaseClosedAt:        formatDate(c.ClosedAt),
		ArchiveClass:        archiveClassFor(c.ArrivedAt),
		Producer:            producerFor(c.ArrivedAt),
		DocumentID:          doc.ID,
		DocumentTitle:       cat.Description,
		DocumentType:        cat.Description,
		DocumentDescription: file.Description,
		Classification:      cat.Classification,
		AttachmentLink:      "attachments/" + attachmentName,
	}
	if c.ArrivedAt != nil {
		md.Note = c.ArrivedAt.Format("2006")
	}
	return md
}

func producerFor(arrivedAt *time.Time) archive.Producer {
	unit := archive.Producer{}
	switch {
	case arrivedAt == nil || arrivedAt.After(committeeReorganized):
		unit = archive.Producer{Name: producerCommitteeCurrent, ActiveFrom: "2017"}
	case arrivedAt.After(committeeRenamed):
		unit = archive.Producer{Name: producerCommitteeCurrent, ActiveFrom: "1993", ActiveTo: "2017"}
	default:
		unit = archive.Producer{Name: producerCommitteeLegacy, ActiveFrom: "1974", ActiveTo: "1992"}
	}

	return archive.Producer{
		Name:       producerAuthority,
		ActiveFrom: "1974",
		Unit:       &unit,
	}
}

func archiveClassFor(arrivedAt *time.Time) string {
	if arrivedAt == nil || arrivedAt.After(committeeReorganized) {
		return archiveClassCurrent
	}
	return archiveClassLegacy
}

var extensionSuffix = regexp.MustCompile(`\.[a-zA-Z]{3,4}$`)

// nameWithExtension appends the extension unless the name already carries
// one
func nameWithExtension(name, ext string) string {
	if extensionSuffix.MatchString(name) || ext == "" {
		return name
	}
	return name + "." + ext
}

var magicNumbers = []struct {
	prefix []byte
	ext    string
}{
	{[]byte("%PDF"), "pdf"},
	{[]byte{0x89, 'P', 'N', 'G'}, "png"},
	{[]byte{0xFF, 0xD8, 0xFF}, "jpg"},
	{[]byte("GIF8"), "gif"},
	{[]byte("PK\x03\x04"), "zip"},
	{[]byte("II*\x00"), "tif"},
	{[]byte("MM\x00*"), "tif"},
	{[]byte("{\\rtf"), "rtf"},
}

// sniffExtension guesses a file extension from well-known magic numbers.
// Returns the empty string when the payload matches none of them.
func sniffExtension(content []byte) string {
	for _, magic := range magicNumbers {
		if bytes.HasPrefix(content, magic.prefix) {
			return magic.ext
		}
	}
	return ""
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
