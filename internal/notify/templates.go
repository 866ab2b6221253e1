package notify

import (
	"bytes"
	"html/template"
)

// Subjects for the two notification kinds
const (
	SubjectGeoArchived    = "Geotechnical document archived"
	SubjectManualHandling = "Manual handling required"
)

var geoArchivedTemplate = template.Must(template.New("geo_archived").Parse(`<html>
<body>
<p>A geotechnical document has been transferred to the long-term archive.</p>
<p>
Case: {{.CaseID}}<br>
Property designation: {{if .PropertyDesignation}}{{.PropertyDesignation}}{{else}}unknown{{end}}
</p>
<p>This message was sent automatically by the case archiver.</p>
</body>
</html>`))

var manualHandlingTemplate = template.Must(template.New("manual_handling").Parse(`<html>
<body>
<p>The long-term archive rejected a document because of its file extension or
format. The document was not archived and needs to be handled manually.</p>
<p>
Case: {{.CaseID}}<br>
Document: {{.DocumentName}}<br>
Document type: {{.DocumentType}}
</p>
<p>This message was sent automatically by the case archiver.</p>
</body>
</html>`))

// GeoArchivedBody renders the land-registry notification body
func GeoArchivedBody(caseID, propertyDesignation string) (string, error) {
	return render(geoArchivedTemplate, map[string]string{
		"CaseID":              caseID,
		"PropertyDesignation": propertyDesignation,
	})
}

// ManualHandlingBody renders the manual-handling notification body
func ManualHandlingBody(caseID, documentName, documentType string) (string, error) {
	return render(manualHandlingTemplate, map[string]string{
		"CaseID":       caseID,
		"DocumentName": documentName,
		"DocumentType": documentType,
	})
}

func render(tmpl *template.Template, data map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
