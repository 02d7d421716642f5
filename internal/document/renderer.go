// Package document renders the human-readable certificate artifact. The
// renderer is deterministic: the same inputs always produce the same bytes,
// because those exact bytes are what gets hashed at issuance and re-hashed at
// verification. Changing the template layout changes every future content
// hash, so treat the template as part of the wire format.
package document

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// DateLayout fixes how the issue date is rendered into the document.
const DateLayout = "January 2, 2006"

var certificateTemplate = template.Must(template.New("certificate").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Certificate</title>
<style>
body { font-family: Georgia, serif; background: #f3f4f6; margin: 0; }
.cert { max-width: 1200px; margin: auto; background: white; border: 3px solid #1e3a8a; padding: 3% 5%; }
.inst { font-size: 32px; font-weight: bold; letter-spacing: 2px; text-align: center; }
.ttl { font-size: 14px; letter-spacing: 3px; color: #3b82f6; font-weight: 600; text-align: center; }
.main { font-size: 42px; font-weight: bold; text-align: center; }
.course { font-size: 24px; color: #1e3a8a; text-align: center; }
.date { font-size: 14px; color: #6b7280; text-align: center; }
</style>
</head>
<body>
<div class="cert">
<div class="inst">{{.Institution}}</div>
<div class="ttl">CERTIFICATE OF COMPLETION</div>
<p class="date">This certifies that</p>
<div class="main">{{.StudentName}}</div>
<p class="date">has successfully completed the course</p>
<div class="course">{{.CourseName}}</div>
<p class="date">Issued on {{.IssuedOn}}</p>
</div>
</body>
</html>
`))

// Renderer produces canonical certificate bytes.
type Renderer struct {
	institution string
}

// NewRenderer fixes the issuing institution name printed on every document.
func NewRenderer(institution string) *Renderer {
	return &Renderer{institution: institution}
}

// Render produces the canonical document bytes for a certificate. The issue
// date is a caller-supplied input, not a clock read, so re-rendering with the
// record's stored values reproduces the issued bytes exactly.
func (r *Renderer) Render(studentName, courseName string, issued time.Time) ([]byte, error) {
	if studentName == "" || courseName == "" {
		return nil, fmt.Errorf("student name and course name are required")
	}
	var buf bytes.Buffer
	err := certificateTemplate.Execute(&buf, struct {
		Institution string
		StudentName string
		CourseName  string
		IssuedOn    string
	}{
		Institution: r.institution,
		StudentName: studentName,
		CourseName:  courseName,
		IssuedOn:    issued.UTC().Format(DateLayout),
	})
	if err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
