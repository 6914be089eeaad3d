package services

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/username/creditfolio/src/model"
	"github.com/username/creditfolio/src/models"
)

// DisputeLetter is one rendered per-bureau dispute letter. Certified-mail
// dispatch is an external collaborator; this service only produces text.
type DisputeLetter struct {
	Bureau  string `json:"bureau"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type letterItem struct {
	Creditor      string
	AccountNumber string
	Violations    []*models.Violation
}

type letterData struct {
	ClientName string
	Bureau     string
	Date       string
	Items      []letterItem
}

var letterTemplate = template.Must(template.New("dispute").Parse(`{{.Date}}

To: {{.Bureau}} Dispute Department

Re: Request for investigation of inaccurate tradeline reporting

To whom it may concern,

I am writing on behalf of {{.ClientName}} to dispute the accuracy of the
following accounts appearing on their {{.Bureau}} credit file. Under the
Fair Credit Reporting Act you are required to investigate each item and
correct or delete information that cannot be verified.
{{range .Items}}
Creditor: {{.Creditor}}{{if .AccountNumber}} (Account {{.AccountNumber}}){{end}}
{{- range .Violations}}
  - {{.Title}}
{{- end}}
{{end}}
Please complete your investigation within the statutory period and send
written confirmation of the outcome.

Sincerely,
{{.ClientName}}
`))

type letterServiceImpl struct{}

func NewLetterService() LetterService {
	return &letterServiceImpl{}
}

// GenerateLetters renders one letter per bureau that reported at least
// one tradeline with violations. Each violation appears once per letter.
func (s *letterServiceImpl) GenerateLetters(client *model.Client, aggregate *models.ReportAggregate) ([]DisputeLetter, error) {
	var letters []DisputeLetter
	for _, bureau := range models.AllBureaus {
		var items []letterItem
		for _, tl := range aggregate.Tradelines {
			if _, ok := tl.PerBureau[bureau]; !ok {
				continue
			}
			if tl.ViolationCount() == 0 {
				continue
			}
			items = append(items, letterItem{
				Creditor:      tl.Meta.CreditorName,
				AccountNumber: tl.Meta.AccountNumber,
				Violations:    tl.Violations,
			})
		}
		if len(items) == 0 {
			continue
		}

		var body bytes.Buffer
		err := letterTemplate.Execute(&body, letterData{
			ClientName: client.Name,
			Bureau:     string(bureau),
			Date:       time.Now().Format("January 2, 2006"),
			Items:      items,
		})
		if err != nil {
			return nil, fmt.Errorf("rendering %s dispute letter: %w", bureau, err)
		}
		letters = append(letters, DisputeLetter{
			Bureau:  string(bureau),
			Subject: fmt.Sprintf("Dispute of inaccurate tradelines (%s)", bureau),
			Body:    body.String(),
		})
	}
	return letters, nil
}
