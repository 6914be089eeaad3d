package htmlreport

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/username/creditfolio/src/logger"
	"github.com/username/creditfolio/src/models"
	"github.com/username/creditfolio/src/normalize"
)

// HTMLReportParser walks a DOM tree of a credit-report page. Each account
// is a table whose header row names the reporting bureaus and whose body
// rows are "label | value-per-bureau". The creditor name comes from the
// table caption or the closest preceding heading.
type HTMLReportParser struct {
	fieldMap *normalize.FieldMap
}

func NewParser(fieldMap *normalize.FieldMap) *HTMLReportParser {
	return &HTMLReportParser{fieldMap: fieldMap}
}

func (p *HTMLReportParser) Parse(r io.Reader) ([]models.AccountGroup, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report HTML: %w", err)
	}

	var groups []models.AccountGroup
	lastHeading := ""

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h1", "h2", "h3", "h4", "h5", "h6":
				if text := nodeText(n); text != "" {
					lastHeading = text
				}
				return
			case "table":
				group, ok := p.parseAccountTable(n, lastHeading, len(groups))
				if ok {
					groups = append(groups, group)
				} else {
					logger.L.Debug("Skipping table without a bureau header row")
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return groups, nil
}

// parseAccountTable reads one candidate account table. Returns false when
// the table has no recognizable bureau header; malformed rows inside a
// recognized table are skipped, never fatal.
func (p *HTMLReportParser) parseAccountTable(table *html.Node, heading string, position int) (models.AccountGroup, bool) {
	creditor := heading
	if caption := findCaption(table); caption != "" {
		creditor = caption
	}

	rows := collectRows(table)
	if len(rows) == 0 {
		return models.AccountGroup{}, false
	}

	// Locate the header row: the first row where at least one cell names
	// a bureau. Column index -> bureau for every named cell.
	headerIdx := -1
	columns := make(map[int]models.Bureau)
	for i, row := range rows {
		cells := collectCells(row)
		for col, cell := range cells {
			if bureau, ok := bureauFromLabel(nodeText(cell)); ok {
				columns[col] = bureau
			}
		}
		if len(columns) > 0 {
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 {
		return models.AccountGroup{}, false
	}

	fieldsByBureau := make(map[models.Bureau]map[string]string)
	for _, row := range rows[headerIdx+1:] {
		cells := collectCells(row)
		if len(cells) < 2 {
			continue
		}
		label := nodeText(cells[0])
		if label == "" {
			continue
		}
		for col, bureau := range columns {
			if col >= len(cells) {
				continue
			}
			raw := nodeText(cells[col])
			if raw == "" {
				// Absent cell: the bureau did not report this field.
				continue
			}
			key, value := p.fieldMap.Apply(label, raw)
			if fieldsByBureau[bureau] == nil {
				fieldsByBureau[bureau] = make(map[string]string)
			}
			fieldsByBureau[bureau][key] = value
		}
	}

	group := models.AccountGroup{Position: position, Creditor: creditor}
	for _, bureau := range models.AllBureaus {
		fields, ok := fieldsByBureau[bureau]
		if !ok || len(fields) == 0 {
			continue
		}
		group.Records = append(group.Records, models.BureauAccountRecord{
			Bureau: bureau,
			Fields: fields,
		})
	}
	if len(group.Records) == 0 {
		return models.AccountGroup{}, false
	}
	return group, true
}

func bureauFromLabel(text string) (models.Bureau, bool) {
	normalized := strings.ReplaceAll(strings.ToLower(text), " ", "")
	switch {
	case strings.Contains(normalized, "transunion"):
		return models.BureauTransUnion, true
	case strings.Contains(normalized, "experian"):
		return models.BureauExperian, true
	case strings.Contains(normalized, "equifax"):
		return models.BureauEquifax, true
	}
	return "", false
}

func collectRows(table *html.Node) []*html.Node {
	var rows []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				if c.Data == "tr" {
					rows = append(rows, c)
					continue
				}
				if c.Data == "table" {
					// Nested tables belong to their own account section.
					continue
				}
			}
			walk(c)
		}
	}
	walk(table)
	return rows
}

func collectCells(row *html.Node) []*html.Node {
	var cells []*html.Node
	for c := row.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			cells = append(cells, c)
		}
	}
	return cells
}

func findCaption(table *html.Node) string {
	for c := table.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "caption" {
			return nodeText(c)
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
