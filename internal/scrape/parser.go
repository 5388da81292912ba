package scrape

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/clubhub/wifimon/internal/mac"
	"github.com/clubhub/wifimon/internal/model"
)

// ErrTableNotFound means no client table could be located in the page at
// all. Individual malformed rows inside a found table are skipped, never
// escalated.
var ErrTableNotFound = errors.New("client table not found in page")

// Parser extracts connected-client rows from a router status page. Columns
// are resolved by header text, not position, so minor firmware markup
// reshuffles do not break extraction.
type Parser struct {
	logger *slog.Logger
}

func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

type columnMap struct {
	mac    int
	ip     int
	name   int
	status int
}

// Parse returns one ClientRow per table row carrying a parseable MAC.
// MAC addresses are canonicalized here, at the ingestion boundary.
func (p *Parser) Parse(page string) ([]model.ClientRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, err
	}

	root := doc.Selection
	if target := doc.Find("#target"); target.Length() > 0 {
		root = target
	}

	var rows []model.ClientRow
	found := false
	root.Find("table").Each(func(_ int, table *goquery.Selection) {
		trs := table.Find("tr")
		if trs.Length() < 1 {
			return
		}
		cols, ok := mapColumns(trs.First())
		if !ok {
			return
		}
		found = true

		section := precedingHeading(table)
		connType := classifyConnection(section)

		trs.Slice(1, trs.Length()).Each(func(_ int, tr *goquery.Selection) {
			cells := tr.Find("td")
			raw := cellText(cells, cols.mac)
			canonical, err := mac.Normalize(raw)
			if err != nil {
				if strings.TrimSpace(raw) != "" {
					p.logger.Debug("skipping row without parseable mac", "cell", raw)
				}
				return
			}
			rows = append(rows, model.ClientRow{
				MAC:            canonical,
				IP:             sanitizeCell(cellText(cells, cols.ip)),
				Hostname:       sanitizeCell(cellText(cells, cols.name)),
				Connected:      parseConnected(cellText(cells, cols.status)),
				Section:        section,
				ConnectionType: connType,
			})
		})
	})

	if !found {
		return nil, ErrTableNotFound
	}
	return rows, nil
}

// mapColumns resolves column indices from the header row. A table qualifies
// only when some header cell mentions a MAC address.
func mapColumns(header *goquery.Selection) (columnMap, bool) {
	cols := columnMap{mac: -1, ip: -1, name: -1, status: -1}
	header.Find("th, td").Each(func(i int, cell *goquery.Selection) {
		text := strings.ToUpper(strings.TrimSpace(cell.Text()))
		switch {
		case strings.Contains(text, "MAC"):
			cols.mac = i
		case strings.Contains(text, "IP"):
			cols.ip = i
		case containsAny(text, "STATUS", "CONNECT", "状態", "接続"):
			cols.status = i
		case containsAny(text, "DEVICE", "NAME", "HOST", "デバイス"):
			cols.name = i
		}
	})
	return cols, cols.mac >= 0
}

func containsAny(text string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

func cellText(cells *goquery.Selection, index int) string {
	if index < 0 || index >= cells.Length() {
		return ""
	}
	return strings.TrimSpace(cells.Eq(index).Text())
}

// sanitizeCell treats the firmware's "--" placeholder as missing.
func sanitizeCell(value string) string {
	if value == "--" {
		return ""
	}
	return value
}

// parseConnected interprets a status cell. An absent column means presence
// in the table itself signals a live connection.
func parseConnected(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return true
	case "yes", "y", "1", "true", "connected", "on":
		return true
	default:
		return false
	}
}

// precedingHeading returns the text of the nearest <b> element before the
// table in document order. Router firmware labels each section that way.
func precedingHeading(table *goquery.Selection) string {
	if len(table.Nodes) == 0 {
		return ""
	}
	for node := previousNode(table.Nodes[0]); node != nil; node = previousNode(node) {
		if node.Type == html.ElementNode && node.Data == "b" {
			return strings.TrimSpace(nodeText(node))
		}
	}
	return ""
}

// previousNode walks to the previous node in document order: the deepest
// last descendant of the preceding sibling, else the parent.
func previousNode(node *html.Node) *html.Node {
	if prev := node.PrevSibling; prev != nil {
		for prev.LastChild != nil {
			prev = prev.LastChild
		}
		return prev
	}
	return node.Parent
}

func nodeText(node *html.Node) string {
	if node.Type == html.TextNode {
		return node.Data
	}
	var sb strings.Builder
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		sb.WriteString(nodeText(child))
	}
	return sb.String()
}

func classifyConnection(section string) string {
	switch {
	case section == "":
		return model.ConnectionUnknown
	case strings.Contains(section, "無線"):
		return model.ConnectionWireless
	case strings.Contains(section, "有線"):
		return model.ConnectionWired
	default:
		return model.ConnectionUnknown
	}
}
