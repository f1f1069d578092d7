package notify

import (
	"fmt"
	"html"
	"strconv"
	"strings"
)

// LinkCount is one tracked link's click count on the report day.
type LinkCount struct {
	ID     string
	Clicks int64
}

// ClickSummaryData holds the daily click report.
type ClickSummaryData struct {
	Date     string
	Total    int64
	Unique   int
	TopLinks []LinkCount
}

// ClickSubject returns the report title for date.
func ClickSubject(date string) string {
	return "Daily Click Summary - " + date
}

// ClickEmailFormatter renders the daily click report. The HTML part goes to
// email, the plain Body to Telegram and webhooks.
type ClickEmailFormatter struct {
	ProductName string
}

func NewClickEmailFormatter(productName string) *ClickEmailFormatter {
	if productName == "" {
		productName = "Quick NewsGPT"
	}
	return &ClickEmailFormatter{ProductName: productName}
}

func (f *ClickEmailFormatter) Format(data ClickSummaryData) Message {
	var sb strings.Builder

	sb.WriteString(EmailWrapperOpen())
	sb.WriteString(EmailHeader(f.ProductName+" Daily Summary", data.Date, "#1e88e5", "#3949ab"))
	sb.WriteString(StatRowHTML(0, "Date", data.Date))
	sb.WriteString(StatRowHTML(1, "Total Clicks", strconv.FormatInt(data.Total, 10)))
	sb.WriteString(StatRowHTML(2, "Unique Links", strconv.Itoa(data.Unique)))

	if len(data.TopLinks) > 0 {
		sb.WriteString(`
<tr><td style="background-color:#ffffff;padding:14px 40px;">
  <table role="presentation" width="100%" cellpadding="0" cellspacing="0" style="font-size:13px;color:#30343b;">
`)
		for i, l := range data.TopLinks {
			fmt.Fprintf(&sb, `    <tr style="background-color:%s;"><td style="padding:6px 8px;font-family:monospace;">%s</td><td style="padding:6px 8px;text-align:right;">%d</td></tr>
`, EmailRowBgColor(i), html.EscapeString(l.ID), l.Clicks)
		}
		sb.WriteString("  </table>\n</td></tr>\n")
	}

	sb.WriteString(EmailFooter(f.ProductName, "click tracking report", "#1e88e5"))
	sb.WriteString(EmailWrapperClose())

	return Message{
		Title:    ClickSubject(data.Date),
		Body:     f.plain(data),
		HTMLBody: sb.String(),
		Format:   "html",
	}
}

func (f *ClickEmailFormatter) plain(data ClickSummaryData) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s Daily Summary\n", f.ProductName)
	fmt.Fprintf(&sb, "Date: %s\n", data.Date)
	fmt.Fprintf(&sb, "Total Clicks: %d\n", data.Total)
	fmt.Fprintf(&sb, "Unique Links: %d\n", data.Unique)
	for _, l := range data.TopLinks {
		fmt.Fprintf(&sb, "%s %d\n", l.ID, l.Clicks)
	}
	return strings.TrimRight(sb.String(), "\n")
}
