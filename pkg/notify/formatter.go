package notify

import (
	"fmt"
	"html"
)

// EmailHeader renders the gradient header section of an HTML email.
func EmailHeader(title, subtitle string, gradientFrom, gradientTo string) string {
	return fmt.Sprintf(`
<tr><td style="background:linear-gradient(135deg,%s 0%%,%s 100%%);border-radius:16px 16px 0 0;padding:32px 40px;text-align:center;">
  <h2 style="margin:0;font-size:26px;font-weight:800;color:#ffffff;">%s</h2>
  <p style="margin:8px 0 0;font-size:15px;color:rgba(255,255,255,0.85);">%s</p>
</td></tr>
`, gradientFrom, gradientTo, html.EscapeString(title), html.EscapeString(subtitle))
}

// EmailWrapperOpen renders the opening HTML for an email body.
func EmailWrapperOpen() string {
	return `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="margin:0;padding:0;background-color:#f4f5f7;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Arial,sans-serif;">
<table role="presentation" width="100%" cellpadding="0" cellspacing="0">
<tr><td align="center" style="padding:20px 10px;">
<table role="presentation" width="600" cellpadding="0" cellspacing="0" style="max-width:600px;width:100%;">
`
}

// EmailWrapperClose renders the closing HTML for an email body.
func EmailWrapperClose() string {
	return `
</table>
</td></tr>
</table>
</body>
</html>`
}

// EmailFooter renders the footer section.
func EmailFooter(productName, tagline string, accentColor string) string {
	return fmt.Sprintf(`
<tr><td style="background-color:#ffffff;border-radius:0 0 16px 16px;padding:20px 40px;text-align:center;border-top:1px solid #e6e8eb;">
  <p style="margin:0;font-size:12px;color:#8a8f98;"><strong style="color:%s;">%s</strong> · %s</p>
</td></tr>
`, accentColor, html.EscapeString(productName), html.EscapeString(tagline))
}

// EmailRowBgColor returns alternating row colors.
func EmailRowBgColor(index int) string {
	if index%2 == 1 {
		return "#f8f9fb"
	}
	return "#ffffff"
}

// StatRowHTML renders one label/value line of a report.
func StatRowHTML(index int, label, value string) string {
	return fmt.Sprintf(`
<tr><td style="background-color:%s;padding:14px 40px;">
  <p style="margin:0;font-size:15px;color:#30343b;">%s: <strong>%s</strong></p>
</td></tr>
`, EmailRowBgColor(index), html.EscapeString(label), html.EscapeString(value))
}
