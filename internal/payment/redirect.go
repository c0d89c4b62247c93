package payment

import (
	"errors"
	"html/template"
	"io"
	"net/url"
)

var errEmptyGatewayURL = errors.New("gateway url is empty")

var redirectTemplate = template.Must(template.New("redirect").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Redirecting to payment</title></head>
<body onload="document.forms[0].submit()">
<form method="post" action="{{.Action}}" accept-charset="UTF-8">
{{- range .Fields}}
<input type="hidden" name="{{.Name}}" value="{{.Value}}">
{{- end}}
<noscript><button type="submit">Continue to payment</button></noscript>
</form>
</body>
</html>
`))

type redirectPage struct {
	Action string
	Fields []FormField
}

// RenderRedirect writes a page that posts req to the gateway as soon as the
// browser loads it. Values are attribute-escaped by html/template.
func RenderRedirect(w io.Writer, req *OutboundPaymentRequest, gatewayURL string) error {
	if gatewayURL == "" {
		return &ConfigurationError{Err: errEmptyGatewayURL}
	}
	u, err := url.Parse(gatewayURL)
	if err != nil || !u.IsAbs() {
		return &ConfigurationError{Err: errors.New("gateway url must be absolute")}
	}
	return redirectTemplate.Execute(w, redirectPage{
		Action: u.String(),
		Fields: req.FormFields(),
	})
}
