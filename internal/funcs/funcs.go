package funcs

import (
	"strings"
	"text/template"
	"time"

	"github.com/tobiloba/kudiwallet/internal/money"
)

var TemplateFuncs = template.FuncMap{
	"naira":      formatNaira,
	"formatTime": formatTime,
	"upper":      strings.ToUpper,
	"lower":      strings.ToLower,
}

func formatNaira(kobo int64) string {
	return money.Amount(kobo).String()
}

func formatTime(format string, t time.Time) string {
	return t.Format(format)
}
