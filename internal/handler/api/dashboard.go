package api

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"SumReport/internal/domain/models"
	domrepo "SumReport/internal/domain/repository"
	"SumReport/internal/service/format"
	"SumReport/internal/service/metrics"
	"SumReport/internal/usecase"
	xlogger "SumReport/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var dashboardPage = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Fund summary</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
th { font-weight: bold; }
</style>
</head>
<body>
<h2>Fund summary</h2>
<p>
<button onclick="refresh()">Update Table</button>
<button onclick="location.reload()">Update using stored data</button>
<a href="/api/funds/export.xlsx">Export XLSX</a>
</p>
<div id="table">{{.Body}}</div>
<script>
function refresh() { fetch('/api/funds/refresh?async=true', {method: 'POST'}); }
(function () {
  var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
  var ws = new WebSocket(proto + location.host + '/ws');
  var first = true;
  ws.onmessage = function () { if (first) { first = false; return; } location.reload(); };
})();
</script>
</body>
</html>
`))

// DashboardHandler renders the fund table as an HTML page.
type DashboardHandler struct {
	logger *xlogger.Logger
	table  *usecase.FundTable
	md     goldmark.Markdown
}

func NewDashboardHandler(logger *xlogger.Logger, table *usecase.FundTable) *DashboardHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &DashboardHandler{
		logger: logger,
		table:  table,
		md:     goldmark.New(goldmark.WithExtensions(extension.Table)),
	}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Page)
}

func (h *DashboardHandler) Page(c echo.Context) error {
	defer metrics.Observe("dashboard", time.Now())
	tbl, err := h.table.Stored(c.Request().Context())
	if err != nil && !errors.Is(err, domrepo.ErrTableNotFound) {
		h.logger.Error("dashboard load table", xlogger.Error(err))
		metrics.Fail("dashboard", "ERR_INTERNAL")
		return c.String(http.StatusInternalServerError, "could not load fund table")
	}

	var body bytes.Buffer
	if err := h.md.Convert([]byte(dashboardMarkdown(tbl)), &body); err != nil {
		h.logger.Error("dashboard render", xlogger.Error(err))
		return c.String(http.StatusInternalServerError, "could not render fund table")
	}

	var page bytes.Buffer
	// goldmark drops raw HTML unless built WithUnsafe.
	if err := dashboardPage.Execute(&page, struct{ Body template.HTML }{template.HTML(body.String())}); err != nil {
		return c.String(http.StatusInternalServerError, "could not render page")
	}
	return c.HTMLBlob(http.StatusOK, page.Bytes())
}

func dashboardMarkdown(tbl *models.Table) string {
	if tbl == nil {
		return "_No data yet. Use **Update Table** to scan the reports._\n"
	}
	var b strings.Builder
	b.WriteString(format.Markdown(tbl))
	fmt.Fprintf(&b, "\nUpdated %s, batch `%s`.\n", tbl.UpdatedAt.Format(time.RFC3339), tbl.BatchID)
	if len(tbl.Errors) > 0 {
		b.WriteString("\n**Skipped reports**\n\n")
		for _, e := range tbl.Errors {
			fmt.Fprintf(&b, "- %s: %s\n", e.Source, e.Message)
		}
	}
	return b.String()
}
