// internal/app/system/csvutil/csvutil.go
package csvutil

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Writer streams a CSV download to an http.ResponseWriter.
type Writer struct {
	cw *csv.Writer
}

// NewDownload writes the download headers and a UTF-8 BOM (so Excel opens the
// file as UTF-8), then the header row.
func NewDownload(w http.ResponseWriter, filename string, header []string) (*Writer, error) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, url.PathEscape(filename)))
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return nil, err
	}
	cw := &Writer{cw: csv.NewWriter(w)}
	if err := cw.Row(header...); err != nil {
		return nil, err
	}
	return cw, nil
}

// Row writes one record, neutralizing cells a spreadsheet would evaluate.
func (w *Writer) Row(cells ...string) error {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = SafeCell(c)
	}
	return w.cw.Write(out)
}

// Close flushes buffered rows and reports any write error.
func (w *Writer) Close() error {
	w.cw.Flush()
	return w.cw.Error()
}

// SafeCell prefixes a quote to values starting with a formula trigger.
func SafeCell(s string) string {
	if s == "" {
		return s
	}
	if strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}
