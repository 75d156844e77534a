package testsupport

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Member is one archive entry written by WriteZip.
type Member struct {
	Name    string
	Content []byte
}

// WriteZip creates a zip archive at path containing members in order. A member
// whose name ends in "/" is written as a directory entry.
func WriteZip(t testing.TB, path string, members ...Member) {
	t.Helper()

	ensureDir(t, path)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, m := range members {
		w, err := zw.Create(m.Name)
		if err != nil {
			t.Fatalf("zip create %s: %v", m.Name, err)
		}
		if len(m.Content) == 0 {
			continue
		}
		if _, err := w.Write(m.Content); err != nil {
			t.Fatalf("zip write %s: %v", m.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close %s: %v", path, err)
	}
}

// WriteCSV writes rows (header first) as a CSV file.
func WriteCSV(t testing.TB, path string, rows [][]string) {
	t.Helper()

	ensureDir(t, path)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write csv %s: %v", path, err)
	}
}

// WriteXLSX writes rows (header first) into the named sheet of a new workbook.
// An empty sheet name keeps the workbook's default "Sheet1".
func WriteXLSX(t testing.TB, path, sheet string, rows [][]string) {
	t.Helper()

	ensureDir(t, path)
	book := excelize.NewFile()
	defer book.Close()

	name := "Sheet1"
	if sheet != "" && sheet != name {
		if err := book.SetSheetName(name, sheet); err != nil {
			t.Fatalf("rename sheet: %v", err)
		}
		name = sheet
	}
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := book.SetSheetRow(name, cellRef, &values); err != nil {
			t.Fatalf("set row %d: %v", i+1, err)
		}
	}
	if err := book.SaveAs(path); err != nil {
		t.Fatalf("save %s: %v", path, err)
	}
}

// PDF returns a small, structurally valid PDF document with the given number
// of blank pages. Object offsets in the xref table are computed as the
// document is written.
func PDF(pages int) []byte {
	if pages < 1 {
		pages = 1
	}
	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages),
	}
	for range pages {
		objs = append(objs, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, obj := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func ensureDir(t testing.TB, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
}
