package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"billmailer/internal/attachments"
	"billmailer/internal/batch"
	"billmailer/internal/dispatch"
	"billmailer/internal/logging"
	"billmailer/internal/matcher"
	"billmailer/internal/pdfinfo"
)

type resultJSON struct {
	Row         int    `json:"row"`
	Flat        string `json:"flat"`
	Raw         string `json:"raw"`
	Email       string `json:"email"`
	Attachments int    `json:"attachments"`
	Outcome     string `json:"outcome"`
	Detail      string `json:"detail,omitempty"`
}

type sendReportJSON struct {
	BatchID     string       `json:"batch_id"`
	Cycle       string       `json:"cycle,omitempty"`
	DryRun      bool         `json:"dry_run"`
	Interrupted bool         `json:"interrupted"`
	Sent        int          `json:"sent"`
	Skipped     int          `json:"skipped"`
	Failed      int          `json:"failed"`
	Duration    string       `json:"duration"`
	Unmatched   []string     `json:"unmatched_documents"`
	Results     []resultJSON `json:"results"`
}

func newSendReportJSON(report *batch.Report) sendReportJSON {
	out := sendReportJSON{
		BatchID:     report.BatchID,
		Cycle:       report.Cycle,
		DryRun:      report.DryRun,
		Interrupted: report.Interrupted,
		Sent:        report.Summary.Sent,
		Skipped:     report.Summary.Skipped,
		Failed:      report.Summary.Failed,
		Duration:    report.Duration.Round(time.Millisecond).String(),
		Unmatched:   []string{},
		Results:     make([]resultJSON, 0, len(report.Results)),
	}
	if report.Plan != nil {
		out.Unmatched = documentNames(report.Plan.Unmatched)
	}
	for _, res := range report.Results {
		out.Results = append(out.Results, resultJSON{
			Row:         res.Entry.Row,
			Flat:        res.Entry.Key.String(),
			Raw:         res.Entry.Raw,
			Email:       res.Entry.Email,
			Attachments: res.Attachments,
			Outcome:     res.Outcome.String(),
			Detail:      res.Reason(),
		})
	}
	return out
}

func renderSendReport(report *batch.Report) string {
	rows := make([][]string, 0, len(report.Results))
	for _, res := range report.Results {
		rows = append(rows, []string{
			strconv.Itoa(res.Entry.Row),
			entryLabel(res),
			res.Entry.Email,
			strconv.Itoa(res.Attachments),
			res.Outcome.String(),
			res.Reason(),
		})
	}

	var b strings.Builder
	b.WriteString(renderTable([]column{
		{title: "Row", numeric: true},
		{title: "Flat"},
		{title: "Email"},
		{title: "Attachments", numeric: true},
		{title: "Outcome"},
		{title: "Detail"},
	}, rows))
	b.WriteByte('\n')
	b.WriteString(summaryLine(report))
	b.WriteByte('\n')
	if report.Plan != nil && len(report.Plan.Unmatched) > 0 {
		fmt.Fprintf(&b, "Unmatched documents: %s\n", strings.Join(documentNames(report.Plan.Unmatched), ", "))
	}
	return b.String()
}

func summaryLine(report *batch.Report) string {
	mode := ""
	if report.DryRun {
		mode = " (dry run)"
	}
	line := fmt.Sprintf("Batch %s%s: %d sent, %d skipped, %d failed in %s",
		logging.ShortBatchID(report.BatchID), mode,
		report.Summary.Sent, report.Summary.Skipped, report.Summary.Failed,
		report.Duration.Round(time.Millisecond))
	if report.Interrupted && report.Plan != nil {
		line += fmt.Sprintf(" (interrupted, %d not attempted)", len(report.Plan.Groups)-len(report.Results))
	}
	return line
}

type planGroupJSON struct {
	Row       int      `json:"row"`
	Flat      string   `json:"flat"`
	Email     string   `json:"email"`
	Documents []string `json:"documents"`
	Pages     int      `json:"pages"`
}

type planJSON struct {
	Entries   int             `json:"entries"`
	Documents int             `json:"documents"`
	Matched   int             `json:"matched"`
	Groups    []planGroupJSON `json:"groups"`
	Unmatched []string        `json:"unmatched_documents"`
}

func newPlanJSON(plan *batch.Plan) planJSON {
	out := planJSON{
		Entries:   len(plan.Entries),
		Documents: len(plan.Documents),
		Matched:   plan.Matched(),
		Groups:    make([]planGroupJSON, 0, len(plan.Groups)),
		Unmatched: documentNames(plan.Unmatched),
	}
	for _, g := range plan.Groups {
		out.Groups = append(out.Groups, planGroupJSON{
			Row:       g.Entry.Row,
			Flat:      g.Entry.Key.String(),
			Email:     g.Entry.Email,
			Documents: documentNames(g.Documents),
			Pages:     pdfinfo.TotalPages(pdfinfo.Inspect(g.Documents)),
		})
	}
	return out
}

func renderPlan(plan *batch.Plan) string {
	rows := make([][]string, 0, len(plan.Groups))
	for _, g := range plan.Groups {
		rows = append(rows, []string{
			strconv.Itoa(g.Entry.Row),
			groupLabel(g),
			g.Entry.Email,
			documentsCell(g.Documents),
			pagesCell(pdfinfo.Inspect(g.Documents)),
		})
	}

	var b strings.Builder
	b.WriteString(renderTable([]column{
		{title: "Row", numeric: true},
		{title: "Flat"},
		{title: "Email"},
		{title: "Documents"},
		{title: "Pages", numeric: true},
	}, rows))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "%d of %d residents will receive mail; %s in archive\n",
		plan.Matched(), len(plan.Entries), pluralize(len(plan.Documents), "document"))

	if len(plan.Unmatched) > 0 {
		infos := pdfinfo.Inspect(plan.Unmatched)
		unmatched := make([][]string, 0, len(infos))
		for _, info := range infos {
			unmatched = append(unmatched, []string{info.Name, strconv.Itoa(info.Size), pagesCell([]pdfinfo.Info{info})})
		}
		b.WriteString("\nDocuments matching no resident:\n")
		b.WriteString(renderTable([]column{
			{title: "Document"},
			{title: "Bytes", numeric: true},
			{title: "Pages", numeric: true},
		}, unmatched))
		b.WriteByte('\n')
	}
	return b.String()
}

func groupLabel(g matcher.Group) string {
	return entryLabel(dispatch.Result{Entry: g.Entry})
}

func documentsCell(docs []attachments.Document) string {
	if len(docs) == 0 {
		return "-"
	}
	return strings.Join(documentNames(docs), ", ")
}

// pagesCell shows the readable page total, flagging documents the PDF parser
// rejected. Unreadable documents are still mailed.
func pagesCell(infos []pdfinfo.Info) string {
	if len(infos) == 0 {
		return "-"
	}
	unreadable := 0
	for _, info := range infos {
		if info.Err != nil {
			unreadable++
		}
	}
	total := strconv.Itoa(pdfinfo.TotalPages(infos))
	if unreadable == 0 {
		return total
	}
	if unreadable == len(infos) {
		return "?"
	}
	return fmt.Sprintf("%s (+%d unreadable)", total, unreadable)
}

func documentNames(docs []attachments.Document) []string {
	names := make([]string, 0, len(docs))
	for _, d := range docs {
		names = append(names, d.Name)
	}
	return names
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
