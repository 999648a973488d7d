package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"kyc-review-api/internal/models"
	"kyc-review-api/internal/realtime"
	"kyc-review-api/internal/verification"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printYAML goes through JSON first so keys match the API's field names.
func printYAML(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

func printStructured(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case outputJSON:
		return true, printJSON(w, v)
	case outputYAML:
		return true, printYAML(w, v)
	}
	return false, nil
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

func renderTasks(w io.Writer, format string, tasks []models.Task) error {
	if done, err := printStructured(w, format, tasks); done {
		return err
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"ID", "Title", "Subject", "Status", "Decision", "Due"})
	for _, t := range tasks {
		subject := "?"
		if id, ok := verification.ExtractSubjectID(t.Description); ok {
			subject = fmt.Sprint(id)
		}
		tw.AppendRow(table.Row{t.ID, t.Title, subject, t.Status, t.KYCAction, formatDate(t.DueDate)})
	}
	tw.AppendFooter(table.Row{"", fmt.Sprintf("%d task(s)", len(tasks))})
	// the default style upper-cases footers
	tw.Style().Format.Footer = text.FormatDefault
	tw.Render()
	return nil
}

func renderRecord(w io.Writer, format string, rec verification.Record) error {
	if done, err := printStructured(w, format, rec); done {
		return err
	}
	submitted := ""
	if !rec.SubmissionDate.IsZero() {
		submitted = formatDate(&rec.SubmissionDate)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendRows([]table.Row{
		{"KYC ID", rec.KYCID},
		{"User", fmt.Sprintf("%s (%d)", rec.Username, rec.UserID)},
		{"Full name", rec.FullName},
		{"Country", rec.Country},
		{"Document", strings.TrimSpace(rec.DocumentType + " " + rec.DocumentID)},
		{"Submitted", submitted},
		{"Front image", imageRef(rec.FrontImageURL)},
		{"Back image", imageRef(rec.BackImageURL)},
		{"Selfie", imageRef(rec.SelfieImageURL)},
	})
	tw.Render()
	if rec.IsPlaceholder() {
		fmt.Fprintln(w, "record could not be loaded; see log output")
	}
	return nil
}

// imageAbsent stands in for an image the subject did not provide.
const imageAbsent = "not available"

func imageRef(ref string) string {
	if ref == "" {
		return imageAbsent
	}
	return ref
}

func formatEvent(evt realtime.Event) string {
	parts := []string{evt.Type}
	if evt.TaskID != 0 {
		parts = append(parts, fmt.Sprintf("task=%d", evt.TaskID))
	}
	if evt.Status != "" {
		parts = append(parts, "status="+evt.Status)
	}
	return strings.Join(parts, " ")
}
