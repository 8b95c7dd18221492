package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/kscst/training-portal/internal/core/domain"
)

// table is the tabular rendering of a value.
type table struct {
	header []string
	rows   [][]string
}

type printer struct {
	w      io.Writer
	format string
}

func newPrinter(w io.Writer, format string) *printer {
	return &printer{w: w, format: format}
}

// render writes v as JSON or YAML, or tbl for the table format.
func (p *printer) render(v any, tbl table) error {
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		return writeYAML(p.w, v)
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(tbl.header, "\t"))
	for _, row := range tbl.rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// message prints a one-line result.
func (p *printer) message(msg string) error {
	if p.format == FormatTable {
		_, err := fmt.Fprintln(p.w, msg)
		return err
	}
	return p.render(map[string]string{"message": msg}, table{})
}

// writeYAML goes through JSON so keys match the JSON field names.
func writeYAML(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func traineesTable(items []domain.Trainee) table {
	t := table{header: []string{"ID", "USERNAME", "NAME", "EMAIL", "SKILL", "STATUS", "TRAINER"}}
	for _, x := range items {
		t.rows = append(t.rows, []string{x.ID, x.Username, x.Name, x.Email, x.Skill, x.Status, x.AssignedTrainerID})
	}
	return t
}

func trainersTable(items []domain.Trainer) table {
	t := table{header: []string{"ID", "USERNAME", "NAME", "EMAIL", "EXPERTISE", "STATUS"}}
	for _, x := range items {
		t.rows = append(t.rows, []string{x.ID, x.Username, x.Name, x.Email, x.Expertise, x.Status})
	}
	return t
}

func materialsTable(items []domain.TrainingMaterial) table {
	t := table{header: []string{"ID", "TITLE", "TYPE", "FILE"}}
	for _, x := range items {
		t.rows = append(t.rows, []string{x.ID, x.Title, x.FileType, x.FilePath})
	}
	return t
}

func playlistsTable(items []domain.Playlist) table {
	t := table{header: []string{"ID", "TITLE", "SKILL", "VIDEOS"}}
	for _, x := range items {
		t.rows = append(t.rows, []string{x.ID, x.Title, x.Skill, strconv.Itoa(len(x.Videos))})
	}
	return t
}

func traineeProgressTable(items []domain.TraineeProgress) table {
	t := table{header: []string{"TRAINEE", "USERNAME", "SKILL", "COMPLETED", "PERCENT", "CERTIFICATE"}}
	for _, x := range items {
		t.rows = append(t.rows, []string{
			x.TraineeID,
			x.Username,
			x.Skill,
			fmt.Sprintf("%d/%d", x.CompletedItems, x.TotalItems),
			strconv.FormatFloat(x.CompletionPercentage, 'f', 0, 64) + "%",
			yesNo(x.HasCertificate),
		})
	}
	return t
}

func progressTable(items []domain.Progress) table {
	t := table{header: []string{"ID", "MATERIAL", "PLAYLIST", "VIDEO", "COMPLETED AT"}}
	for _, x := range items {
		t.rows = append(t.rows, []string{x.ID, x.MaterialID, x.PlaylistID, x.VideoURL, formatTime(x.CompletedAt)})
	}
	return t
}

// fieldsTable renders one record as FIELD/VALUE pairs, skipping blanks.
func fieldsTable(pairs ...string) table {
	t := table{header: []string{"FIELD", "VALUE"}}
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		t.rows = append(t.rows, []string{pairs[i], pairs[i+1]})
	}
	return t
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
