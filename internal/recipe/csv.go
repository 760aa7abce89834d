package recipe

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"recipehub/pkg/models"
)

// CSVHeader is the column layout written by WriteCSV. Steps are a JSON
// array of groups; diets are joined with ";".
var CSVHeader = []string{"id", "source", "name", "resume", "score", "health_score", "steps", "img", "diets"}

const dietSep = ";"

func WriteCSV(w io.Writer, recipes []models.Recipe) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}

	for _, r := range recipes {
		steps, err := json.Marshal(r.Steps)
		if err != nil {
			return fmt.Errorf("encode steps of %d: %w", r.ID, err)
		}
		if err := cw.Write([]string{
			strconv.FormatInt(r.ID, 10),
			r.Source,
			r.Name,
			r.Resume,
			strconv.Itoa(r.Score),
			strconv.Itoa(r.HealthScore),
			string(steps),
			r.Image,
			strings.Join(r.Diets, dietSep),
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// CSVRow is one parsed line: the recipe to create and the diets to link.
type CSVRow struct {
	Line   int
	Source string
	Recipe models.NewRecipe
	Diets  []string
}

// ReadCSV parses a file in the WriteCSV layout. Columns are matched by
// header name, so extra or reordered columns are fine. Rows without a name
// are skipped.
func ReadCSV(r io.Reader) ([]CSVRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header := make(map[string]int, len(head))
	for idx, name := range head {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	if _, ok := header["name"]; !ok {
		return nil, errors.New("csv header has no name column")
	}

	var out []CSVRow
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, err
		}

		name := valueAt(header, row, "name")
		if name == "" {
			continue
		}

		score, err := parseInt(valueAt(header, row, "score"))
		if err != nil {
			return nil, fmt.Errorf("line %d: score: %w", line, err)
		}
		health, err := parseInt(valueAt(header, row, "health_score"))
		if err != nil {
			return nil, fmt.Errorf("line %d: health_score: %w", line, err)
		}

		steps := [][]string{}
		if raw := valueAt(header, row, "steps"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &steps); err != nil {
				return nil, fmt.Errorf("line %d: steps: %w", line, err)
			}
		}

		var diets []string
		for _, d := range strings.Split(valueAt(header, row, "diets"), dietSep) {
			if d = strings.TrimSpace(d); d != "" {
				diets = append(diets, d)
			}
		}

		out = append(out, CSVRow{
			Line:   line,
			Source: valueAt(header, row, "source"),
			Recipe: models.NewRecipe{
				Name:        name,
				Resume:      valueAt(header, row, "resume"),
				Score:       score,
				HealthScore: health,
				Steps:       steps,
				Image:       valueAt(header, row, "img"),
			},
			Diets: diets,
		})
	}
	return out, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
