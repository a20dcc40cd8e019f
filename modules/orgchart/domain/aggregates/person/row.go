package person

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	ColumnName       = "name"
	ColumnTitle      = "title"
	ColumnDepartment = "department"
	ColumnShift      = "shift"
	ColumnImagePath  = "image_path"
	ColumnSupervisor = "supervisor"

	DefaultSupervisorSeparator = ";"
)

// columnAliases maps lower-cased header text to canonical column names. The
// Portuguese headers come from the spreadsheets the tool was first built for.
var columnAliases = map[string]string{
	"name":         ColumnName,
	"nome":         ColumnName,
	"title":        ColumnTitle,
	"cargo":        ColumnTitle,
	"department":   ColumnDepartment,
	"setor":        ColumnDepartment,
	"shift":        ColumnShift,
	"turno":        ColumnShift,
	"image_path":   ColumnImagePath,
	"image":        ColumnImagePath,
	"imagem":       ColumnImagePath,
	"supervisor":   ColumnSupervisor,
	"supervisors":  ColumnSupervisor,
	"supervisores": ColumnSupervisor,
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// CanonicalColumn resolves a header cell to its canonical column name.
func CanonicalColumn(header string) (string, bool) {
	c, ok := columnAliases[strings.ToLower(strings.TrimSpace(header))]
	return c, ok
}

// RequireColumns checks that the header carries a name column and that no
// canonical column is given twice under different aliases.
func RequireColumns(header []string) error {
	seen := make(map[string]string, len(header))
	for _, h := range header {
		c, ok := CanonicalColumn(h)
		if !ok {
			continue
		}
		if prev, dup := seen[c]; dup {
			return fmt.Errorf("person: column %q given twice (%q and %q)", c, prev, h)
		}
		seen[c] = h
	}
	if _, ok := seen[ColumnName]; !ok {
		return ErrNameColumn
	}
	return nil
}

// Row is one normalized spreadsheet row.
type Row struct {
	Line           int
	Name           string `validate:"required"`
	Title          *string
	Department     *string
	Shift          string
	ImagePath      *string
	SupervisorRefs *string
}

// NormalizeRow turns header-keyed cell values into a Row. Cell values are nil
// for blank cells, string for text and float64 or bool for other cell types.
func NormalizeRow(line int, cells map[string]any) (Row, error) {
	canonical := make(map[string]any, len(cells))
	for h, v := range cells {
		if c, ok := CanonicalColumn(h); ok {
			canonical[c] = v
		}
	}

	r := Row{Line: line}
	switch v := canonical[ColumnName].(type) {
	case nil:
		return Row{}, &RowError{Line: line, Field: ColumnName, Err: ErrNameRequired}
	case string:
		r.Name = strings.TrimSpace(v)
	default:
		return Row{}, &RowError{Line: line, Field: ColumnName, Err: ErrInvalidName}
	}

	r.Title = optionalText(canonical[ColumnTitle])
	r.Department = optionalText(canonical[ColumnDepartment])
	r.Shift = textOrEmpty(canonical[ColumnShift])
	r.ImagePath = optionalText(canonical[ColumnImagePath])
	r.SupervisorRefs = rawText(canonical[ColumnSupervisor])

	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return Row{}, &RowError{Line: line, Field: ColumnName, Err: ErrNameRequired}
		}
		return Row{}, &RowError{Line: line, Err: err}
	}
	return r, nil
}

// SupervisorNames splits the raw supervisor cell on sep, trimming every token
// and dropping empty ones.
func (r Row) SupervisorNames(sep string) []string {
	if r.SupervisorRefs == nil {
		return nil
	}
	if sep == "" {
		sep = DefaultSupervisorSeparator
	}
	parts := strings.Split(*r.SupervisorRefs, sep)
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}

// BlankRow reports whether every cell of a row is empty.
func BlankRow(cells map[string]any) bool {
	for _, v := range cells {
		switch t := v.(type) {
		case nil:
		case string:
			if strings.TrimSpace(t) != "" {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func optionalText(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func textOrEmpty(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func rawText(v any) *string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(t)
	default:
		return nil
	}
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
