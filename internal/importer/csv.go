// Package importer loads the SUAP registry export (CSV) into the assets
// table. Imports are partial-success: malformed rows are reported and
// skipped, never abort the batch.
package importer

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ifcecaucaia/einventario/internal/model"
	"github.com/ifcecaucaia/einventario/internal/store"
)

// Result summarizes one import run.
type Result struct {
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Errors  []RowError `json:"errors,omitempty"`
}

// RowError points at one skipped row. Line is 1-based and counts the header.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Column identifiers after header normalization.
const (
	colTag         = "NUMERO"
	colStatus      = "STATUS"
	colExpenseCode = "ED"
	colAccount     = "CONTA CONTABIL"
	colDescription = "DESCRICAO"
	colResponsible = "CARGA ATUAL"
	colSector      = "SETOR DO RESPONSAVEL"
	colAcquisition = "VALOR AQUISICAO"
	colDepreciated = "VALOR DEPRECIADO"
	colInvoice     = "NUMERO NOTA FISCAL"
	colSerial      = "NUMERO DE SERIE"
	colEnteredAt   = "DATA DA ENTRADA"
	colSupplier    = "FORNECEDOR"
	colLocation    = "SALA"
	colCondition   = "ESTADO DE CONSERVACAO"
)

var deaccent = strings.NewReplacer(
	"Á", "A", "À", "A", "Â", "A", "Ã", "A", "Ä", "A",
	"É", "E", "È", "E", "Ê", "E", "Ë", "E",
	"Í", "I", "Ì", "I", "Î", "I", "Ï", "I",
	"Ó", "O", "Ò", "O", "Ô", "O", "Õ", "O", "Ö", "O",
	"Ú", "U", "Ù", "U", "Û", "U", "Ü", "U",
	"Ç", "C", "Ñ", "N",
)

// normalizeHeader uppercases, strips accents and collapses whitespace so the
// SUAP export's header variants all resolve to the same column key.
func normalizeHeader(h string) string {
	h = strings.ToUpper(strings.TrimSpace(h))
	h = deaccent.Replace(h)
	return strings.Join(strings.Fields(h), " ")
}

// sniffDelimiter picks ';' or ',' by counting occurrences in the header line.
// SUAP exports use ';'; hand-edited files often use ','.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{';'}) >= bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

// ParseDecimal parses a pt-BR or en-US formatted monetary value. The last
// separator ('.' or ',') is taken as the decimal mark, everything before it
// as grouping: "1.234,56" -> 1234.56, "1,234.56" -> 1234.56, "300" -> 300.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty value")
	}
	last := strings.LastIndexAny(s, ".,")
	if last >= 0 {
		intPart := strings.Map(func(r rune) rune {
			if r == '.' || r == ',' {
				return -1
			}
			return r
		}, s[:last])
		s = intPart + "." + s[last+1:]
	}
	return decimal.NewFromString(s)
}

// ParseDate accepts the registry's two date formats.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"02/01/2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Import reads a SUAP CSV export and upserts one asset per unique tag.
// NUMERO and DESCRICAO are required per row; unparsable decimals and dates
// degrade to null with a row error, and a duplicate tag within the same file
// is an error for the later row.
func Import(ctx context.Context, db *sql.DB, r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading import file: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte{0xef, 0xbb, 0xbf})

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[normalizeHeader(h)] = i
	}
	if _, ok := cols[colTag]; !ok {
		return nil, fmt.Errorf("missing required column %q", colTag)
	}
	if _, ok := cols[colDescription]; !ok {
		return nil, fmt.Errorf("missing required column %q", colDescription)
	}

	result := &Result{}
	seen := make(map[string]bool)
	line := 1
	for {
		record, err := reader.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, RowError{Line: line, Message: err.Error()})
			continue
		}
		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		tag := field(colTag)
		description := field(colDescription)
		if tag == "" || description == "" {
			result.Errors = append(result.Errors, RowError{Line: line, Message: "NUMERO and DESCRICAO are required"})
			continue
		}
		if seen[tag] {
			result.Errors = append(result.Errors, RowError{Line: line, Message: fmt.Sprintf("duplicate tag %q in file", tag)})
			continue
		}
		seen[tag] = true

		asset := &model.Asset{
			Tag:         tag,
			Status:      field(colStatus),
			ExpenseCode: field(colExpenseCode),
			Account:     field(colAccount),
			Description: description,
			Responsible: field(colResponsible),
			Sector:      field(colSector),
			Serial:      field(colSerial),
			Location:    field(colLocation),
			Condition:   field(colCondition),
			Supplier:    field(colSupplier),
			Invoice:     field(colInvoice),
		}
		if raw := field(colAcquisition); raw != "" {
			if v, err := ParseDecimal(raw); err == nil {
				asset.AcquisitionValue = v
			} else {
				result.Errors = append(result.Errors, RowError{Line: line, Message: fmt.Sprintf("tag %s: bad acquisition value %q", tag, raw)})
			}
		}
		if raw := field(colDepreciated); raw != "" {
			if v, err := ParseDecimal(raw); err == nil {
				asset.DepreciatedValue = v
			} else {
				result.Errors = append(result.Errors, RowError{Line: line, Message: fmt.Sprintf("tag %s: bad depreciated value %q", tag, raw)})
			}
		}
		if raw := field(colEnteredAt); raw != "" {
			if t, err := ParseDate(raw); err == nil {
				asset.EnteredAt = &t
			} else {
				result.Errors = append(result.Errors, RowError{Line: line, Message: fmt.Sprintf("tag %s: bad entry date %q", tag, raw)})
			}
		}

		created, err := store.UpsertAsset(ctx, db, asset)
		if err != nil {
			result.Errors = append(result.Errors, RowError{Line: line, Message: err.Error()})
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}
	return result, nil
}
