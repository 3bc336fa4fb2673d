package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/ifcecaucaia/einventario/internal/db"
	"github.com/ifcecaucaia/einventario/internal/store"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"1.234,56", "1234.56", false},
		{"1,234.56", "1234.56", false},
		{"1234.56", "1234.56", false},
		{"1234,56", "1234.56", false},
		{"300", "300", false},
		{"R$ 2.500,00", "2500", false},
		{"", "", true},
		{"abc", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDecimal(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDecimal(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got.String() != tt.want {
			t.Errorf("ParseDecimal(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	if _, err := ParseDate("31/01/2024"); err != nil {
		t.Errorf("ParseDate pt-BR: %v", err)
	}
	if _, err := ParseDate("2024-01-31"); err != nil {
		t.Errorf("ParseDate ISO: %v", err)
	}
	if _, err := ParseDate("01-31-2024"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestImport(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	input := "\ufeffNÚMERO;STATUS;ED;CONTA CONTÁBIL;DESCRIÇÃO;SALA;VALOR AQUISIÇÃO;DATA DA ENTRADA\n" +
		"1001;Ativo;4490.52.34;12311.03 - EQUIPAMENTOS;Projetor;SALA 10 (BLOCO A);2.500,00;15/03/2022\n" +
		"1002;Ativo;;;Cadeira;SALA 11 (BLOCO A);150,00;\n" +
		";;;;Sem tombamento;;;\n" +
		"1001;Ativo;;;Projetor duplicado;;;\n" +
		"1003;Ativo;;;Quadro;PÁTIO;abc;2022-13-99\n"

	result, err := Import(ctx, database, strings.NewReader(input))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if result.Created != 3 {
		t.Errorf("created = %d, want 3", result.Created)
	}
	if result.Updated != 0 {
		t.Errorf("updated = %d, want 0", result.Updated)
	}
	// Missing tag row, duplicate tag row, bad decimal, bad date.
	if len(result.Errors) != 4 {
		t.Errorf("errors = %+v, want 4", result.Errors)
	}

	a, err := store.GetAssetByTag(ctx, database, "1001")
	if err != nil {
		t.Fatal(err)
	}
	if a == nil || a.Description != "Projetor" {
		t.Fatalf("asset 1001 = %+v", a)
	}
	if a.AcquisitionValue.String() != "2500" {
		t.Errorf("acquisition value = %s", a.AcquisitionValue)
	}
	if a.EnteredAt == nil || a.EnteredAt.Format("2006-01-02") != "2022-03-15" {
		t.Errorf("entered at = %v", a.EnteredAt)
	}

	// Malformed fields degrade to null; the row itself still imports.
	c, err := store.GetAssetByTag(ctx, database, "1003")
	if err != nil {
		t.Fatal(err)
	}
	if c == nil || !c.AcquisitionValue.IsZero() || c.EnteredAt != nil {
		t.Errorf("asset 1003 = %+v", c)
	}

	// Re-import updates in place.
	again, err := Import(ctx, database, strings.NewReader(
		"NUMERO,DESCRICAO\n1001,Projetor Epson\n"))
	if err != nil {
		t.Fatal(err)
	}
	if again.Updated != 1 || again.Created != 0 {
		t.Errorf("re-import = %+v", again)
	}
	b, _ := store.GetAssetByTag(ctx, database, "1001")
	if b.Description != "Projetor Epson" {
		t.Errorf("description after re-import = %q", b.Description)
	}
}
