package report

import "strconv"

// CSV row builders for the export variants. Header order is fixed; report
// consumers key on column position.

func pct(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }
func num(v int) string     { return strconv.Itoa(v) }

// AccountsCSV renders the per-account table plus a totals row.
func AccountsCSV(rows []AccountRow, totals AccountRow) [][]string {
	out := [][]string{{
		"Conta", "Itens", "Valor (R$)", "Vistoriados", "OK", "Divergentes",
		"Não localizados", "Cobertura (%)",
	}}
	for _, r := range append(rows, totals) {
		out = append(out, []string{
			r.Account, num(r.Items), r.Value.StringFixed(2), num(r.Inspected),
			num(r.OK), num(r.Divergent), num(r.NotFound), pct(r.Coverage),
		})
	}
	return out
}

// NCMapCSV renders the non-conformance map, one row per detailed diff.
func NCMapCSV(rows []NCRow) [][]string {
	out := [][]string{{
		"Tombamento", "Descrição", "Conta", "Bloco", "Sala", "Não conformidade",
		"Valor de registro", "Valor observado", "Severidade", "Atualizado em",
	}}
	for _, r := range rows {
		out = append(out, []string{
			r.Tag, r.Description, r.Account, r.Building, r.Room, r.Label,
			r.Registry, r.Observed, r.Severity, r.UpdatedAt.Format("2006-01-02 15:04"),
		})
	}
	return out
}

// SeriesCSV renders one time series of the execution report.
func SeriesCSV(points []SeriesPoint) [][]string {
	out := [][]string{{"Período", "Vistorias", "% do pico"}}
	for _, p := range points {
		out = append(out, []string{p.Key, num(p.Count), pct(p.PctOfMax)})
	}
	return out
}

// BuildingsCSV renders the per-building workspace cards.
func BuildingsCSV(cards []BuildingCard) [][]string {
	out := [][]string{{
		"Bloco", "Total", "Vistoriados", "Pendentes", "Não localizados",
		"Movidos", "Sem registro",
	}}
	for _, c := range cards {
		out = append(out, []string{
			c.Building, num(c.Total), num(c.Inspected), num(c.Pending),
			num(c.NotFound), num(c.Moved), num(c.Extras),
		})
	}
	return out
}

// RoomsCSV renders the per-room breakdown of one building.
func RoomsCSV(building string, rooms []RoomStats) [][]string {
	out := [][]string{{
		"Bloco", "Sala", "Total", "Vistoriados", "Pendentes", "OK",
		"Divergentes", "Não localizados", "Saíram", "Chegaram", "Sem registro",
	}}
	for _, r := range rooms {
		out = append(out, []string{
			building, r.Room, num(r.Total), num(r.Inspected), num(r.Pending),
			num(r.OK), num(r.Divergent), num(r.NotFound), num(r.MovedOut),
			num(r.MovedIn), num(r.Extras),
		})
	}
	return out
}
