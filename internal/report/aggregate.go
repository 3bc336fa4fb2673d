// Package report folds per-asset reconciliation outcomes into the grouped
// statistics behind every report: coverage per account and building, time
// series, inspector productivity, rankings, and the assembled payloads the
// API serves.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ifcecaucaia/einventario/internal/model"
	"github.com/ifcecaucaia/einventario/internal/recon"
)

// Labels for assets whose grouping field is blank.
const (
	NoAccountLabel  = "(sem conta)"
	NoBuildingLabel = "(sem bloco)"
)

// ParseAccount extracts the accounting code from a registry account string:
// "12311.03 - EQUIPAMENTOS DE TI" -> "12311.03". Blank accounts collapse to
// a single placeholder bucket.
func ParseAccount(account string) string {
	account = strings.TrimSpace(account)
	if account == "" {
		return NoAccountLabel
	}
	if i := strings.Index(account, " - "); i > 0 {
		return strings.TrimSpace(account[:i])
	}
	if fields := strings.Fields(account); len(fields) > 0 {
		return fields[0]
	}
	return NoAccountLabel
}

// BuildingOf returns the grouping label for an asset's building.
func BuildingOf(a *model.Asset) string {
	_, building := recon.ParseLocation(a.Location)
	if building == "" {
		return NoBuildingLabel
	}
	return building
}

// AccountOf returns the grouping label for an asset's accounting code.
func AccountOf(a *model.Asset) string {
	return ParseAccount(a.Account)
}

// Bucket holds the classification counts and value sum for one group of
// eligible assets. OK + Divergent + NotFound + Pending always equals
// Eligible; no asset is double counted.
type Bucket struct {
	Label     string          `json:"label"`
	Eligible  int             `json:"eligible"`
	Inspected int             `json:"inspected"`
	OK        int             `json:"ok"`
	Divergent int             `json:"divergent"`
	NotFound  int             `json:"not_found"`
	Pending   int             `json:"pending"`
	Value     decimal.Decimal `json:"value"`
}

// Coverage returns the bucket's coverage percentage.
func (b Bucket) Coverage() float64 {
	return Coverage(b.Inspected, b.Eligible)
}

// Coverage is inspected/eligible as a percentage rounded to one decimal,
// zero when there is nothing eligible.
func Coverage(inspected, eligible int) float64 {
	if eligible <= 0 {
		return 0
	}
	return math.Round(float64(inspected)/float64(eligible)*1000) / 10
}

// GroupBy partitions eligible assets into buckets under key, classifying each
// against its inspection (or Pending when uninspected). Buckets come back
// sorted by label for stable report output.
func GroupBy(assets []model.Asset, inspections map[int64]*model.Inspection, key func(*model.Asset) string) []Bucket {
	byLabel := make(map[string]*Bucket)
	for i := range assets {
		a := &assets[i]
		label := key(a)
		b, ok := byLabel[label]
		if !ok {
			b = &Bucket{Label: label}
			byLabel[label] = b
		}
		b.Eligible++
		b.Value = b.Value.Add(a.AcquisitionValue)

		insp := inspections[a.ID]
		if insp == nil {
			b.Pending++
			continue
		}
		b.Inspected++
		switch recon.Classify(recon.Reconcile(a, insp)) {
		case recon.ClassNotFound:
			b.NotFound++
		case recon.ClassDivergent:
			b.Divergent++
		default:
			b.OK++
		}
	}

	out := make([]Bucket, 0, len(byLabel))
	for _, b := range byLabel {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// Totals sums a bucket list into one bucket.
func Totals(buckets []Bucket) Bucket {
	total := Bucket{Label: "Total"}
	for _, b := range buckets {
		total.Eligible += b.Eligible
		total.Inspected += b.Inspected
		total.OK += b.OK
		total.Divergent += b.Divergent
		total.NotFound += b.NotFound
		total.Pending += b.Pending
		total.Value = total.Value.Add(b.Value)
	}
	return total
}

// Ranked is one entry of a top-N ranking.
type Ranked struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TopN ranks counts descending, ties broken by label ascending so report
// output is reproducible. n <= 0 returns the full ranking.
func TopN(counts map[string]int, n int) []Ranked {
	out := make([]Ranked, 0, len(counts))
	for label, count := range counts {
		if count > 0 {
			out = append(out, Ranked{Label: label, Count: count})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Time bucket keys. Series are built over the inspection's last-updated
// timestamp, so corrections count toward the day they were made.
func DayKey(t time.Time) string   { return t.Format("2006-01-02") }
func MonthKey(t time.Time) string { return t.Format("2006-01") }

// WeekKey formats the ISO year-week, e.g. "2025-W41".
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// SeriesPoint is one bucket of a time series.
type SeriesPoint struct {
	Key      string  `json:"key"`
	Count    int     `json:"count"`
	PctOfMax float64 `json:"pct_of_max"`
}

// Series buckets inspections by key over their UpdatedAt timestamp, sorted by
// key, with each point scaled against the busiest bucket.
func Series(inspections []*model.Inspection, key func(time.Time) string) []SeriesPoint {
	counts := make(map[string]int)
	for _, insp := range inspections {
		counts[key(insp.UpdatedAt)]++
	}
	out := make([]SeriesPoint, 0, len(counts))
	max := 0
	for k, c := range counts {
		out = append(out, SeriesPoint{Key: k, Count: c})
		if c > max {
			max = c
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	for i := range out {
		if max > 0 {
			out[i].PctOfMax = math.Round(float64(out[i].Count)/float64(max)*1000) / 10
		}
	}
	return out
}

// InspectorRow is one inspector's production within a campaign.
type InspectorRow struct {
	UserID    int64  `json:"user_id"`
	Name      string `json:"name"`
	Total     int    `json:"total"`
	OK        int    `json:"ok"`
	Divergent int    `json:"divergent"`
	NotFound  int    `json:"not_found"`
}

// ByInspector groups inspections by the user who last touched them. Names are
// resolved through usernames; unknown users keep a numeric placeholder.
func ByInspector(assets []model.Asset, inspections map[int64]*model.Inspection, usernames map[int64]string) []InspectorRow {
	byID := make(map[int64]map[int64]*model.Inspection)
	for i := range assets {
		insp := inspections[assets[i].ID]
		if insp == nil {
			continue
		}
		var uid int64
		if insp.UpdatedBy != nil {
			uid = *insp.UpdatedBy
		} else if insp.CreatedBy != nil {
			uid = *insp.CreatedBy
		}
		if byID[uid] == nil {
			byID[uid] = make(map[int64]*model.Inspection)
		}
		byID[uid][assets[i].ID] = insp
	}

	out := make([]InspectorRow, 0, len(byID))
	for uid, m := range byID {
		row := InspectorRow{UserID: uid, Name: usernames[uid]}
		if row.Name == "" {
			row.Name = fmt.Sprintf("usuário %d", uid)
		}
		for i := range assets {
			insp := m[assets[i].ID]
			if insp == nil {
				continue
			}
			row.Total++
			switch recon.Classify(recon.Reconcile(&assets[i], insp)) {
			case recon.ClassNotFound:
				row.NotFound++
			case recon.ClassDivergent:
				row.Divergent++
			default:
				row.OK++
			}
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}
