package report

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ifcecaucaia/einventario/internal/model"
	"github.com/ifcecaucaia/einventario/internal/recon"
)

// AccountRow is one line of the executive per-account table. The executive
// view folds uninspected assets into the not-found column; the raw partition
// stays available through GroupBy.
type AccountRow struct {
	Account   string          `json:"account"`
	Items     int             `json:"items"`
	Value     decimal.Decimal `json:"value"`
	Inspected int             `json:"inspected"`
	OK        int             `json:"ok"`
	Divergent int             `json:"divergent"`
	NotFound  int             `json:"not_found"`
	Coverage  float64         `json:"coverage"`
}

func accountRow(b Bucket) AccountRow {
	return AccountRow{
		Account:   b.Label,
		Items:     b.Eligible,
		Value:     b.Value,
		Inspected: b.Inspected,
		OK:        b.OK,
		Divergent: b.Divergent,
		NotFound:  b.NotFound + b.Pending,
		Coverage:  b.Coverage(),
	}
}

// SeverityCounts buckets every non-OK asset into its single remediation tier.
type SeverityCounts struct {
	P1 int `json:"p1"`
	P2 int `json:"p2"`
	P3 int `json:"p3"`
}

// ChecklistRow aggregates one tracked field across the campaign: how many
// found inspections confirmed it, how many flagged it, and how many eligible
// assets have no verdict for it yet.
type ChecklistRow struct {
	Field        string `json:"field"`
	Label        string `json:"label"`
	Match        int    `json:"match"`
	Mismatch     int    `json:"mismatch"`
	NotInspected int    `json:"not_inspected"`
}

// ChartPoint is one labeled value of a report chart.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// FinalReport is the executive report payload.
type FinalReport struct {
	Campaign model.Campaign `json:"campaign"`

	TotalItems int             `json:"total_items"`
	TotalValue decimal.Decimal `json:"total_value"`
	Inspected  int             `json:"inspected"`
	Coverage   float64         `json:"coverage"`
	OK         int             `json:"ok"`
	Divergent  int             `json:"divergent"`
	NotFound   int             `json:"not_found"`
	Pending    int             `json:"pending"`
	Extras     int             `json:"extras"`

	Severity  SeverityCounts `json:"severity"`
	Accounts  []AccountRow   `json:"accounts"`
	Totals    AccountRow     `json:"totals"`
	Checklist []ChecklistRow `json:"checklist"`

	CoverageByAccount     []ChartPoint `json:"coverage_by_account"`
	TopDivergences        []Ranked     `json:"top_divergences"`
	TopBuildingsPending   []Ranked     `json:"top_buildings_pending"`
	TopNotFoundByAccount  []Ranked     `json:"top_not_found_by_account"`
	TopNotFoundByBuilding []Ranked     `json:"top_not_found_by_building"`
}

var checklistFields = []struct {
	field string
	label string
	flag  func(*model.Inspection) bool
}{
	{recon.FieldLocation, "Local", func(i *model.Inspection) bool { return i.MatchesLocation }},
	{recon.FieldSerial, "Número de série", func(i *model.Inspection) bool { return i.MatchesSerial }},
	{recon.FieldDescription, "Descrição", func(i *model.Inspection) bool { return i.MatchesDescription }},
	{recon.FieldResponsible, "Responsável", func(i *model.Inspection) bool { return i.MatchesResponsible }},
	{recon.FieldCondition, "Estado de conservação", func(i *model.Inspection) bool { return i.MatchesCondition }},
}

// AssembleFinal builds the executive report over the campaign's eligible
// assets and their inspections.
func AssembleFinal(campaign model.Campaign, assets []model.Asset, inspections map[int64]*model.Inspection, extras int) FinalReport {
	byAccount := GroupBy(assets, inspections, AccountOf)
	byBuilding := GroupBy(assets, inspections, BuildingOf)
	totals := Totals(byAccount)

	rep := FinalReport{
		Campaign:   campaign,
		TotalItems: totals.Eligible,
		TotalValue: totals.Value,
		Inspected:  totals.Inspected,
		Coverage:   totals.Coverage(),
		OK:         totals.OK,
		Divergent:  totals.Divergent,
		NotFound:   totals.NotFound,
		Pending:    totals.Pending,
		Extras:     extras,
	}

	rep.Accounts = make([]AccountRow, 0, len(byAccount))
	for _, b := range byAccount {
		rep.Accounts = append(rep.Accounts, accountRow(b))
	}
	rep.Totals = accountRow(totals)
	rep.Totals.Account = "Total"

	divergenceCounts := make(map[string]int)
	for i := range assets {
		insp := inspections[assets[i].ID]
		if insp == nil {
			continue
		}
		res := recon.Reconcile(&assets[i], insp)
		if recon.Classify(res) == recon.ClassOK {
			continue
		}
		switch recon.Severity(res) {
		case recon.SeverityCritical:
			rep.Severity.P1++
		case recon.SeverityModerate:
			rep.Severity.P2++
		default:
			rep.Severity.P3++
		}
		for _, d := range res.Diffs {
			if d.Kind != recon.DiffNote {
				divergenceCounts[d.Label()]++
			}
		}
	}

	for _, cf := range checklistFields {
		row := ChecklistRow{Field: cf.field, Label: cf.label}
		for i := range assets {
			insp := inspections[assets[i].ID]
			if insp == nil || insp.Status == model.InspectionNotFound {
				row.NotInspected++
				continue
			}
			if cf.flag(insp) {
				row.Match++
			} else {
				row.Mismatch++
			}
		}
		rep.Checklist = append(rep.Checklist, row)
	}

	coverage := byAccount
	sort.Slice(coverage, func(i, j int) bool {
		if coverage[i].Eligible != coverage[j].Eligible {
			return coverage[i].Eligible > coverage[j].Eligible
		}
		return coverage[i].Label < coverage[j].Label
	})
	for i, b := range coverage {
		if i == 12 {
			break
		}
		rep.CoverageByAccount = append(rep.CoverageByAccount, ChartPoint{Label: b.Label, Value: b.Coverage()})
	}

	pendingByBuilding := make(map[string]int)
	notFoundByBuilding := make(map[string]int)
	for _, b := range byBuilding {
		pendingByBuilding[b.Label] = b.Pending
		notFoundByBuilding[b.Label] = b.NotFound
	}
	notFoundByAccount := make(map[string]int)
	for _, b := range byAccount {
		notFoundByAccount[b.Label] = b.NotFound
	}
	rep.TopDivergences = TopN(divergenceCounts, 10)
	rep.TopBuildingsPending = TopN(pendingByBuilding, 10)
	rep.TopNotFoundByAccount = TopN(notFoundByAccount, 5)
	rep.TopNotFoundByBuilding = TopN(notFoundByBuilding, 5)
	return rep
}

// NCRow is one detailed non-conformance finding: a single diff of a divergent
// or not-found inspection, with enough asset context to act on it.
type NCRow struct {
	Tag         string    `json:"tag"`
	Description string    `json:"description"`
	Account     string    `json:"account"`
	Building    string    `json:"building"`
	Room        string    `json:"room"`
	Label       string    `json:"label"`
	Registry    string    `json:"registry,omitempty"`
	Observed    string    `json:"observed,omitempty"`
	Severity    string    `json:"severity"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NonConformance flattens every divergent or not-found inspection into one
// row per detailed diff, ordered by asset tag.
func NonConformance(assets []model.Asset, inspections map[int64]*model.Inspection) []NCRow {
	sorted := make([]*model.Asset, 0, len(assets))
	for i := range assets {
		sorted = append(sorted, &assets[i])
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Tag < sorted[j].Tag })

	var rows []NCRow
	for _, a := range sorted {
		insp := inspections[a.ID]
		if insp == nil {
			continue
		}
		res := recon.Reconcile(a, insp)
		if recon.Classify(res) == recon.ClassOK {
			continue
		}
		room, building := recon.ParseLocation(a.Location)
		severity := recon.Severity(res)
		for _, d := range res.Diffs {
			rows = append(rows, NCRow{
				Tag:         a.Tag,
				Description: a.Description,
				Account:     ParseAccount(a.Account),
				Building:    building,
				Room:        room,
				Label:       d.Label(),
				Registry:    d.Registry,
				Observed:    d.Observed,
				Severity:    severity,
				UpdatedAt:   insp.UpdatedAt,
			})
		}
	}
	return rows
}

// ExecutionOptions parameterize the execution report: the reporting period,
// an optional daily goal, an optional inspector filter, and the reference
// clock (injected so pacing math is testable).
type ExecutionOptions struct {
	From      time.Time
	To        time.Time
	DailyGoal int
	UserID    int64
	Now       time.Time
}

// Pacing projects campaign completion from the observed daily rate.
type Pacing struct {
	ElapsedDays  int     `json:"elapsed_days"`
	PerDay       float64 `json:"per_day"`
	Remaining    int     `json:"remaining"`
	DaysToFinish int     `json:"days_to_finish"`
	ProjectedEnd string  `json:"projected_end,omitempty"`
	OnTrack      *bool   `json:"on_track,omitempty"`
	DailyGoal    int     `json:"daily_goal,omitempty"`
	Today        int     `json:"today"`
	GoalPct      float64 `json:"goal_pct,omitempty"`
}

// ExecutionMix breaks inspected assets down by outcome plus two field-quality
// signals.
type ExecutionMix struct {
	OK        int `json:"ok"`
	Divergent int `json:"divergent"`
	NotFound  int `json:"not_found"`
	NoPhoto   int `json:"no_photo"`
	TagAbsent int `json:"tag_absent"`
}

// ExecutionReport is the operational pacing/time-series payload.
type ExecutionReport struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Eligible int    `json:"eligible"`

	Inspected int     `json:"inspected"`
	Coverage  float64 `json:"coverage"`
	Last7Days int     `json:"last_7_days"`

	Mix     ExecutionMix  `json:"mix"`
	Daily   []SeriesPoint `json:"daily"`
	Weekly  []SeriesPoint `json:"weekly"`
	Monthly []SeriesPoint `json:"monthly"`

	Inspectors          []InspectorRow `json:"inspectors"`
	TopBuildingsPending []Ranked       `json:"top_buildings_pending"`
	Pacing              Pacing         `json:"pacing"`
}

// AssembleExecution builds the execution report. The inspector filter narrows
// the series, mix and inspected counts but never the eligible denominator.
func AssembleExecution(assets []model.Asset, inspections map[int64]*model.Inspection, usernames map[int64]string, opts ExecutionOptions) ExecutionReport {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.UserID != 0 {
		filtered := make(map[int64]*model.Inspection, len(inspections))
		for id, insp := range inspections {
			uid := int64(0)
			if insp.UpdatedBy != nil {
				uid = *insp.UpdatedBy
			} else if insp.CreatedBy != nil {
				uid = *insp.CreatedBy
			}
			if uid == opts.UserID {
				filtered[id] = insp
			}
		}
		inspections = filtered
	}

	rep := ExecutionReport{Eligible: len(assets)}
	if !opts.From.IsZero() {
		rep.From = opts.From.Format("2006-01-02")
	}
	if !opts.To.IsZero() {
		rep.To = opts.To.Format("2006-01-02")
	}

	var inspected []*model.Inspection
	weekAgo := opts.Now.AddDate(0, 0, -7)
	today := DayKey(opts.Now)
	todayCount := 0
	for i := range assets {
		a := &assets[i]
		insp := inspections[a.ID]
		if insp == nil {
			continue
		}
		inspected = append(inspected, insp)
		rep.Inspected++
		if insp.UpdatedAt.After(weekAgo) {
			rep.Last7Days++
		}
		if DayKey(insp.UpdatedAt) == today {
			todayCount++
		}
		switch recon.Classify(recon.Reconcile(a, insp)) {
		case recon.ClassNotFound:
			rep.Mix.NotFound++
		case recon.ClassDivergent:
			rep.Mix.Divergent++
		default:
			rep.Mix.OK++
		}
		if insp.PhotoMime == "" {
			rep.Mix.NoPhoto++
		}
		if insp.Status == model.InspectionFound && !insp.TagPresent {
			rep.Mix.TagAbsent++
		}
	}
	rep.Coverage = Coverage(rep.Inspected, rep.Eligible)
	rep.Daily = Series(inspected, DayKey)
	rep.Weekly = Series(inspected, WeekKey)
	rep.Monthly = Series(inspected, MonthKey)
	rep.Inspectors = ByInspector(assets, inspections, usernames)

	pendingByBuilding := make(map[string]int)
	for _, b := range GroupBy(assets, inspections, BuildingOf) {
		pendingByBuilding[b.Label] = b.Pending
	}
	rep.TopBuildingsPending = TopN(pendingByBuilding, 10)

	rep.Pacing = pacing(rep.Eligible, rep.Inspected, todayCount, opts)
	return rep
}

func pacing(eligible, inspected, today int, opts ExecutionOptions) Pacing {
	p := Pacing{Remaining: eligible - inspected, Today: today, DailyGoal: opts.DailyGoal}

	start := opts.From
	if start.IsZero() || start.After(opts.Now) {
		start = opts.Now
	}
	end := opts.Now
	if !opts.To.IsZero() && opts.To.Before(end) {
		end = opts.To
	}
	p.ElapsedDays = int(end.Sub(start).Hours()/24) + 1
	if p.ElapsedDays < 1 {
		p.ElapsedDays = 1
	}
	p.PerDay = math.Round(float64(inspected)/float64(p.ElapsedDays)*10) / 10

	if p.PerDay > 0 && p.Remaining > 0 {
		p.DaysToFinish = int(math.Ceil(float64(p.Remaining) / p.PerDay))
		projected := opts.Now.AddDate(0, 0, p.DaysToFinish)
		p.ProjectedEnd = projected.Format("2006-01-02")
		if !opts.To.IsZero() {
			onTrack := !projected.After(opts.To)
			p.OnTrack = &onTrack
		}
	}
	if opts.DailyGoal > 0 {
		p.GoalPct = math.Round(float64(today)/float64(opts.DailyGoal)*1000) / 10
	}
	return p
}
