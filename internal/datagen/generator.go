//-------------------------------------------------------------------------
//
// mallflow
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/mallflow/mallflow/internal/config"
	"github.com/mallflow/mallflow/internal/pipeline"
	"github.com/mallflow/mallflow/internal/schema"
	"github.com/mallflow/mallflow/internal/table"
)

// RawHeaders are the source system column names written to raw files. They
// map to the canonical names by position only.
var RawHeaders = map[string][]string{
	schema.DimBlocks: {
		"MALL", "BLOCK", "TYPE_BLOCK", "CODE_MAGASIN", "NOM_MAGASIN", "CODE_ENSEIGNE",
		"SECTEUR_1", "SECTEUR_2", "SECTEUR_3", "SURFACE_GLA", "CATEGORIE_GLA",
	},
	schema.DimMalls: {
		"ID_CENTRE", "PAYS", "NOM_CENTRE", "OUVERTURE", "FERMETURE",
	},
	schema.FactStores: {
		"JOUR", "MALL", "BLOCK", "CODE_MAGASIN", "ID_ENSEIGNE", "ENTREES", "FLUX_VITRINE",
		"DUREE_MOY_MAGASIN", "DUREE_MED_MAGASIN", "DUREE_MOY_VISITE", "NB_MAGASINS_VISITES",
	},
	schema.FactMalls: {
		"JOUR", "MALL", "ENTREES", "DUREE_MOY", "ECHANTILLON_DUREE", "DUREE_MED",
	},
	schema.FactSRIScores: {
		"CODE_MAGASIN", "SCORE_SRI",
	},
	schema.StoreFinancials: {
		"CODSTR", "DEVISE", "CA_R12M", "COUTS_R12M",
	},
	schema.CrossVisits: {
		"MAGASIN_A", "MAGASIN_B", "VISITES_CROISEES",
	},
}

// sampleStart is the first day of generated time series.
var sampleStart = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// missingRate is the share of measurement cells written as NA.
const missingRate = 0.01

// progressInterval is how often to log progress (in rows).
const progressInterval = 10000

type category struct {
	high, mid, low string
}

var taxonomy = []category{
	{"Fashion", "Women", "Dresses"},
	{"Fashion", "Women", "Shoes"},
	{"Fashion", "Men", "Suits"},
	{"Fashion", "Kids", "Clothing"},
	{"Food", "Restaurant", "Burgers"},
	{"Food", "Restaurant", "Sushi"},
	{"Food", "Café", "Coffee"},
	{"Leisure", "Cinema", "Multiplex"},
	{"Leisure", "Sport", "Fitness"},
	{"Services", "Beauty", "Hair"},
	{"Services", "Health", "Pharmacy"},
	{"Home", "Decoration", "Furniture"},
}

var blockTypes = []string{"anchor", "shop", "kiosk", "food court"}
var blockTypeWeights = []int{1, 12, 3, 2}

var mallSuffixes = []string{"Shopping Centre", "Galerías", "Einkaufszentrum", "Centre Commercial"}

type store struct {
	mall     string
	block    string
	code     string
	name     string
	retailer string
	cat      category
	gla      float64
}

type mall struct {
	id       string
	country  string
	name     string
	currency string
	stores   []store
}

// Generator writes synthetic raw exports for every table.
type Generator struct {
	cfg     *config.Config
	f       *Faker
	log     zerolog.Logger
	profile FootfallProfile
	malls   []mall
}

// NewGenerator creates a generator seeded from the sample configuration.
func NewGenerator(cfg *config.Config, log zerolog.Logger) *Generator {
	return &Generator{
		cfg: cfg,
		f:   NewFakerWithSeed(cfg.Sample.Seed),
		log: log.With().Str("stage", pipeline.StageSample).Logger(),
	}
}

// Generate writes all seven raw files in processing order.
func (g *Generator) Generate(ctx context.Context) (*pipeline.Summary, error) {
	profile, err := GetProfile(g.cfg.Sample.Profile)
	if err != nil {
		return &pipeline.Summary{}, err
	}
	g.profile = profile
	g.buildMalls()

	builders := map[string]func(*rawBuilder){
		schema.DimBlocks:       g.dimBlocks,
		schema.DimMalls:        g.dimMalls,
		schema.FactStores:      g.factStores,
		schema.FactMalls:       g.factMalls,
		schema.FactSRIScores:   g.sriScores,
		schema.StoreFinancials: g.financials,
		schema.CrossVisits:     g.crossVisits,
	}

	summary := &pipeline.Summary{}
	for _, name := range schema.Tables {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		start := time.Now()

		b := g.newBuilder(name)
		builders[name](b)
		b.progress.Done()

		tc, err := g.cfg.Table(name)
		if err != nil {
			return summary, err
		}
		path := g.cfg.Path(tc.Raw)
		if err := table.WriteCSV(path, b.t, g.cfg.RawDialect()); err != nil {
			return summary, fmt.Errorf("failed to write raw table %s to %s: %w", name, path, err)
		}
		g.log.Info().Str("table", name).Str("path", path).Int("rows", b.t.Len()).Msg("Wrote raw table")

		summary.Add(pipeline.Result{
			Stage:    pipeline.StageSample,
			Table:    name,
			Path:     path,
			RowsIn:   b.t.Len(),
			RowsOut:  b.t.Len(),
			Duration: time.Since(start),
		})
	}
	return summary, nil
}

func (g *Generator) buildMalls() {
	s := g.cfg.Sample
	g.malls = make([]mall, s.Malls)
	for i := range g.malls {
		m := mall{
			id:      fmt.Sprintf("M%03d", i+1),
			country: g.f.CountryCode(),
		}
		m.name = g.f.City() + " " + Choose(g.f, mallSuffixes)
		m.currency = Choose(g.f, []string{"EUR", "EUR", "GBP", "PLN", "CZK"})

		for j := 0; j < s.StoresPerMall; j++ {
			st := store{
				mall:     m.id,
				block:    fmt.Sprintf("%s-B%03d", m.id, j+1),
				code:     fmt.Sprintf("%s-S%03d", m.id, j+1),
				name:     g.f.Company(),
				retailer: fmt.Sprintf("R%04d", g.f.Int(1, 9999)),
				cat:      Choose(g.f, taxonomy),
				gla:      g.f.Float64(15, 4000),
			}
			m.stores = append(m.stores, st)
		}
		g.malls[i] = m
	}
}

// rawBuilder accumulates the rows of one raw table and injects exact
// duplicates at the configured rate. The first row is always duplicated
// when the rate is positive.
type rawBuilder struct {
	g        *Generator
	t        *table.Table
	progress *ProgressReporter
}

func (g *Generator) newBuilder(name string) *rawBuilder {
	return &rawBuilder{
		g:        g,
		t:        table.New(name, RawHeaders[name], nil),
		progress: NewProgressReporter(g.log, name, progressInterval),
	}
}

func (b *rawBuilder) emit(cells ...string) {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = table.StringValue(c)
	}
	copies := 1
	rate := b.g.cfg.Sample.DuplicateRate
	if rate > 0 && (b.t.Len() == 0 || b.g.f.Chance(rate)) {
		copies = 2
	}
	for i := 0; i < copies; i++ {
		b.t.Rows = append(b.t.Rows, row)
	}
	b.progress.Update(int64(copies))
}

func glaCategory(gla float64) string {
	switch {
	case gla < 100:
		return "S"
	case gla < 500:
		return "M"
	case gla < 1500:
		return "L"
	default:
		return "XL"
	}
}

func (g *Generator) dimBlocks(b *rawBuilder) {
	rate := g.cfg.Sample.DuplicateRate
	for mi, m := range g.malls {
		for si, st := range m.stores {
			b.emit(st.mall, st.block, ChooseWeighted(g.f, blockTypes, blockTypeWeights), st.code, st.name,
				st.retailer, st.cat.high, st.cat.mid, st.cat.low, FormatFloat(st.gla, 1), glaCategory(st.gla))

			// A store occupying a second block repeats its store code.
			if rate > 0 && ((mi == 0 && si == 0) || g.f.Chance(rate)) {
				extra := g.f.Float64(15, 300)
				b.emit(st.mall, st.block+"X", "shop", st.code, st.name,
					st.retailer, st.cat.high, st.cat.mid, st.cat.low, FormatFloat(extra, 1), glaCategory(extra))
			}
		}
	}
}

func (g *Generator) dimMalls(b *rawBuilder) {
	for _, m := range g.malls {
		open := g.f.Int(8, 10)
		b.emit(m.id, m.country, m.name, fmt.Sprintf("%02d:00", open), fmt.Sprintf("%02d:00", open+g.f.Int(10, 12)))
	}
}

func (g *Generator) factStores(b *rawBuilder) {
	for d := 0; d < g.cfg.Sample.Days; d++ {
		date := sampleStart.AddDate(0, 0, d)
		day := date.Format(g.cfg.CSV.DateFormat)
		level := g.profile.ActivityLevel(date)
		for _, m := range g.malls {
			for _, st := range m.stores {
				peopleIn := scaleTraffic(g.f.Int(0, 3000), level)
				avgDwell := g.f.Float64(1, 45)
				b.emit(day, st.mall, st.block, st.code, st.retailer,
					strconv.Itoa(peopleIn),
					strconv.Itoa(peopleIn*g.f.Int(3, 12)),
					g.f.Nullable(FormatFloat(avgDwell, 2), missingRate),
					g.f.Nullable(FormatFloat(avgDwell*g.f.Float64(0.6, 1), 2), missingRate),
					g.f.Nullable(FormatFloat(g.f.Float64(30, 240), 2), missingRate),
					g.f.Nullable(FormatFloat(g.f.Float64(1, 8), 2), missingRate),
				)
			}
		}
	}
}

func (g *Generator) factMalls(b *rawBuilder) {
	for d := 0; d < g.cfg.Sample.Days; d++ {
		date := sampleStart.AddDate(0, 0, d)
		day := date.Format(g.cfg.CSV.DateFormat)
		level := g.profile.ActivityLevel(date)
		for _, m := range g.malls {
			avg := g.f.Float64(40, 180)
			b.emit(day, m.id,
				strconv.Itoa(scaleTraffic(g.f.Int(5000, 60000), level)),
				g.f.Nullable(FormatFloat(avg, 2), missingRate),
				strconv.Itoa(g.f.Int(100, 2000)),
				g.f.Nullable(FormatFloat(avg*g.f.Float64(0.7, 1), 2), missingRate),
			)
		}
	}
}

// scaleTraffic applies a footfall activity level to a visitor count.
func scaleTraffic(n int, level float64) int {
	return int(math.Round(float64(n) * level))
}

func (g *Generator) sriScores(b *rawBuilder) {
	for _, m := range g.malls {
		for _, st := range m.stores {
			b.emit(st.code, g.f.Nullable(FormatFloat(g.f.Float64(0, 1), 3), missingRate))
		}
	}
}

func (g *Generator) financials(b *rawBuilder) {
	for _, m := range g.malls {
		for _, st := range m.stores {
			sales := g.f.Float64(50000, 20000000)
			b.emit(st.code, m.currency, FormatFloat(sales, 2), FormatFloat(sales*g.f.Float64(0.5, 1.1), 2))
		}
	}
}

// crossVisits pairs stores of the same mall. At the configured rate a pair
// names stores missing from the block dimension: either both sides, so the
// row is dropped by enrichment, or the second side only. The first such
// pair always has both sides unknown.
func (g *Generator) crossVisits(b *rawBuilder) {
	rate := g.cfg.Sample.UnknownPairRate
	unknown := 0
	unknownCode := func() string {
		unknown++
		return fmt.Sprintf("UNK-S%04d", unknown)
	}

	for _, m := range g.malls {
		pairs := len(m.stores) * 2
		for k := 0; k < pairs; k++ {
			i := g.f.Int(0, len(m.stores)-1)
			j := g.f.Int(0, len(m.stores)-2)
			if j >= i {
				j++
			}
			s1, s2 := m.stores[i].code, m.stores[j].code

			if rate > 0 && (unknown == 0 || g.f.Chance(rate)) {
				if unknown == 0 || g.f.Chance(0.5) {
					s1 = unknownCode()
				}
				s2 = unknownCode()
			}
			b.emit(s1, s2, strconv.Itoa(g.f.Int(1, 500)))
		}
	}
}

// ProgressReporter tracks and reports data generation progress.
type ProgressReporter struct {
	log              zerolog.Logger
	tableName        string
	currentRow       int64
	progressInterval int64
}

// NewProgressReporter creates a new progress reporter.
func NewProgressReporter(log zerolog.Logger, tableName string, interval int64) *ProgressReporter {
	return &ProgressReporter{
		log:              log,
		tableName:        tableName,
		progressInterval: interval,
	}
}

// Update updates the progress and logs if necessary.
func (p *ProgressReporter) Update(rows int64) {
	oldRow := p.currentRow
	p.currentRow += rows

	// Check if we crossed a progress interval
	if p.currentRow/p.progressInterval > oldRow/p.progressInterval {
		p.log.Debug().
			Str("table", p.tableName).
			Int64("rows", p.currentRow).
			Msg("Generating data")
	}
}

// Rows returns the number of rows reported so far.
func (p *ProgressReporter) Rows() int64 {
	return p.currentRow
}

// Done logs completion.
func (p *ProgressReporter) Done() {
	p.log.Debug().
		Str("table", p.tableName).
		Int64("rows", p.currentRow).
		Msg("Table complete")
}
