//-------------------------------------------------------------------------
//
// mallflow
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package schema holds the canonical table and column names of the mall
// data model.
package schema

// Logical table names.
const (
	DimBlocks       = "dim_blocks"
	DimMalls        = "dim_malls"
	FactStores      = "fact_stores"
	FactMalls       = "fact_malls"
	FactSRIScores   = "fact_sri_scores"
	StoreFinancials = "store_financials"
	CrossVisits     = "cross_visits"
)

// Tables lists every raw table in processing order.
var Tables = []string{
	DimBlocks,
	DimMalls,
	FactStores,
	FactMalls,
	FactSRIScores,
	StoreFinancials,
	CrossVisits,
}

// dim_blocks
const (
	MallID       = "mall_id"
	BlockID      = "block_id"
	BlockType    = "block_type"
	StoreCode    = "store_code"
	StoreName    = "store_name"
	RetailerCode = "retailer_code"
	CatHigh      = "bl1_label"
	CatMid       = "bl2_label"
	CatLow       = "bl3_label"
	GLA          = "gla"
	GLACategory  = "gla_category"
)

// dim_malls
const (
	ID          = "id"
	Country     = "country"
	MallName    = "mall_name"
	OpeningHour = "opening_hour"
	ClosingHour = "closing_hour"
)

// fact_stores and fact_malls
const (
	Date                 = "date"
	RetailerID           = "retailer_id"
	PeopleIn             = "people_in"
	PeopleWindowFlow     = "people_window_flow"
	StoreAvgDwellTime    = "store_average_dwell_time"
	StoreMedDwellTime    = "store_median_dwell_time"
	ShoppingAvgDwellTime = "shopping_average_dwell_time"
	AvgVisitedStores     = "average_visited_stores"
	AvgDwellTime         = "average_dwell_time"
	DwellTimeSample      = "dwell_time_sample"
	MedDwellTime         = "median_dwell_time"
)

// fact_sri_scores and store_financials
const (
	SRIScore       = "sri_score"
	Codstr         = "codstr"
	CurrencyCode   = "cur_code"
	SalesR12M      = "sales_r12m"
	TotalCostsR12M = "total_costs_r12m"
)

// cross_visits
const (
	StoreCode1       = "store_code_1"
	StoreCode2       = "store_code_2"
	TotalCrossVisits = "total_cross_visits"
)

// Role suffixes for the two sides of a cross-visit pair.
const (
	SuffixStore1 = "_1"
	SuffixStore2 = "_2"
)

// Columns maps each table to its canonical, ordered column names. Raw
// columns are renamed to these by position.
var Columns = map[string][]string{
	DimBlocks: {
		MallID, BlockID, BlockType, StoreCode, StoreName, RetailerCode,
		CatHigh, CatMid, CatLow, GLA, GLACategory,
	},
	DimMalls: {
		ID, Country, MallName, OpeningHour, ClosingHour,
	},
	FactStores: {
		Date, MallID, BlockID, StoreCode, RetailerID, PeopleIn,
		PeopleWindowFlow, StoreAvgDwellTime, StoreMedDwellTime,
		ShoppingAvgDwellTime, AvgVisitedStores,
	},
	FactMalls: {
		Date, MallID, PeopleIn, AvgDwellTime, DwellTimeSample, MedDwellTime,
	},
	FactSRIScores: {
		StoreCode, SRIScore,
	},
	StoreFinancials: {
		Codstr, CurrencyCode, SalesR12M, TotalCostsR12M,
	},
	CrossVisits: {
		StoreCode1, StoreCode2, TotalCrossVisits,
	},
}

// Types maps each table to the declared types of its non-string columns.
var Types = map[string]map[string]string{
	DimBlocks: {
		GLA: "float",
	},
	FactStores: {
		Date:                 "date",
		PeopleIn:             "integer",
		PeopleWindowFlow:     "integer",
		StoreAvgDwellTime:    "float",
		StoreMedDwellTime:    "float",
		ShoppingAvgDwellTime: "float",
		AvgVisitedStores:     "float",
	},
	FactMalls: {
		Date:            "date",
		PeopleIn:        "integer",
		AvgDwellTime:    "float",
		DwellTimeSample: "integer",
		MedDwellTime:    "float",
	},
	FactSRIScores: {
		SRIScore: "float",
	},
	StoreFinancials: {
		SalesR12M:      "float",
		TotalCostsR12M: "float",
	},
	CrossVisits: {
		TotalCrossVisits: "integer",
	},
}

// EnrichmentColumns is the dim_blocks projection attached to each side of a
// cross-visit pair. The store code comes first and is the join key.
var EnrichmentColumns = []string{
	StoreCode, MallID, RetailerCode, CatHigh, CatMid, CatLow,
}
