package bootstrap

import "fmt"

// Migration keys stored in system_init_status
const (
	// KeyCollationFix marks the column collation normalization
	KeyCollationFix = "alert_table_executed"

	// KeyResultTables marks creation of the merge and performance result tables
	KeyResultTables = "strategy_result_tables"
)

// column widths shared by every stage output table
var (
	codeColumn = column{"code", 6}
	nameColumn = column{"name", 20}
)

// industry and concept fund flow tables carry names only
var fundFlowSectorColumns = []column{nameColumn, {"stock_name", 20}, {"stock_name_5", 20}, {"stock_name_10", 20}}

type column struct {
	name  string
	width int
}

// collationTables lists the stage output tables and the text columns to normalize
var collationTables = []struct {
	table   string
	columns []column
}{
	{"cn_stock_spot", []column{codeColumn, nameColumn, {"industry", 20}}},
	{"cn_etf_spot", []column{codeColumn, nameColumn}},
	{"cn_stock_selection", []column{
		codeColumn, nameColumn, {"industry", 20}, {"area", 20}, {"concept", 255}, {"style", 255},
		{"is_hs300", 2}, {"is_sz50", 2}, {"is_zz500", 2}, {"is_zz1000", 2}, {"is_cy50", 2},
		{"predict_type", 10}, {"org_rating", 10}, {"secucode", 10},
	}},
	{"cn_stock_top", []column{codeColumn, nameColumn}},
	{"cn_stock_spot_buy", []column{codeColumn, nameColumn, {"industry", 20}}},
	{"cn_stock_bonus", []column{codeColumn, nameColumn, {"progress", 50}}},
	{"cn_stock_fund_flow", []column{codeColumn, nameColumn}},
	{"cn_stock_fund_flow_industry", fundFlowSectorColumns},
	{"cn_stock_fund_flow_concept", fundFlowSectorColumns},
	{"cn_stock_strategy_keep_increasing", []column{codeColumn, nameColumn}},
	{"cn_stock_strategy_backtrace_ma250", []column{codeColumn, nameColumn}},
	{"cn_stock_strategy_breakthrough_platform", []column{codeColumn, nameColumn}},
	{"cn_stock_strategy_turtle_trade", []column{codeColumn, nameColumn}},
	{"cn_stock_strategy_parking_apron", []column{codeColumn, nameColumn}},
	{"cn_stock_strategy_high_tight_flag", []column{codeColumn, nameColumn}},
	{"cn_stock_strategy_enter", []column{codeColumn, nameColumn}},
	{"cn_stock_pattern", []column{codeColumn, nameColumn}},
	{"cn_stock_indicators", []column{codeColumn, nameColumn}},
	{"cn_stock_indicators_buy", []column{codeColumn, nameColumn}},
	{"cn_stock_blocktrade", []column{codeColumn, nameColumn}},
}

// DefaultMigrations returns the registered one-time migrations in order
func DefaultMigrations() []Migration {
	return []Migration{
		{Key: KeyCollationFix, Statements: collationStatements()},
		{Key: KeyResultTables, Statements: resultTableStatements},
	}
}

// collationStatements normalizes text columns to the "C" collation.
// Tables created later by the data stages are skipped by IF EXISTS.
func collationStatements() []string {
	stmts := make([]string, 0, 80)
	for _, t := range collationTables {
		for _, c := range t.columns {
			stmts = append(stmts, fmt.Sprintf(
				`ALTER TABLE IF EXISTS %s ALTER COLUMN %s TYPE varchar(%d) COLLATE "C"`,
				t.table, c.name, c.width,
			))
		}
	}
	return stmts
}

// baseTableStatements create the tables every later stage relies on
var baseTableStatements = []string{
	`CREATE TABLE IF NOT EXISTS cn_stock_attention (
		datetime timestamp NULL,
		code varchar(6) NOT NULL PRIMARY KEY
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cn_stock_attention_datetime ON cn_stock_attention (datetime)`,
	`CREATE TABLE IF NOT EXISTS system_init_status (
		"key" varchar(50) NOT NULL PRIMARY KEY,
		status boolean NOT NULL DEFAULT false,
		updated_at timestamptz NOT NULL DEFAULT NOW()
	)`,
}

var resultTableStatements = []string{
	`CREATE TABLE IF NOT EXISTS cn_stock_strategy_consensus (
		date date NOT NULL,
		code varchar(6) COLLATE "C" NOT NULL,
		name varchar(20) COLLATE "C" NOT NULL DEFAULT '',
		rank integer NOT NULL,
		hit_count integer NOT NULL,
		strategies text[] NOT NULL,
		score double precision NULL,
		created_at timestamptz NOT NULL DEFAULT NOW(),
		PRIMARY KEY (date, code)
	)`,
	`CREATE TABLE IF NOT EXISTS cn_stock_strategy_performance (
		date date NOT NULL,
		code varchar(6) COLLATE "C" NOT NULL,
		name varchar(20) COLLATE "C" NOT NULL DEFAULT '',
		strategies text[] NOT NULL,
		prev_close numeric(12, 3) NOT NULL,
		close numeric(12, 3) NOT NULL,
		price_change numeric(12, 3) NOT NULL,
		change_rate numeric(8, 2) NOT NULL,
		created_at timestamptz NOT NULL DEFAULT NOW(),
		PRIMARY KEY (date, code)
	)`,
}
