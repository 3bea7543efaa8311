package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dnldd/kumo/shared"
	"github.com/google/uuid"
	rqlitehttp "github.com/rqlite/rqlite-go-http"
	"github.com/rs/zerolog"
)

const (
	// SQL statements.
	createAnalysisTableSQL   = "CREATE TABLE IF NOT EXISTS analysis (id TEXT PRIMARY KEY, market TEXT, aligned INTEGER, dominanttrend TEXT, alignmentscore REAL, overallstrength REAL, recommendation TEXT, conflictwarning TEXT, createdon INTEGER)"
	createSignalTableSQL     = "CREATE TABLE IF NOT EXISTS signal (id TEXT PRIMARY KEY, analysisid TEXT, market TEXT, timeframe TEXT, signal TEXT, grade TEXT, cloudstatus TEXT, tkcross TEXT, chikoustatus TEXT, price REAL, rsi REAL, strength REAL, createdon INTEGER)"
	createGradeStatsTableSQL = "CREATE TABLE IF NOT EXISTS gradestats (id TEXT PRIMARY KEY, market TEXT, grade TEXT, total INTEGER, long INTEGER, short INTEGER, createdon INTEGER)"
	persistAnalysisSQL       = "INSERT INTO analysis(id, market, aligned, dominanttrend, alignmentscore, overallstrength, recommendation, conflictwarning, createdon) VALUES(?,?,?,?,?,?,?,?,?)"
	persistSignalSQL         = "INSERT INTO signal(id, analysisid, market, timeframe, signal, grade, cloudstatus, tkcross, chikoustatus, price, rsi, strength, createdon) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)"
	upsertGradeStatsSQL      = "INSERT INTO gradestats(id, market, grade, total, long, short, createdon) VALUES(?,?,?,1,?,?,?) ON CONFLICT(id) DO UPDATE SET total = total + 1, long = long + excluded.long, short = short + excluded.short"
	findGradeStatsSQL        = "SELECT market, grade, total, long, short FROM gradestats WHERE market = ? ORDER BY grade"
)

// DatabaseConfig is the configuration for the database.
type DatabaseConfig struct {
	// Endpoint represents the database connection endpoint.
	Endpoint string
	// User is the database user.
	User string
	// Pass is the database user pass.
	Pass string
	// Logger is the database logger.
	Logger *zerolog.Logger
}

// Database represents the database connection.
type Database struct {
	cfg    *DatabaseConfig
	client *rqlitehttp.Client
}

// Ensure the database implements the SignalStorer interface.
var _ shared.SignalStorer = (*Database)(nil)

// NewDatabase initializes a new database connection.
func NewDatabase(ctx context.Context, cfg *DatabaseConfig) (*Database, error) {
	httpc := &http.Client{Timeout: time.Second * 5}
	client, err := rqlitehttp.NewClient(cfg.Endpoint, httpc)
	if err != nil {
		return nil, fmt.Errorf("creating database client: %w", err)
	}

	if cfg.User != "" {
		client.SetBasicAuth(cfg.User, cfg.Pass)
	}

	db := &Database{
		cfg:    cfg,
		client: client,
	}

	err = db.bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrapping database: %w", err)
	}

	return db, nil
}

// execute runs the provided statements in a single transaction.
func (db *Database) execute(ctx context.Context, statements rqlitehttp.SQLStatements) error {
	resp, err := db.client.Execute(ctx, statements, &rqlitehttp.ExecuteOptions{
		Transaction: true,
		Timings:     true,
	})
	if err != nil {
		return err
	}

	has, idx, errStr := resp.HasError()
	if has {
		return fmt.Errorf("statement %d: %s", idx, errStr)
	}

	return nil
}

// bootstrap initializes the database.
func (db *Database) bootstrap(ctx context.Context) error {
	return db.execute(ctx, rqlitehttp.SQLStatements{
		{SQL: createAnalysisTableSQL},
		{SQL: createSignalTableSQL},
		{SQL: createGradeStatsTableSQL},
	})
}

// generateGradeStatsID generates deterministic ids for grade stats using the market and grade.
func generateGradeStatsID(market string, grade shared.Grade) string {
	return fmt.Sprintf("%s-Grade-%s", market, grade.String())
}

// optional returns the value of the provided optional float, nil if unset.
func optional(value *float64) any {
	if value == nil {
		return nil
	}

	return *value
}

// analysisStatements creates the statements persisting the provided analysis, its signals and
// the grade stats updates of its directional signals.
func analysisStatements(analysis *shared.MultiTimeframeAnalysis, logger *zerolog.Logger) rqlitehttp.SQLStatements {
	var warning any
	if analysis.ConflictWarning != nil {
		warning = *analysis.ConflictWarning
	}

	var aligned int
	if analysis.Alignment.Aligned {
		aligned = 1
	}

	statements := rqlitehttp.SQLStatements{
		{
			SQL: persistAnalysisSQL,
			PositionalParams: []any{analysis.ID, analysis.Market, aligned,
				analysis.Alignment.DominantTrend.String(), analysis.Alignment.AlignmentScore,
				analysis.OverallStrength, analysis.Recommendation.String(), warning,
				analysis.CreatedOn.Unix()},
		},
	}

	for _, timeframe := range shared.Timeframes {
		signal := analysis.Signal(timeframe)
		if signal == nil {
			continue
		}

		statements = append(statements, rqlitehttp.SQLStatements{{
			SQL: persistSignalSQL,
			PositionalParams: []any{uuid.New().String(), analysis.ID, signal.Market,
				timeframe.String(), signal.Signal.String(), signal.Grade.String(),
				signal.CloudStatus.String(), signal.TKCross.String(), signal.ChikouStatus.String(),
				signal.CurrentPrice, signal.RSI, optional(signal.SignalStrength),
				signal.CreatedOn.Unix()},
		}}...)

		var long, short int
		switch signal.Signal {
		case shared.LongSignal:
			long = 1
		case shared.ShortSignal:
			short = 1
		case shared.Neutral:
			continue
		default:
			logger.Error().Msgf("unexpected signal state for grade stats: %s", spew.Sdump(signal))
			continue
		}

		statements = append(statements, rqlitehttp.SQLStatements{{
			SQL: upsertGradeStatsSQL,
			PositionalParams: []any{generateGradeStatsID(signal.Market, signal.Grade), signal.Market,
				signal.Grade.String(), long, short, signal.CreatedOn.Unix()},
		}}...)
	}

	return statements
}

// PersistAnalysis stores the provided analysis and its non-nil timeframe signals.
func (db *Database) PersistAnalysis(ctx context.Context, analysis *shared.MultiTimeframeAnalysis) error {
	err := db.execute(ctx, analysisStatements(analysis, db.cfg.Logger))
	if err != nil {
		return fmt.Errorf("persisting analysis %s for %s: %w", analysis.ID, analysis.Market, err)
	}

	return nil
}

// toInt converts a decoded numeric column value to an int.
func toInt(value any) (int, error) {
	switch v := value.(type) {
	case float64:
		return int(v), nil
	case int64:
		return int(v), nil
	case int:
		return v, nil
	case json.Number:
		n, err := v.Int64()
		return int(n), err
	default:
		return 0, fmt.Errorf("unexpected numeric value %v (%T)", value, value)
	}
}

// parseGrade parses the stringified grade.
func parseGrade(value any) (shared.Grade, error) {
	str, ok := value.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected grade value %v (%T)", value, value)
	}

	for _, grade := range []shared.Grade{shared.GradeA, shared.GradeB, shared.GradeC} {
		if grade.String() == str {
			return grade, nil
		}
	}

	return 0, fmt.Errorf("unknown grade %s", str)
}

// parseGradeStats converts the provided query rows, ordered as market, grade, total, long and
// short, into grade stats.
func parseGradeStats(values [][]any) ([]shared.GradeStats, error) {
	stats := make([]shared.GradeStats, 0, len(values))
	for idx := range values {
		row := values[idx]
		if len(row) != 5 {
			return nil, fmt.Errorf("row %d: expected 5 columns, got %d", idx, len(row))
		}

		market, ok := row[0].(string)
		if !ok {
			return nil, fmt.Errorf("row %d: unexpected market value %v", idx, row[0])
		}

		grade, err := parseGrade(row[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", idx, err)
		}

		var errs error
		total, err := toInt(row[2])
		errs = errors.Join(errs, err)
		long, err := toInt(row[3])
		errs = errors.Join(errs, err)
		short, err := toInt(row[4])
		errs = errors.Join(errs, err)
		if errs != nil {
			return nil, fmt.Errorf("row %d: %w", idx, errs)
		}

		stats = append(stats, shared.GradeStats{
			Market: market,
			Grade:  grade,
			Total:  total,
			Long:   long,
			Short:  short,
		})
	}

	return stats, nil
}

// FetchGradeStats returns the historical per-grade stats of the provided market.
func (db *Database) FetchGradeStats(ctx context.Context, market string) ([]shared.GradeStats, error) {
	resp, err := db.client.QuerySingle(ctx, findGradeStatsSQL, market)
	if err != nil {
		return nil, fmt.Errorf("querying grade stats for %s: %w", market, err)
	}

	var stats []shared.GradeStats
	for _, result := range resp.GetQueryResults() {
		if result.Error != "" {
			return nil, fmt.Errorf("querying grade stats for %s: %s", market, result.Error)
		}

		rows, err := parseGradeStats(result.Values)
		if err != nil {
			return nil, fmt.Errorf("parsing grade stats for %s: %w", market, err)
		}

		stats = append(stats, rows...)
	}

	return stats, nil
}
