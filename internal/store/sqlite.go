package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"oshan/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ StockStore = (*SQLiteStore)(nil)
var _ NewsStore = (*SQLiteStore)(nil)
var _ ThemeStore = (*SQLiteStore)(nil)
var _ ProfileStore = (*SQLiteStore)(nil)
var _ InsightStore = (*SQLiteStore)(nil)

// SQLiteStore implements all store interfaces backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS stocks (
	sid TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	symbol TEXT NOT NULL,
	exchange TEXT NOT NULL,
	sector TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	gic_sector TEXT NOT NULL DEFAULT '',
	gic_industry TEXT NOT NULL DEFAULT '',
	gic_sub_industry TEXT NOT NULL DEFAULT '',
	current_price REAL NOT NULL DEFAULT 0,
	previous_close REAL NOT NULL DEFAULT 0,
	market_cap REAL NOT NULL DEFAULT 0,
	pe_ratio REAL NOT NULL DEFAULT 0,
	roe REAL NOT NULL DEFAULT 0,
	eps REAL NOT NULL DEFAULT 0,
	revenue REAL NOT NULL DEFAULT 0,
	profit REAL NOT NULL DEFAULT 0,
	promoter_holding REAL NOT NULL DEFAULT 0,
	institutional_holding REAL NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_stocks_symbol ON stocks(symbol);

CREATE TABLE IF NOT EXISTS news (
	sid TEXT PRIMARY KEY,
	news_date INTEGER NOT NULL,
	headline TEXT NOT NULL,
	summary TEXT NOT NULL,
	ai_summary TEXT NOT NULL DEFAULT '',
	publisher TEXT NOT NULL,
	tag TEXT NOT NULL,
	sentiment TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_news_date ON news(news_date DESC);

CREATE TABLE IF NOT EXISTS themes (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	stocks TEXT NOT NULL DEFAULT '[]',
	performance REAL NOT NULL DEFAULT 0,
	trend TEXT NOT NULL DEFAULT 'stable',
	tags TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS profiles (
	user_id TEXT PRIMARY KEY,
	investing_style TEXT,
	sectors TEXT,
	pref_values TEXT,
	risk_tolerance TEXT,
	experience TEXT,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS insights (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	stock_sid TEXT NOT NULL,
	type TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	confidence REAL NOT NULL,
	ts INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_insights_stock ON insights(stock_sid);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies the
// schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// StockStore implementation
// ---------------------------------------------------------------------------

// UpsertStock inserts or replaces a stock by SID. CreatedAt is preserved on
// update.
func (s *SQLiteStore) UpsertStock(ctx context.Context, st *domain.Stock) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stocks (
			sid, name, symbol, exchange, sector, description,
			gic_sector, gic_industry, gic_sub_industry,
			current_price, previous_close, market_cap, pe_ratio, roe, eps,
			revenue, profit, promoter_holding, institutional_holding,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sid) DO UPDATE SET
			name = excluded.name,
			symbol = excluded.symbol,
			exchange = excluded.exchange,
			sector = excluded.sector,
			description = excluded.description,
			gic_sector = excluded.gic_sector,
			gic_industry = excluded.gic_industry,
			gic_sub_industry = excluded.gic_sub_industry,
			current_price = excluded.current_price,
			previous_close = excluded.previous_close,
			market_cap = excluded.market_cap,
			pe_ratio = excluded.pe_ratio,
			roe = excluded.roe,
			eps = excluded.eps,
			revenue = excluded.revenue,
			profit = excluded.profit,
			promoter_holding = excluded.promoter_holding,
			institutional_holding = excluded.institutional_holding,
			updated_at = excluded.updated_at`,
		st.SID, st.Name, st.Symbol, st.Exchange, st.Sector, st.Description,
		st.GIC.Sector, st.GIC.Industry, st.GIC.SubIndustry,
		st.CurrentPrice, st.PreviousClose, st.MarketCap, st.PERatio, st.ROE,
		st.EPS, st.Revenue, st.Profit, st.PromoterHolding, st.InstitutionalHolding,
		now.UnixMilli(), now.UnixMilli(),
	)
	return err
}

// GetStock retrieves a single stock by SID. Returns ErrNotFound when absent.
func (s *SQLiteStore) GetStock(ctx context.Context, sid string) (*domain.Stock, error) {
	row := s.db.QueryRowContext(ctx, stockSelect+` WHERE sid = ?`, sid)
	st, err := scanStock(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return st, err
}

// ListStocks returns all stocks ordered by symbol.
func (s *SQLiteStore) ListStocks(ctx context.Context) ([]domain.Stock, error) {
	rows, err := s.db.QueryContext(ctx, stockSelect+` ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stocks []domain.Stock
	for rows.Next() {
		st, err := scanStock(rows)
		if err != nil {
			return nil, err
		}
		stocks = append(stocks, *st)
	}
	return stocks, rows.Err()
}

// UpdatePrices sets the current and previous-close prices for all stocks with
// the given symbol.
func (s *SQLiteStore) UpdatePrices(ctx context.Context, symbol string, current, previousClose float64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE stocks
		SET current_price = ?, previous_close = ?, updated_at = ?
		WHERE symbol = ?`,
		current, previousClose, time.Now().UTC().UnixMilli(), symbol,
	)
	return err
}

const stockSelect = `
	SELECT sid, name, symbol, exchange, sector, description,
	       gic_sector, gic_industry, gic_sub_industry,
	       current_price, previous_close, market_cap, pe_ratio, roe, eps,
	       revenue, profit, promoter_holding, institutional_holding,
	       created_at, updated_at
	FROM stocks`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStock(r rowScanner) (*domain.Stock, error) {
	var st domain.Stock
	var createdAt, updatedAt int64
	err := r.Scan(
		&st.SID, &st.Name, &st.Symbol, &st.Exchange, &st.Sector, &st.Description,
		&st.GIC.Sector, &st.GIC.Industry, &st.GIC.SubIndustry,
		&st.CurrentPrice, &st.PreviousClose, &st.MarketCap, &st.PERatio, &st.ROE,
		&st.EPS, &st.Revenue, &st.Profit, &st.PromoterHolding, &st.InstitutionalHolding,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	st.CreatedAt = time.UnixMilli(createdAt).UTC()
	st.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &st, nil
}

// ---------------------------------------------------------------------------
// NewsStore implementation
// ---------------------------------------------------------------------------

// UpsertNews inserts or replaces a news article by SID.
func (s *SQLiteStore) UpsertNews(ctx context.Context, a *domain.NewsArticle) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO news (sid, news_date, headline, summary, ai_summary, publisher, tag, sentiment)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sid) DO UPDATE SET
			news_date = excluded.news_date,
			headline = excluded.headline,
			summary = excluded.summary,
			ai_summary = excluded.ai_summary,
			publisher = excluded.publisher,
			tag = excluded.tag,
			sentiment = excluded.sentiment`,
		a.SID, a.Date.UnixMilli(), a.Headline, a.Summary, a.AISummary,
		a.Publisher, a.Tag, string(a.Sentiment),
	)
	return err
}

// ListNews returns all news articles, newest first.
func (s *SQLiteStore) ListNews(ctx context.Context) ([]domain.NewsArticle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sid, news_date, headline, summary, ai_summary, publisher, tag, sentiment
		FROM news ORDER BY news_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []domain.NewsArticle
	for rows.Next() {
		var a domain.NewsArticle
		var date int64
		var sentiment string
		if err := rows.Scan(&a.SID, &date, &a.Headline, &a.Summary, &a.AISummary,
			&a.Publisher, &a.Tag, &sentiment); err != nil {
			return nil, err
		}
		a.Date = time.UnixMilli(date).UTC()
		a.Sentiment = domain.Sentiment(sentiment)
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// ---------------------------------------------------------------------------
// ThemeStore implementation
// ---------------------------------------------------------------------------

// UpsertTheme inserts or replaces a theme by id.
func (s *SQLiteStore) UpsertTheme(ctx context.Context, t *domain.Theme) error {
	stocks, err := json.Marshal(t.Stocks)
	if err != nil {
		return err
	}
	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO themes (id, name, description, stocks, performance, trend, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			stocks = excluded.stocks,
			performance = excluded.performance,
			trend = excluded.trend,
			tags = excluded.tags`,
		t.ID, t.Name, t.Description, string(stocks), t.Performance, string(t.Trend), string(tags),
	)
	return err
}

// ListThemes returns themes in insertion order; limit 0 means no limit.
func (s *SQLiteStore) ListThemes(ctx context.Context, limit int) ([]domain.Theme, error) {
	return s.queryThemes(ctx, `ORDER BY rowid`, limit)
}

// ListThemesByPerformance returns themes ordered by performance descending.
func (s *SQLiteStore) ListThemesByPerformance(ctx context.Context, limit int) ([]domain.Theme, error) {
	return s.queryThemes(ctx, `ORDER BY performance DESC`, limit)
}

func (s *SQLiteStore) queryThemes(ctx context.Context, order string, limit int) ([]domain.Theme, error) {
	q := `SELECT id, name, description, stocks, performance, trend, tags FROM themes ` + order
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var themes []domain.Theme
	for rows.Next() {
		var t domain.Theme
		var stocks, trend, tags string
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &stocks, &t.Performance, &trend, &tags); err != nil {
			return nil, err
		}
		t.Trend = domain.Trend(trend)
		if err := json.Unmarshal([]byte(stocks), &t.Stocks); err != nil {
			return nil, fmt.Errorf("decoding stocks for theme %s: %w", t.ID, err)
		}
		if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
			return nil, fmt.Errorf("decoding tags for theme %s: %w", t.ID, err)
		}
		themes = append(themes, t)
	}
	return themes, rows.Err()
}

// ---------------------------------------------------------------------------
// ProfileStore implementation
// ---------------------------------------------------------------------------

// UpsertProfile merges the profile over any existing row in a single
// statement: NULL incoming fields keep the stored values. Reports whether a
// new record was created.
func (s *SQLiteStore) UpsertProfile(ctx context.Context, p *domain.UserProfile) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM profiles WHERE user_id = ?)`, p.UserID).Scan(&exists)
	if err != nil {
		return false, err
	}

	sectors, err := marshalNullable(p.Sectors)
	if err != nil {
		return false, err
	}
	values, err := marshalNullable(p.Values)
	if err != nil {
		return false, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, investing_style, sectors, pref_values, risk_tolerance, experience, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			investing_style = COALESCE(excluded.investing_style, profiles.investing_style),
			sectors = COALESCE(excluded.sectors, profiles.sectors),
			pref_values = COALESCE(excluded.pref_values, profiles.pref_values),
			risk_tolerance = COALESCE(excluded.risk_tolerance, profiles.risk_tolerance),
			experience = COALESCE(excluded.experience, profiles.experience),
			updated_at = excluded.updated_at`,
		p.UserID,
		nullableString(p.InvestingStyle), sectors, values,
		nullableString(p.RiskTolerance), nullableString(p.Experience),
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// GetProfile retrieves a profile by user id. Returns ErrNotFound when absent.
func (s *SQLiteStore) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, investing_style, sectors, pref_values, risk_tolerance, experience, updated_at
		FROM profiles WHERE user_id = ?`, userID)

	var p domain.UserProfile
	var style, sectors, values, risk, exp sql.NullString
	var updatedAt int64
	err := row.Scan(&p.UserID, &style, &sectors, &values, &risk, &exp, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p.InvestingStyle = style.String
	p.RiskTolerance = risk.String
	p.Experience = exp.String
	p.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	if sectors.Valid {
		if err := json.Unmarshal([]byte(sectors.String), &p.Sectors); err != nil {
			return nil, fmt.Errorf("decoding sectors for %s: %w", userID, err)
		}
	}
	if values.Valid {
		if err := json.Unmarshal([]byte(values.String), &p.Values); err != nil {
			return nil, fmt.Errorf("decoding values for %s: %w", userID, err)
		}
	}
	return &p, nil
}

// nullableString maps "" to NULL so the profile merge keeps stored values.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// marshalNullable maps an empty slice to NULL, otherwise to its JSON form.
func marshalNullable(v []string) (any, error) {
	if len(v) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// ---------------------------------------------------------------------------
// InsightStore implementation
// ---------------------------------------------------------------------------

// SaveInsight inserts a new insight and fills in its assigned id.
func (s *SQLiteStore) SaveInsight(ctx context.Context, in *domain.AIInsight) error {
	if in.Timestamp.IsZero() {
		in.Timestamp = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO insights (stock_sid, type, title, description, confidence, ts)
		VALUES (?, ?, ?, ?, ?, ?)`,
		in.StockSID, string(in.Type), in.Title, in.Description, in.Confidence,
		in.Timestamp.UnixMilli(),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	in.ID = id
	return nil
}

// ListInsights returns all insights, newest first.
func (s *SQLiteStore) ListInsights(ctx context.Context) ([]domain.AIInsight, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, stock_sid, type, title, description, confidence, ts
		FROM insights ORDER BY ts DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var insights []domain.AIInsight
	for rows.Next() {
		var in domain.AIInsight
		var typ string
		var ts int64
		if err := rows.Scan(&in.ID, &in.StockSID, &typ, &in.Title, &in.Description, &in.Confidence, &ts); err != nil {
			return nil, err
		}
		in.Type = domain.InsightType(typ)
		in.Timestamp = time.UnixMilli(ts).UTC()
		insights = append(insights, in)
	}
	return insights, rows.Err()
}
