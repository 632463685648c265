// Package loader reads the drug registry from a configured data source and
// composes it into the browsable view.
package loader

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dainanahan/drugtree/internal/compose"
	"github.com/Dainanahan/drugtree/internal/filter"
	"github.com/Dainanahan/drugtree/pkg/adapter"
	"github.com/Dainanahan/drugtree/pkg/core"
)

// Loader reads entity records and group memberships from one source.
type Loader struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Loader. A nil logger discards output.
func New(cfg Config, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cfg.Tables = cfg.Tables.withDefaults()
	cfg.Columns = cfg.Columns.withDefaults()
	return &Loader{cfg: cfg, logger: logger}
}

// Config returns the effective configuration.
func (l *Loader) Config() Config {
	return l.cfg
}

// Open connects the configured adapter and, for CSV sources, loads the
// exports into it. The caller must close the returned adapter.
func (l *Loader) Open(ctx context.Context) (core.Adapter, error) {
	adp, err := adapter.NewAdapter(l.cfg.Adapter, l.logger)
	if err != nil {
		return nil, err
	}
	if err := adp.Connect(ctx, l.cfg.Adapter); err != nil {
		return nil, fmt.Errorf("failed to connect to %s source: %w", l.cfg.Adapter.Type, err)
	}

	if l.cfg.CSVDir != "" {
		drugsPath, groupsPath := l.cfg.CSVPaths()
		for _, f := range []struct{ table, path string }{
			{l.cfg.Tables.Drugs, drugsPath},
			{l.cfg.Tables.Groups, groupsPath},
		} {
			l.logger.Debug("loading export", slog.String("table", f.table), slog.String("path", f.path))
			if err := adp.LoadCSV(ctx, f.table, f.path); err != nil {
				_ = adp.Close()
				return nil, fmt.Errorf("failed to load %s: %w", f.path, err)
			}
		}
	}
	return adp, nil
}

// Load reads the registry into a dataset with state normalised.
func (l *Loader) Load(ctx context.Context) (*core.Dataset, error) {
	start := time.Now()

	adp, err := l.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = adp.Close() }()

	if err := l.Validate(ctx, adp); err != nil {
		return nil, err
	}

	ds := &core.Dataset{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		drugs, err := l.readDrugs(gctx, adp)
		ds.Drugs = drugs
		return err
	})
	g.Go(func() error {
		memberships, err := l.readMemberships(gctx, adp)
		ds.Memberships = memberships
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	compose.NormalizeState(ds.Drugs)

	l.logger.Info("registry loaded",
		slog.String("source", l.cfg.Adapter.Type),
		slog.Int("drugs", len(ds.Drugs)),
		slog.Int("memberships", len(ds.Memberships)),
		slog.Duration("elapsed", time.Since(start)))
	return ds, nil
}

// LoadView loads the registry and composes it.
func (l *Loader) LoadView(ctx context.Context) (*core.View, error) {
	ds, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	return compose.Compose(ds.Drugs, ds.Memberships)
}

// Validate checks that both tables carry every configured column.
func (l *Loader) Validate(ctx context.Context, adp core.Adapter) error {
	c := l.cfg.Columns
	required := []struct {
		table   string
		columns []string
	}{
		{l.cfg.Tables.Drugs, []string{c.ID, c.Name, c.Type, c.State, c.Created}},
		{l.cfg.Tables.Groups, []string{c.MemberKey, c.Group}},
	}
	for _, r := range required {
		meta, err := adp.GetTableMetadata(ctx, r.table)
		if err != nil {
			return fmt.Errorf("failed to inspect table %s: %w", r.table, err)
		}
		for _, col := range r.columns {
			if !meta.HasColumn(col) {
				return &MissingColumnError{Table: r.table, Column: col}
			}
		}
	}
	return nil
}

func (l *Loader) readDrugs(ctx context.Context, adp core.Adapter) ([]core.Drug, error) {
	d := adp.DialectConfig()
	c := l.cfg.Columns
	query := fmt.Sprintf("SELECT %s FROM %s",
		textColumns(d, "", c.ID, c.Name, c.Type, c.State, c.Created),
		d.QuoteIdentifier(l.cfg.Tables.Drugs))

	rows, err := adp.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", l.cfg.Tables.Drugs, err)
	}
	defer func() { _ = rows.Close() }()

	var drugs []core.Drug
	for rows.Next() {
		var id, name, typ, state, created sql.NullString
		if err := rows.Scan(&id, &name, &typ, &state, &created); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", l.cfg.Tables.Drugs, err)
		}
		ts, ok := ParseTimestamp(created.String)
		if !ok {
			return nil, &MalformedValueError{Table: l.cfg.Tables.Drugs, Column: c.Created, Key: id.String, Value: created.String}
		}
		drugs = append(drugs, core.Drug{
			ID:      id.String,
			Name:    name.String,
			Type:    typ.String,
			State:   state.String,
			Created: ts,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", l.cfg.Tables.Drugs, err)
	}
	return drugs, nil
}

func (l *Loader) readMemberships(ctx context.Context, adp core.Adapter) ([]core.GroupMembership, error) {
	d := adp.DialectConfig()
	c := l.cfg.Columns
	query := fmt.Sprintf("SELECT %s FROM %s",
		textColumns(d, "", c.MemberKey, c.Group),
		d.QuoteIdentifier(l.cfg.Tables.Groups))

	rows, err := adp.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", l.cfg.Tables.Groups, err)
	}
	defer func() { _ = rows.Close() }()

	var memberships []core.GroupMembership
	for rows.Next() {
		var key, group sql.NullString
		if err := rows.Scan(&key, &group); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", l.cfg.Tables.Groups, err)
		}
		if !group.Valid {
			// a membership without a label carries no information
			continue
		}
		memberships = append(memberships, core.GroupMembership{DrugID: key.String, Group: group.String})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", l.cfg.Tables.Groups, err)
	}
	return memberships, nil
}

func textColumns(d *core.DialectConfig, alias string, cols ...string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = fmt.Sprintf("CAST(%s AS VARCHAR)", qualify(d, alias, c))
	}
	return strings.Join(out, ", ")
}

func qualify(d *core.DialectConfig, alias, col string) string {
	if alias == "" {
		return d.QuoteIdentifier(col)
	}
	return alias + "." + d.QuoteIdentifier(col)
}

// checkDuplicateKeys fails with compose.DuplicateKeyError when two drug
// records share a key, as the in-memory join does. A missing key reads as
// the empty string there, so it is grouped the same way here.
func (l *Loader) checkDuplicateKeys(ctx context.Context, adp core.Adapter) error {
	d := adp.DialectConfig()
	key := fmt.Sprintf("COALESCE(%s, '')", textColumns(d, "", l.cfg.Columns.ID))
	query := fmt.Sprintf("SELECT %[1]s FROM %[2]s GROUP BY %[1]s HAVING COUNT(*) > 1 ORDER BY 1 LIMIT 1",
		key, d.QuoteIdentifier(l.cfg.Tables.Drugs))

	rows, err := adp.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to check %s keys: %w", l.cfg.Tables.Drugs, err)
	}
	defer func() { _ = rows.Close() }()

	if rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan %s key: %w", l.cfg.Tables.Drugs, err)
		}
		return &compose.DuplicateKeyError{ID: id}
	}
	return rows.Err()
}

// levelExprs maps each level to its SQL expression over the joined tables.
func (l *Loader) levelExprs(d *core.DialectConfig) map[core.Level]string {
	c := l.cfg.Columns
	state := fmt.Sprintf("CAST(%s AS VARCHAR)", qualify(d, "d", c.State))
	created := qualify(d, "d", c.Created)
	return map[core.Level]string{
		core.LevelGroup: fmt.Sprintf("CAST(%s AS VARCHAR)", qualify(d, "g", c.Group)),
		core.LevelState: fmt.Sprintf(
			"CASE WHEN %[1]s IS NULL OR UPPER(TRIM(%[1]s)) IN ('', 'NA', 'N/A', 'NAN', 'NULL', 'NONE') THEN '%[2]s' ELSE %[1]s END",
			state, core.StateUnknown),
		core.LevelCreatedYear:  d.Year(created),
		core.LevelCreatedMonth: d.Month(created),
	}
}

// QueryView runs the outer join and the selection inside the source
// database and returns only the matching rows. Rows are ordered by drug
// key then group label, with orphan memberships last.
func (l *Loader) QueryView(ctx context.Context, sel core.Selection) (*core.View, error) {
	adp, err := l.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = adp.Close() }()

	if err := l.Validate(ctx, adp); err != nil {
		return nil, err
	}

	if err := l.checkDuplicateKeys(ctx, adp); err != nil {
		return nil, err
	}

	d := adp.DialectConfig()
	c := l.cfg.Columns
	exprs := l.levelExprs(d)

	where, args, err := filter.SQLWhere(sel, exprs, d.Placeholder)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s, %s, %s, %s
FROM %s d
FULL OUTER JOIN (SELECT * FROM %s WHERE %s IS NOT NULL) g ON %s = %s`,
		textColumns(d, "d", c.ID, c.Name, c.Type),
		exprs[core.LevelState],
		textColumns(d, "d", c.Created),
		textColumns(d, "g", c.MemberKey, c.Group),
		d.QuoteIdentifier(l.cfg.Tables.Drugs),
		d.QuoteIdentifier(l.cfg.Tables.Groups), d.QuoteIdentifier(c.Group),
		qualify(d, "d", c.ID), qualify(d, "g", c.MemberKey))
	if where != "" {
		query += "\nWHERE " + where
	}
	query += "\nORDER BY 1 NULLS LAST, 6 NULLS LAST, 7"

	l.logger.Debug("pushdown query", slog.String("sql", query), slog.Any("args", args))

	rows, err := adp.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*core.Row
	for rows.Next() {
		var id, name, typ, state, created, key, group sql.NullString
		if err := rows.Scan(&id, &name, &typ, &state, &created, &key, &group); err != nil {
			return nil, fmt.Errorf("failed to scan joined row: %w", err)
		}
		r := &core.Row{
			Index:  len(out),
			DrugID: id.String,
			Name:   name.String,
			Type:   typ.String,
			State:  state.String,
		}
		if !id.Valid {
			r.DrugID = key.String
		}
		if group.Valid {
			g := group.String
			r.Group = &g
		}
		ts, ok := ParseTimestamp(created.String)
		if !ok {
			return nil, &MalformedValueError{Table: l.cfg.Tables.Drugs, Column: c.Created, Key: id.String, Value: created.String}
		}
		if !ts.IsZero() {
			r.CreatedYear = ts.Year()
			r.CreatedMonth = int(ts.Month())
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating joined rows: %w", err)
	}
	return core.NewView(out), nil
}
