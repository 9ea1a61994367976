package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/SiGentIsHere/Weblink-Shield/internal/domain"
)

// Repository stores URLs, host intel and verdicts in PostgreSQL. Writes are
// upserts so concurrent analyses of one canonical URL converge on one row.
type Repository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewRepository creates a repository over db.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Ping checks the connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// FindURLByCanonical returns the row for canon.
func (r *Repository) FindURLByCanonical(ctx context.Context, canon string) (*domain.URL, error) {
	var u domain.URL
	query := `SELECT id, url_canon, first_seen FROM url WHERE url_canon = $1`

	if err := r.db.GetContext(ctx, &u, query, canon); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find url: %w", err)
	}
	return &u, nil
}

// SaveURL inserts canon if it is new and returns its row either way.
func (r *Repository) SaveURL(ctx context.Context, canon string) (*domain.URL, error) {
	var u domain.URL
	query := `
		INSERT INTO url (url_canon, first_seen)
		VALUES ($1, $2)
		ON CONFLICT (url_canon) DO UPDATE SET url_canon = EXCLUDED.url_canon
		RETURNING id, url_canon, first_seen
	`

	if err := r.db.GetContext(ctx, &u, query, canon, r.now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to save url: %w", err)
	}
	return &u, nil
}

// FindHostIntel returns the intel stored for a URL.
func (r *Repository) FindHostIntel(ctx context.Context, urlID int64) (*domain.HostIntel, error) {
	var hi domain.HostIntel
	query := `
		SELECT url_id, domain, tld, ip, domain_age_days, tls_age_days, tls_issuer, fetched_at
		FROM host_intel
		WHERE url_id = $1
	`

	if err := r.db.GetContext(ctx, &hi, query, urlID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find host intel: %w", err)
	}
	return &hi, nil
}

// SaveHostIntel upserts intel keyed by its URL id.
func (r *Repository) SaveHostIntel(ctx context.Context, hi *domain.HostIntel) error {
	query := `
		INSERT INTO host_intel (url_id, domain, tld, ip, domain_age_days, tls_age_days, tls_issuer, fetched_at)
		VALUES (:url_id, :domain, :tld, :ip, :domain_age_days, :tls_age_days, :tls_issuer, :fetched_at)
		ON CONFLICT (url_id) DO UPDATE SET
			domain = EXCLUDED.domain,
			tld = EXCLUDED.tld,
			ip = EXCLUDED.ip,
			domain_age_days = EXCLUDED.domain_age_days,
			tls_age_days = EXCLUDED.tls_age_days,
			tls_issuer = EXCLUDED.tls_issuer,
			fetched_at = EXCLUDED.fetched_at
	`

	if _, err := r.db.NamedExecContext(ctx, query, hi); err != nil {
		return fmt.Errorf("failed to save host intel: %w", err)
	}
	return nil
}

type verdictRow struct {
	URLID     int64     `db:"url_id"`
	Verdict   string    `db:"verdict"`
	Class     string    `db:"class"`
	Score     int       `db:"score"`
	Reasons   []byte    `db:"reasons"`
	UpdatedAt time.Time `db:"updated_at"`
}

// FindVerdict returns the verdict for a URL.
func (r *Repository) FindVerdict(ctx context.Context, urlID int64) (*domain.Verdict, error) {
	var row verdictRow
	query := `SELECT url_id, verdict, class, score, reasons, updated_at FROM verdict WHERE url_id = $1`

	if err := r.db.GetContext(ctx, &row, query, urlID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find verdict: %w", err)
	}

	var reasons []domain.Hit
	if err := json.Unmarshal(row.Reasons, &reasons); err != nil {
		return nil, fmt.Errorf("failed to unmarshal verdict reasons: %w", err)
	}

	return &domain.Verdict{
		URLID:     row.URLID,
		Status:    domain.VerdictStatus(row.Verdict),
		Class:     domain.ClassLabel(row.Class),
		Score:     row.Score,
		Reasons:   reasons,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// SaveVerdict upserts the verdict for a URL.
func (r *Repository) SaveVerdict(ctx context.Context, v *domain.Verdict) error {
	reasons := v.Reasons
	if reasons == nil {
		reasons = []domain.Hit{}
	}
	reasonsJSON, err := json.Marshal(reasons)
	if err != nil {
		return fmt.Errorf("failed to marshal verdict reasons: %w", err)
	}

	query := `
		INSERT INTO verdict (url_id, verdict, class, score, reasons, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (url_id) DO UPDATE SET
			verdict = EXCLUDED.verdict,
			class = EXCLUDED.class,
			score = EXCLUDED.score,
			reasons = EXCLUDED.reasons,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		v.URLID, string(v.Status), string(v.Class), v.Score, reasonsJSON, v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save verdict: %w", err)
	}
	return nil
}
