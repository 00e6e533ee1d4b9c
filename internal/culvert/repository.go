package culvert

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for culvert persistence.
type Repository interface {
	Create(ctx context.Context, c *Culvert) error
	GetByID(ctx context.Context, id string) (*Culvert, error)
	List(ctx context.Context) ([]Culvert, error)
	SearchByAddress(ctx context.Context, fragment string) ([]Culvert, error)
	Update(ctx context.Context, c *Culvert) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite-backed culvert repository.
func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const culvertColumns = `id, address, coordinates, road, serial_number, pipe_type,
	material, diameter, length, head_type, foundation_type, work_type,
	construction_year, last_repair_date, last_inspection_date,
	strength_rating, safety_rating, maintainability_rating,
	general_condition_rating, defects, photos, created_at, updated_at`

// Create inserts a new culvert record. The ID is generated if empty.
// Serial number uniqueness is enforced by the schema.
func (r *SQLiteRepository) Create(ctx context.Context, c *Culvert) error {
	if c.ID == "" {
		c.ID = "clv-" + uuid.NewString()[:8]
	}

	now := time.Now().UTC().Truncate(time.Second)
	c.CreatedAt = now
	c.UpdatedAt = now

	defects, photos, err := marshalLists(c)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO culverts (`+culvertColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Address, c.Coordinates, c.Road, c.SerialNumber, c.PipeType,
		c.Material, c.Diameter, c.Length, c.HeadType, c.FoundationType, c.WorkType,
		c.ConstructionYear, nullableTime(c.LastRepairDate), nullableTime(c.LastInspectionDate),
		c.StrengthRating, c.SafetyRating, c.MaintainabilityRating,
		c.GeneralConditionRating, defects, photos,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrSerialNumberExists
		}
		return fmt.Errorf("creating culvert: %w", err)
	}

	return nil
}

// GetByID retrieves a culvert by its unique ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Culvert, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+culvertColumns+" FROM culverts WHERE id = ?", id)
	return scanCulvert(row)
}

// List returns all culverts ordered by creation date.
func (r *SQLiteRepository) List(ctx context.Context) ([]Culvert, error) {
	return r.query(ctx,
		"SELECT "+culvertColumns+" FROM culverts ORDER BY created_at ASC")
}

// SearchByAddress returns culverts whose address contains the fragment,
// matched case-insensitively.
func (r *SQLiteRepository) SearchByAddress(ctx context.Context, fragment string) ([]Culvert, error) {
	pattern := "%" + escapeLike(fragment) + "%"
	return r.query(ctx,
		"SELECT "+culvertColumns+` FROM culverts
		 WHERE address LIKE ? ESCAPE '\' COLLATE NOCASE
		 ORDER BY created_at ASC`, pattern)
}

// Update replaces every mutable field of an existing culvert.
func (r *SQLiteRepository) Update(ctx context.Context, c *Culvert) error {
	c.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	defects, photos, err := marshalLists(c)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE culverts SET
			address = ?, coordinates = ?, road = ?, serial_number = ?,
			pipe_type = ?, material = ?, diameter = ?, length = ?,
			head_type = ?, foundation_type = ?, work_type = ?,
			construction_year = ?, last_repair_date = ?, last_inspection_date = ?,
			strength_rating = ?, safety_rating = ?, maintainability_rating = ?,
			general_condition_rating = ?, defects = ?, photos = ?, updated_at = ?
		 WHERE id = ?`,
		c.Address, c.Coordinates, c.Road, c.SerialNumber,
		c.PipeType, c.Material, c.Diameter, c.Length,
		c.HeadType, c.FoundationType, c.WorkType,
		c.ConstructionYear, nullableTime(c.LastRepairDate), nullableTime(c.LastInspectionDate),
		c.StrengthRating, c.SafetyRating, c.MaintainabilityRating,
		c.GeneralConditionRating, defects, photos,
		c.UpdatedAt.Format(time.RFC3339), c.ID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrSerialNumberExists
		}
		return fmt.Errorf("updating culvert: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a culvert record.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM culverts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting culvert: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the total number of registered culverts.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM culverts").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting culverts: %w", err)
	}
	return count, nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]Culvert, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying culverts: %w", err)
	}
	defer rows.Close()

	var culverts []Culvert
	for rows.Next() {
		c, err := scanCulvert(rows)
		if err != nil {
			return nil, err
		}
		culverts = append(culverts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating culverts: %w", err)
	}

	if culverts == nil {
		culverts = []Culvert{}
	}
	return culverts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCulvert(s scanner) (*Culvert, error) {
	var c Culvert
	var repair, inspection sql.NullString
	var strength, safety, maintainability, general sql.NullFloat64
	var defects, photos string
	var createdAt, updatedAt string

	err := s.Scan(&c.ID, &c.Address, &c.Coordinates, &c.Road, &c.SerialNumber,
		&c.PipeType, &c.Material, &c.Diameter, &c.Length, &c.HeadType,
		&c.FoundationType, &c.WorkType, &c.ConstructionYear,
		&repair, &inspection,
		&strength, &safety, &maintainability, &general,
		&defects, &photos, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning culvert: %w", err)
	}

	c.LastRepairDate = parseNullableTime(repair)
	c.LastInspectionDate = parseNullableTime(inspection)
	c.StrengthRating = nullableFloat(strength)
	c.SafetyRating = nullableFloat(safety)
	c.MaintainabilityRating = nullableFloat(maintainability)
	c.GeneralConditionRating = nullableFloat(general)

	if err := json.Unmarshal([]byte(defects), &c.Defects); err != nil {
		return nil, fmt.Errorf("decoding defects for %s: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(photos), &c.Photos); err != nil {
		return nil, fmt.Errorf("decoding photos for %s: %w", c.ID, err)
	}
	if c.Defects == nil {
		c.Defects = []string{}
	}
	if c.Photos == nil {
		c.Photos = []string{}
	}

	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &c, nil
}

// marshalLists encodes the defect and photo slices for storage. Nil slices
// store as empty arrays so reads never return null.
func marshalLists(c *Culvert) (defects, photos string, err error) {
	d := c.Defects
	if d == nil {
		d = []string{}
	}
	p := c.Photos
	if p == nil {
		p = []string{}
	}

	db, err := json.Marshal(d)
	if err != nil {
		return "", "", fmt.Errorf("encoding defects: %w", err)
	}
	pb, err := json.Marshal(p)
	if err != nil {
		return "", "", fmt.Errorf("encoding photos: %w", err)
	}
	return string(db), string(pb), nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseNullableTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullableFloat(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	v := nf.Float64
	return &v
}

// escapeLike neutralises LIKE wildcards in user-supplied search fragments.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
