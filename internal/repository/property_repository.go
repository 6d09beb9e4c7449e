package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/wealthmap/internal/database"
	"github.com/stwalsh4118/wealthmap/internal/models"
)

// Maximum number of properties returned by a single area query
const maxPropertyResults = 5000

// PropertyRepository defines the interface for property data access operations.
type PropertyRepository interface {
	// Fetch returns properties inside the query's bounding box whose estimated
	// value lies in the optional range. Returns an empty slice when nothing matches.
	Fetch(ctx context.Context, q models.PropertyQuery) ([]models.Property, error)

	// FindByIDs returns the properties with the given ids, in no particular order.
	// Unknown ids are skipped.
	FindByIDs(ctx context.Context, ids []string) ([]models.Property, error)

	// FindByID returns nil, nil when the property does not exist.
	FindByID(ctx context.Context, id string) (*models.Property, error)

	// Upsert inserts or replaces properties by id and returns how many were written.
	Upsert(ctx context.Context, props []models.Property) (int, error)
}

// propertyRepository is the concrete implementation of PropertyRepository.
type propertyRepository struct {
	db *database.Database
}

// NewPropertyRepository creates a new instance of PropertyRepository.
func NewPropertyRepository(db *database.Database) PropertyRepository {
	return &propertyRepository{
		db: db,
	}
}

const propertyColumns = `
	id,
	address,
	county,
	region,
	zip,
	price,
	living_space,
	beds,
	baths,
	median_income,
	population,
	density,
	owner_net_worth,
	valuations,
	ST_AsGeoJSON(geom) AS geometry`

// buildFetchQuery assembles the area query. PostGIS envelopes take
// (minLng, minLat, maxLng, maxLat), the same order as BBox.
func buildFetchQuery(q models.PropertyQuery) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)

	if q.BBox != nil {
		args = append(args, q.BBox.MinLng, q.BBox.MinLat, q.BBox.MaxLng, q.BBox.MaxLat)
		conds = append(conds, fmt.Sprintf("geom && ST_MakeEnvelope($%d, $%d, $%d, $%d, 4326)",
			len(args)-3, len(args)-2, len(args)-1, len(args)))
	}
	if q.MinValue != nil {
		args = append(args, *q.MinValue)
		conds = append(conds, fmt.Sprintf("estimated_value >= $%d", len(args)))
	}
	if q.MaxValue != nil {
		args = append(args, *q.MaxValue)
		conds = append(conds, fmt.Sprintf("estimated_value <= $%d", len(args)))
	}

	query := "SELECT" + propertyColumns + "\nFROM properties"
	if len(conds) > 0 {
		query += "\nWHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, maxPropertyResults)
	query += fmt.Sprintf("\nORDER BY id\nLIMIT $%d", len(args))

	return query, args
}

// Fetch runs an indexed bounding-box query against the properties table.
func (r *propertyRepository) Fetch(ctx context.Context, q models.PropertyQuery) ([]models.Property, error) {
	query, args := buildFetchQuery(q)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	return collectProperties(rows)
}

// FindByIDs loads a specific set of properties.
func (r *propertyRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Property, error) {
	if len(ids) == 0 {
		return []models.Property{}, nil
	}

	query := "SELECT" + propertyColumns + "\nFROM properties\nWHERE id = ANY($1)"
	rows, err := r.db.Pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties by id: %w", err)
	}
	return collectProperties(rows)
}

// FindByID loads a single property.
func (r *propertyRepository) FindByID(ctx context.Context, id string) (*models.Property, error) {
	query := "SELECT" + propertyColumns + "\nFROM properties\nWHERE id = $1"

	p, err := scanProperty(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		// Handle no rows found - this is not an error at the repository level
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query property %s: %w", id, err)
	}
	return &p, nil
}

// Upsert writes properties in one batch. The estimated value column is
// denormalized from the valuation series so value-range queries can use an index.
func (r *propertyRepository) Upsert(ctx context.Context, props []models.Property) (int, error) {
	if len(props) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO properties (
			id, address, county, region, zip, price, living_space, beds, baths,
			median_income, population, density, owner_net_worth, estimated_value,
			valuations, geom, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9,
			$10, $11, $12, $13, $14,
			$15::jsonb, ST_SetSRID(ST_MakePoint($16, $17), 4326), now()
		)
		ON CONFLICT (id) DO UPDATE SET
			address = EXCLUDED.address,
			county = EXCLUDED.county,
			region = EXCLUDED.region,
			zip = EXCLUDED.zip,
			price = EXCLUDED.price,
			living_space = EXCLUDED.living_space,
			beds = EXCLUDED.beds,
			baths = EXCLUDED.baths,
			median_income = EXCLUDED.median_income,
			population = EXCLUDED.population,
			density = EXCLUDED.density,
			owner_net_worth = EXCLUDED.owner_net_worth,
			estimated_value = EXCLUDED.estimated_value,
			valuations = EXCLUDED.valuations,
			geom = EXCLUDED.geom,
			updated_at = now()
	`

	batch := &pgx.Batch{}
	for i := range props {
		p := &props[i]
		valuations := p.Valuations
		if valuations == nil {
			valuations = []models.Valuation{}
		}
		valuationsJSON, err := json.Marshal(valuations)
		if err != nil {
			return 0, fmt.Errorf("failed to encode valuations for property %s: %w", p.ID, err)
		}

		// PostGIS uses (lng, lat) order
		batch.Queue(query,
			p.ID, p.Address, p.County, p.Region, p.Zip, p.Price, p.LivingSpace, p.Beds, p.Baths,
			p.MedianIncome, p.Population, p.Density, p.OwnerNetWorth, p.EstimatedValue(),
			string(valuationsJSON), p.Longitude, p.Latitude,
		)
	}

	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()

	written := 0
	for i := range props {
		if _, err := br.Exec(); err != nil {
			return written, fmt.Errorf("failed to upsert property %s: %w", props[i].ID, err)
		}
		written++
	}
	return written, nil
}

// collectProperties drains rows into a non-nil slice.
func collectProperties(rows pgx.Rows) ([]models.Property, error) {
	defer rows.Close()

	results := []models.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property row: %w", err)
		}
		results = append(results, p)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating property rows: %w", err)
	}
	return results, nil
}

func scanProperty(row pgx.Row) (models.Property, error) {
	var (
		p    models.Property
		geom models.Point
	)

	err := row.Scan(
		&p.ID,
		&p.Address,
		&p.County,
		&p.Region,
		&p.Zip,
		&p.Price,
		&p.LivingSpace,
		&p.Beds,
		&p.Baths,
		&p.MedianIncome,
		&p.Population,
		&p.Density,
		&p.OwnerNetWorth,
		&p.Valuations,
		&geom,
	)
	if err != nil {
		return models.Property{}, err
	}

	p.Latitude = geom.Lat()
	p.Longitude = geom.Lng()
	p.SortValuations()
	return p, nil
}
