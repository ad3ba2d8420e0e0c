package records

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/consorcio/emissions/database"
	"github.com/consorcio/emissions/form"
)

// Repository persists records.
type Repository interface {
	// Create inserts the record and sets its ID and CreatedAt.
	Create(ctx context.Context, rec *Record) error
	// List returns every record ordered by ID.
	List(ctx context.Context) ([]Record, error)
	EmissionAmounts(ctx context.Context) ([]form.Amount, error)
	Distances(ctx context.Context) ([]form.Amount, error)
	Vehicles(ctx context.Context) ([]string, error)
	Fuels(ctx context.Context) ([]string, error)
}

// PostgresRepository is a Repository over the emission_records table.
type PostgresRepository struct {
	db *database.PostgresClient
}

// NewPostgresRepository creates a repository.
func NewPostgresRepository(db *database.PostgresClient) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Numeric columns travel as text so no precision is lost on the way.
const recordColumns = `id, person_name, emission_amount::text, distance::text, people_amount, vehicle, fuel, created_at`

// Create inserts a record. Inserts are not retried: a retry after an
// ambiguous failure could store the trip twice.
func (r *PostgresRepository) Create(ctx context.Context, rec *Record) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO emission_records (person_name, emission_amount, distance, people_amount, vehicle, fuel)
		VALUES ($1, $2::text::numeric, $3::text::numeric, $4, $5, $6)
		RETURNING id, created_at
	`,
		rec.PersonName,
		rec.EmissionAmount.String(),
		rec.Distance.String(),
		rec.PeopleAmount,
		rec.Vehicle,
		rec.Fuel,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert emission record: %w", err)
	}
	return nil
}

// List returns every record ordered by ID.
func (r *PostgresRepository) List(ctx context.Context) ([]Record, error) {
	var out []Record
	err := database.RetrySQLOperation(ctx, func() error {
		rows, err := r.db.Query(ctx, `SELECT `+recordColumns+` FROM emission_records ORDER BY id`)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, scanRecord)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list emission records: %w", err)
	}
	return out, nil
}

func scanRecord(row pgx.CollectableRow) (Record, error) {
	var (
		rec      Record
		emission string
		distance string
	)
	err := row.Scan(
		&rec.ID,
		&rec.PersonName,
		&emission,
		&distance,
		&rec.PeopleAmount,
		&rec.Vehicle,
		&rec.Fuel,
		&rec.CreatedAt,
	)
	if err != nil {
		return Record{}, err
	}
	if rec.EmissionAmount, err = parseAmount(emission); err != nil {
		return Record{}, err
	}
	if rec.Distance, err = parseAmount(distance); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// EmissionAmounts returns the emission of every record ordered by ID.
func (r *PostgresRepository) EmissionAmounts(ctx context.Context) ([]form.Amount, error) {
	return r.amounts(ctx, "emission_amount")
}

// Distances returns the distance of every record ordered by ID.
func (r *PostgresRepository) Distances(ctx context.Context) ([]form.Amount, error) {
	return r.amounts(ctx, "distance")
}

// Vehicles returns the vehicle key of every record ordered by ID.
func (r *PostgresRepository) Vehicles(ctx context.Context) ([]string, error) {
	return r.strings(ctx, "vehicle")
}

// Fuels returns the fuel code of every record ordered by ID.
func (r *PostgresRepository) Fuels(ctx context.Context) ([]string, error) {
	return r.strings(ctx, "fuel")
}

// column is always one of the constants above, never user input.
func (r *PostgresRepository) amounts(ctx context.Context, column string) ([]form.Amount, error) {
	values, err := r.strings(ctx, column+"::text")
	if err != nil {
		return nil, err
	}
	out := make([]form.Amount, 0, len(values))
	for _, v := range values {
		a, err := parseAmount(v)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *PostgresRepository) strings(ctx context.Context, column string) ([]string, error) {
	var out []string
	err := database.RetrySQLOperation(ctx, func() error {
		rows, err := r.db.Query(ctx, `SELECT `+column+` FROM emission_records ORDER BY id`)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, pgx.RowTo[string])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", column, err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func parseAmount(s string) (form.Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return form.Amount{}, fmt.Errorf("parse numeric %q: %w", s, err)
	}
	return form.NewAmount(d), nil
}
