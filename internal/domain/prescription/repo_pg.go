package prescription

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const rxCols = `id, patient_id, visit_id, notes, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO prescription (id, patient_id, visit_id, notes)
		VALUES ($1,$2,$3,$4)`,
		p.ID, p.PatientID, p.VisitID, p.Notes,
	)
	if err != nil {
		return err
	}
	if err := insertChildren(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := scanRx(r.pool.QueryRow(ctx, `SELECT `+rxCols+` FROM prescription WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) GetByVisit(ctx context.Context, patientID uuid.UUID, visitID string) (*Prescription, error) {
	p, err := scanRx(r.pool.QueryRow(ctx,
		`SELECT `+rxCols+` FROM prescription WHERE patient_id = $1 AND visit_id = $2`,
		patientID, visitID))
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update rewrites the lines and tooth details wholesale. Prescriptions are
// small, and replacing children keeps Position authoritative without diffing.
func (r *repoPG) Update(ctx context.Context, p *Prescription) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE prescription SET notes=$2, updated_at=NOW() WHERE id = $1`,
		p.ID, p.Notes,
	)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM prescription_line WHERE prescription_id = $1`, p.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM prescription_tooth WHERE prescription_id = $1`, p.ID); err != nil {
		return err
	}
	if err := insertChildren(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM prescription WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM prescription WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+rxCols+` FROM prescription WHERE patient_id = $1 ORDER BY created_at LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var rxs []*Prescription
	for rows.Next() {
		var p Prescription
		if err := rows.Scan(&p.ID, &p.PatientID, &p.VisitID, &p.Notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		rxs = append(rxs, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, p := range rxs {
		if err := r.loadChildren(ctx, p); err != nil {
			return nil, 0, err
		}
	}
	return rxs, total, nil
}

func insertChildren(ctx context.Context, tx pgx.Tx, p *Prescription) error {
	for i := range p.Lines {
		l := &p.Lines[i]
		l.ID = uuid.New()
		l.PrescriptionID = p.ID
		l.Position = i
		_, err := tx.Exec(ctx, `
			INSERT INTO prescription_line (id, prescription_id, medicine, dosage, frequency, duration, instructions, position)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			l.ID, l.PrescriptionID, l.Medicine, l.Dosage, l.Frequency, l.Duration, l.Instructions, l.Position,
		)
		if err != nil {
			return fmt.Errorf("insert line %d: %w", i, err)
		}
	}
	for i := range p.Teeth {
		td := &p.Teeth[i]
		td.ID = uuid.New()
		td.PrescriptionID = p.ID
		_, err := tx.Exec(ctx, `
			INSERT INTO prescription_tooth (id, prescription_id, tooth, procedure_name, note)
			VALUES ($1,$2,$3,$4,$5)`,
			td.ID, td.PrescriptionID, td.Tooth, td.Procedure, td.Note,
		)
		if err != nil {
			return fmt.Errorf("insert tooth detail %d: %w", i, err)
		}
	}
	return nil
}

func (r *repoPG) loadChildren(ctx context.Context, p *Prescription) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, prescription_id, medicine, dosage, frequency, duration, instructions, position
		FROM prescription_line WHERE prescription_id = $1 ORDER BY position`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.PrescriptionID, &l.Medicine, &l.Dosage, &l.Frequency, &l.Duration, &l.Instructions, &l.Position); err != nil {
			return err
		}
		p.Lines = append(p.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	teeth, err := r.pool.Query(ctx, `
		SELECT id, prescription_id, tooth, procedure_name, note
		FROM prescription_tooth WHERE prescription_id = $1 ORDER BY tooth`, p.ID)
	if err != nil {
		return err
	}
	defer teeth.Close()
	for teeth.Next() {
		var td ToothDetail
		if err := teeth.Scan(&td.ID, &td.PrescriptionID, &td.Tooth, &td.Procedure, &td.Note); err != nil {
			return err
		}
		p.Teeth = append(p.Teeth, td)
	}
	return teeth.Err()
}

func scanRx(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.PatientID, &p.VisitID, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
