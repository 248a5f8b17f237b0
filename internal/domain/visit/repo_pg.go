package visit

import (
	"context"

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

const visitCols = `id, visit_id, patient_id, anchor_visit_id, tag, opd_number,
	visit_date, reason, doctor_name, notes, created_at_ms, updated_at_ms`

func (r *repoPG) Create(ctx context.Context, v *Visit) error {
	v.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO visit (
			id, visit_id, patient_id, anchor_visit_id, tag, opd_number,
			visit_date, reason, doctor_name, notes, created_at_ms, updated_at_ms
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		v.ID, v.VisitID, v.PatientID, v.AnchorVisitID, v.Tag, v.OPDNumber,
		v.VisitDate, v.Reason, v.DoctorName, v.Notes, v.CreatedAt, v.UpdatedAt,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return scanVisit(r.pool.QueryRow(ctx, `SELECT `+visitCols+` FROM visit WHERE id = $1`, id))
}

func (r *repoPG) GetByVisitID(ctx context.Context, patientID uuid.UUID, visitID string) (*Visit, error) {
	return scanVisit(r.pool.QueryRow(ctx,
		`SELECT `+visitCols+` FROM visit WHERE patient_id = $1 AND visit_id = $2`,
		patientID, visitID))
}

func (r *repoPG) Update(ctx context.Context, v *Visit) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE visit SET
			anchor_visit_id=$2, tag=$3, opd_number=$4, visit_date=$5,
			reason=$6, doctor_name=$7, notes=$8, updated_at_ms=$9
		WHERE id = $1`,
		v.ID, v.AnchorVisitID, v.Tag, v.OPDNumber, v.VisitDate,
		v.Reason, v.DoctorName, v.Notes, v.UpdatedAt,
	)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM visit WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM visit WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+visitCols+` FROM visit WHERE patient_id = $1 ORDER BY created_at_ms LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	visits, err := collectVisits(rows)
	if err != nil {
		return nil, 0, err
	}
	return visits, total, nil
}

func (r *repoPG) ListByAnchor(ctx context.Context, patientID uuid.UUID, anchorVisitID string) ([]*Visit, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+visitCols+` FROM visit
		 WHERE patient_id = $1 AND (anchor_visit_id = $2 OR visit_id = $2)
		 ORDER BY created_at_ms`,
		patientID, anchorVisitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVisits(rows)
}

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	err := row.Scan(
		&v.ID, &v.VisitID, &v.PatientID, &v.AnchorVisitID, &v.Tag, &v.OPDNumber,
		&v.VisitDate, &v.Reason, &v.DoctorName, &v.Notes, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func collectVisits(rows pgx.Rows) ([]*Visit, error) {
	var visits []*Visit
	for rows.Next() {
		var v Visit
		err := rows.Scan(
			&v.ID, &v.VisitID, &v.PatientID, &v.AnchorVisitID, &v.Tag, &v.OPDNumber,
			&v.VisitDate, &v.Reason, &v.DoctorName, &v.Notes, &v.CreatedAt, &v.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		visits = append(visits, &v)
	}
	return visits, rows.Err()
}
