package visit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repository --

type mockRepo struct {
	visits map[uuid.UUID]*Visit
}

func newMockRepo() *mockRepo {
	return &mockRepo{visits: make(map[uuid.UUID]*Visit)}
}

func (m *mockRepo) Create(_ context.Context, v *Visit) error {
	v.ID = uuid.New()
	m.visits[v.ID] = v
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Visit, error) {
	v, ok := m.visits[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return v, nil
}

func (m *mockRepo) GetByVisitID(_ context.Context, patientID uuid.UUID, visitID string) (*Visit, error) {
	for _, v := range m.visits {
		if v.PatientID == patientID && v.VisitID == visitID {
			return v, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockRepo) Update(_ context.Context, v *Visit) error {
	m.visits[v.ID] = v
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.visits, id)
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error) {
	var result []*Visit
	for _, v := range m.visits {
		if v.PatientID == patientID {
			result = append(result, v)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) ListByAnchor(_ context.Context, patientID uuid.UUID, anchorVisitID string) ([]*Visit, error) {
	var result []*Visit
	for _, v := range m.visits {
		if v.PatientID != patientID {
			continue
		}
		if v.VisitID == anchorVisitID || (v.AnchorVisitID != nil && *v.AnchorVisitID == anchorVisitID) {
			result = append(result, v)
		}
	}
	return result, nil
}

// -- Service Tests --

func TestCreateVisit(t *testing.T) {
	svc := NewService(newMockRepo())
	patientID := uuid.New()

	v := &Visit{PatientID: patientID}
	if err := svc.CreateVisit(context.Background(), v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.VisitID == "" {
		t.Error("expected generated visit_id")
	}
	if v.Tag != TagNew {
		t.Errorf("expected default tag NEW, got %s", v.Tag)
	}
	if v.CreatedAt == 0 {
		t.Error("expected created_at to be stamped")
	}
}

func TestCreateVisit_RequiresPatient(t *testing.T) {
	svc := NewService(newMockRepo())

	err := svc.CreateVisit(context.Background(), &Visit{})
	if err == nil {
		t.Fatal("expected error for missing patient_id")
	}
}

func TestCreateVisit_FollowUpRequiresAnchor(t *testing.T) {
	svc := NewService(newMockRepo())

	err := svc.CreateVisit(context.Background(), &Visit{
		PatientID: uuid.New(),
		Tag:       TagFollowUp,
	})
	if err == nil {
		t.Fatal("expected error for follow-up without anchor")
	}
}

func TestCreateVisit_FollowUpAnchorMustExist(t *testing.T) {
	svc := NewService(newMockRepo())
	anchor := "V-GHOST"

	err := svc.CreateVisit(context.Background(), &Visit{
		PatientID:     uuid.New(),
		Tag:           TagFollowUp,
		AnchorVisitID: &anchor,
	})
	if err == nil {
		t.Fatal("expected error for unknown anchor")
	}
}

func TestCreateVisit_FollowUpChain(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	patientID := uuid.New()

	first := &Visit{PatientID: patientID, VisitID: "V-1"}
	if err := svc.CreateVisit(context.Background(), first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	anchor := "V-1"
	followUp := &Visit{
		PatientID:     patientID,
		VisitID:       "V-2",
		Tag:           TagFollowUp,
		AnchorVisitID: &anchor,
	}
	if err := svc.CreateVisit(context.Background(), followUp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chained, err := repo.ListByAnchor(context.Background(), patientID, "V-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chained) != 2 {
		t.Errorf("expected anchor and follow-up in chain, got %d", len(chained))
	}
}

func TestCreateVisit_CannotAnchorToSelf(t *testing.T) {
	svc := NewService(newMockRepo())
	self := "V-1"

	err := svc.CreateVisit(context.Background(), &Visit{
		PatientID:     uuid.New(),
		VisitID:       "V-1",
		Tag:           TagFollowUp,
		AnchorVisitID: &self,
	})
	if err == nil {
		t.Fatal("expected error for self-anchored visit")
	}
}

func TestUpdateVisit_StampsUpdatedAt(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	patientID := uuid.New()

	v := &Visit{PatientID: patientID, VisitID: "V-1"}
	if err := svc.CreateVisit(context.Background(), v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.UpdateVisit(context.Background(), v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.UpdatedAt == nil || *v.UpdatedAt == 0 {
		t.Error("expected updated_at to be stamped")
	}
}

func TestMetasForPatient(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	patientID := uuid.New()

	reason := "root canal follow-up"
	anchor := "V-1"
	visits := []*Visit{
		{PatientID: patientID, VisitID: "V-1", VisitDate: time.Now()},
		{PatientID: patientID, VisitID: "V-2", Tag: TagFollowUp, AnchorVisitID: &anchor, Reason: &reason},
	}
	for _, v := range visits {
		if err := svc.CreateVisit(context.Background(), v); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	metas, err := svc.MetasForPatient(context.Background(), patientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("expected 2 metas, got %d", len(metas))
	}
	for _, m := range metas {
		if m.VisitID == "V-2" {
			if m.AnchorVisitID != "V-1" {
				t.Errorf("expected anchor V-1, got %s", m.AnchorVisitID)
			}
			if m.Reason != reason {
				t.Errorf("expected reason carried over, got %q", m.Reason)
			}
		}
	}
}

func TestImportVisits(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	patientID := uuid.New()

	records := []map[string]interface{}{
		{"visitId": "V-1", "visit_type": "new", "createdAt": float64(1700000000000), "chief_complaint": "toothache"},
		{"vid": "V-2", "type": "follow-up", "parent_visit_id": "V-1", "created": float64(1700086400)},
		{"reason": "no id at all"},
		{"visit_id": "V-1"}, // duplicate of the first
	}

	res, err := svc.ImportVisits(context.Background(), patientID, records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Imported != 2 {
		t.Errorf("expected 2 imported, got %d", res.Imported)
	}
	if res.Skipped != 2 {
		t.Errorf("expected 2 skipped, got %d", res.Skipped)
	}

	v2, err := repo.GetByVisitID(context.Background(), patientID, "V-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v2.Tag != TagFollowUp || v2.AnchorVisitID == nil || *v2.AnchorVisitID != "V-1" {
		t.Errorf("imported follow-up not normalized: %+v", v2)
	}
	if v2.CreatedAt != 1700086400000 {
		t.Errorf("seconds timestamp not scaled to millis: %d", v2.CreatedAt)
	}
}
