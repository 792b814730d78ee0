package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agarwalpriyanshu/Dental-CLinic/internal/domain"
	"github.com/agarwalpriyanshu/Dental-CLinic/internal/storage"
)

// failingKV 在 failOn 中的 key 上写入失败
type failingKV struct {
	*storage.MemoryKV
	failOn map[string]bool
}

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	if f.failOn[key] {
		return errors.New("disk full")
	}
	return f.MemoryKV.Set(ctx, key, value)
}

type recordingNotifier struct {
	mu      sync.Mutex
	changes []domain.Change
	err     error
}

func (r *recordingNotifier) Notify(_ context.Context, c domain.Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
	return r.err
}

func openStore(t *testing.T, kv storage.KV, opts ...Option) *Store {
	t.Helper()
	s, err := Open(context.Background(), kv, zap.NewNop(), opts...)
	require.NoError(t, err)
	return s
}

func readJSON(t *testing.T, kv storage.KV, key string, out any) {
	t.Helper()
	raw, err := kv.Get(context.Background(), key)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(raw), out))
}

func cost(v float64) *float64 { return &v }

func TestInit_SeedsEmptyStorage(t *testing.T) {
	kv := storage.NewMemoryKV()
	s := openStore(t, kv)

	assert.Equal(t, seedUsers(), s.Users())
	assert.Equal(t, seedPatients(), s.Patients())
	assert.Equal(t, seedIncidents(), s.Incidents())
	_, loggedIn := s.CurrentUser()
	assert.False(t, loggedIn)

	var patients []domain.Patient
	readJSON(t, kv, "patients", &patients)
	assert.Equal(t, seedPatients(), patients)

	var incidents []domain.Incident
	readJSON(t, kv, "incidents", &incidents)
	require.Len(t, incidents, 1)
	assert.Len(t, incidents[0].Files, 2)
	assert.Equal(t, domain.StatusCompleted, incidents[0].Status)
}

func TestInit_SeedsEmptyPersistedValues(t *testing.T) {
	for _, raw := range []string{"[]", "null", "", "  "} {
		kv := storage.NewMemoryKV()
		require.NoError(t, kv.Set(context.Background(), "patients", raw))

		s := openStore(t, kv)
		assert.Equal(t, seedPatients(), s.Patients(), "raw=%q", raw)
	}
}

func TestInit_LoadsExistingCollections(t *testing.T) {
	kv := storage.NewMemoryKV()
	stored := []domain.Patient{
		{ID: "p7", Name: "Jane Roe", DateOfBirth: "1985-01-02", Contact: "555", HealthInfo: "Penicillin"},
	}
	data, _ := json.Marshal(stored)
	require.NoError(t, kv.Set(context.Background(), "patients", string(data)))

	s := openStore(t, kv)
	assert.Equal(t, stored, s.Patients())
	// 其它集合仍然被 seed
	assert.Len(t, s.Users(), 2)
}

func TestInit_CorruptValueIsAnError(t *testing.T) {
	kv := storage.NewMemoryKV()
	require.NoError(t, kv.Set(context.Background(), "incidents", "{not json"))

	_, err := Open(context.Background(), kv, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incidents")
}

func TestInit_RestoresSession(t *testing.T) {
	kv := storage.NewMemoryKV()
	s := openStore(t, kv)
	_, ok, err := s.Login(context.Background(), "john@entnt.in", "patient123")
	require.NoError(t, err)
	require.True(t, ok)

	reopened := openStore(t, kv)
	u, loggedIn := reopened.CurrentUser()
	require.True(t, loggedIn)
	assert.Equal(t, "p1", u.PatientID)
	assert.Equal(t, domain.RolePatient, u.Role)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	s := openStore(t, kv)

	matched, ok, err := s.Login(ctx, "admin@entnt.in", "admin123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", matched.ID)
	u, loggedIn := s.CurrentUser()
	require.True(t, loggedIn)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.Equal(t, matched, u)

	var persisted domain.User
	readJSON(t, kv, "user", &persisted)
	assert.Equal(t, u, persisted)

	for _, tc := range []struct{ email, password string }{
		{"admin@entnt.in", "wrong"},
		{"ADMIN@entnt.in", "admin123"},
		{" admin@entnt.in", "admin123"},
		{"", ""},
		{"john@entnt.in", "admin123"},
	} {
		_, ok, err := s.Login(ctx, tc.email, tc.password)
		require.NoError(t, err)
		assert.False(t, ok, "%s/%s", tc.email, tc.password)

		still, loggedIn := s.CurrentUser()
		assert.True(t, loggedIn)
		assert.Equal(t, u, still)
	}
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	s := openStore(t, kv)

	_, _, err := s.Login(ctx, "admin@entnt.in", "admin123")
	require.NoError(t, err)
	require.NoError(t, s.Logout(ctx))

	_, loggedIn := s.CurrentUser()
	assert.False(t, loggedIn)
	_, err = kv.Get(ctx, "user")
	assert.ErrorIs(t, err, storage.ErrMiss)
}

type patientOp struct {
	kind    string
	patient domain.Patient
}

func applyPatientOp(list []domain.Patient, op patientOp) []domain.Patient {
	out := append([]domain.Patient(nil), list...)
	switch op.kind {
	case "add":
		return append(out, op.patient)
	case "update":
		for i := range out {
			if out[i].ID == op.patient.ID {
				out[i] = op.patient
			}
		}
		return out
	default:
		kept := out[:0]
		for _, p := range out {
			if p.ID != op.patient.ID {
				kept = append(kept, p)
			}
		}
		return kept
	}
}

func TestPatients_StateIsFoldOverOperations(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, storage.NewMemoryKV())

	ops := []patientOp{
		{"add", domain.Patient{ID: "p2", Name: "Ann"}},
		{"add", domain.Patient{ID: "p3", Name: "Bob"}},
		{"update", domain.Patient{ID: "p2", Name: "Ann Smith", Contact: "42"}},
		{"delete", domain.Patient{ID: "p1"}},
		{"update", domain.Patient{ID: "p99", Name: "Ghost"}},
		{"add", domain.Patient{ID: "p4", Name: "Cy"}},
		{"delete", domain.Patient{ID: "p3"}},
		{"delete", domain.Patient{ID: "p404"}},
	}

	want := seedPatients()
	for _, op := range ops {
		switch op.kind {
		case "add":
			require.NoError(t, s.AddPatient(ctx, op.patient))
		case "update":
			require.NoError(t, s.UpdatePatient(ctx, op.patient))
		default:
			require.NoError(t, s.DeletePatient(ctx, op.patient.ID))
		}
		want = applyPatientOp(want, op)
		assert.Equal(t, want, s.Patients())
	}
	assert.Equal(t, []string{"p2", "p4"}, []string{s.Patients()[0].ID, s.Patients()[1].ID})
}

func TestDeletePatient_CascadesOnlyToItsIncidents(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	s := openStore(t, kv)

	require.NoError(t, s.AddPatient(ctx, domain.Patient{ID: "p2", Name: "Ann"}))
	require.NoError(t, s.AddIncident(ctx, domain.Incident{ID: "i2", PatientID: "p2", Title: "Cleaning", Status: domain.StatusScheduled}))
	require.NoError(t, s.AddIncident(ctx, domain.Incident{ID: "i3", PatientID: "p2", Title: "Filling", Status: domain.StatusPending}))
	require.NoError(t, s.AddIncident(ctx, domain.Incident{ID: "i4", PatientID: "p9", Title: "Orphan", Status: domain.StatusPending}))

	require.NoError(t, s.DeletePatient(ctx, "p2"))

	var ids []string
	for _, in := range s.Incidents() {
		ids = append(ids, in.ID)
	}
	assert.Equal(t, []string{"i1", "i4"}, ids)

	var persisted []domain.Incident
	readJSON(t, kv, "incidents", &persisted)
	assert.Equal(t, s.Incidents(), persisted)
}

func TestUpdate_MissingIDIsNoOp(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, storage.NewMemoryKV())
	before := s.Snapshot()

	require.NoError(t, s.UpdatePatient(ctx, domain.Patient{ID: "nope", Name: "X"}))
	require.NoError(t, s.UpdateIncident(ctx, domain.Incident{ID: "nope", Title: "X"}))
	require.NoError(t, s.DeleteIncident(ctx, "nope"))

	assert.Equal(t, before, s.Snapshot())
}

func TestAdd_DuplicateIDRejected(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, storage.NewMemoryKV())

	err := s.AddPatient(ctx, domain.Patient{ID: "p1", Name: "Clone"})
	assert.ErrorIs(t, err, ErrDuplicateID)
	err = s.AddIncident(ctx, domain.Incident{ID: "i1"})
	assert.ErrorIs(t, err, ErrDuplicateID)

	assert.Equal(t, seedPatients(), s.Patients())
	assert.Equal(t, seedIncidents(), s.Incidents())
}

func TestIncidentCRUD(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, storage.NewMemoryKV())

	in := domain.Incident{
		ID: "i2", PatientID: "p1", Title: "Checkup", AppointmentDate: "2025-08-01T09:30",
		Status: domain.StatusScheduled, Files: []domain.IncidentFile{},
	}
	require.NoError(t, s.AddIncident(ctx, in))

	in.Status = domain.StatusCompleted
	in.Cost = cost(120)
	in.Treatment = "Scaling"
	require.NoError(t, s.UpdateIncident(ctx, in))

	got, ok := s.Incident("i2")
	require.True(t, ok)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, 120.0, got.CostValue())

	require.NoError(t, s.DeleteIncident(ctx, "i2"))
	_, ok = s.Incident("i2")
	assert.False(t, ok)
	assert.Len(t, s.Incidents(), 1)
}

func TestReadsReturnCopies(t *testing.T) {
	s := openStore(t, storage.NewMemoryKV())

	incidents := s.Incidents()
	incidents[0].Files[0].Name = "tampered.pdf"
	*incidents[0].Cost = 1

	fresh, _ := s.Incident("i1")
	assert.Equal(t, "invoice.pdf", fresh.Files[0].Name)
	assert.Equal(t, 80.0, fresh.CostValue())
}

func TestRoundTrip_ReloadReproducesState(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	s := openStore(t, kv)

	require.NoError(t, s.AddPatient(ctx, domain.Patient{ID: "p2", Name: "Ann", DateOfBirth: "2000-02-29"}))
	require.NoError(t, s.AddIncident(ctx, domain.Incident{
		ID: "i2", PatientID: "p2", Title: "Crown", AppointmentDate: "2025-09-10T14:00",
		Cost: cost(300), Status: domain.StatusScheduled, NextDate: "2025-10-10T14:00",
		Files: []domain.IncidentFile{{Name: "a.txt", URL: "data:text/plain;base64,aGk="}},
	}))
	require.NoError(t, s.UpdatePatient(ctx, domain.Patient{ID: "p1", Name: "John Q. Doe"}))
	_, _, err := s.Login(ctx, "admin@entnt.in", "admin123")
	require.NoError(t, err)

	reloaded := openStore(t, kv)
	assert.Equal(t, s.Snapshot(), reloaded.Snapshot())

	require.NoError(t, s.DeletePatient(ctx, "p1"))
	require.NoError(t, s.Logout(ctx))
	reloaded = openStore(t, kv)
	assert.Equal(t, s.Snapshot(), reloaded.Snapshot())
}

func TestPersistFailure_LeavesMemoryUnchanged(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{MemoryKV: storage.NewMemoryKV(), failOn: map[string]bool{}}
	s := openStore(t, kv)

	kv.failOn["patients"] = true
	err := s.AddPatient(ctx, domain.Patient{ID: "p2"})
	require.Error(t, err)
	assert.Equal(t, seedPatients(), s.Patients())

	kv.failOn["user"] = true
	_, ok, err := s.Login(ctx, "admin@entnt.in", "admin123")
	require.Error(t, err)
	assert.False(t, ok)
	_, loggedIn := s.CurrentUser()
	assert.False(t, loggedIn)
}

func TestDeletePatient_IncidentWriteFailureKeepsPatientsDurable(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{MemoryKV: storage.NewMemoryKV(), failOn: map[string]bool{}}
	s := openStore(t, kv)

	kv.failOn["incidents"] = true
	require.Error(t, s.DeletePatient(ctx, "p1"))

	// 内存与持久化保持一致：患者已删除，预约保留为孤儿
	assert.Empty(t, s.Patients())
	assert.Len(t, s.Incidents(), 1)
	reloaded := openStore(t, kv.MemoryKV)
	assert.Len(t, reloaded.Incidents(), 1)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	s := openStore(t, kv)

	require.NoError(t, s.DeletePatient(ctx, "p1"))
	_, _, err := s.Login(ctx, "admin@entnt.in", "admin123")
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))
	assert.Equal(t, seedPatients(), s.Patients())
	assert.Equal(t, seedIncidents(), s.Incidents())
	_, loggedIn := s.CurrentUser()
	assert.False(t, loggedIn)
}

func TestReset_PartialWriteKeepsMemoryInStep(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{MemoryKV: storage.NewMemoryKV(), failOn: map[string]bool{}}
	s := openStore(t, kv)

	require.NoError(t, s.AddPatient(ctx, domain.Patient{ID: "p2", Name: "Jane"}))
	require.NoError(t, s.DeleteIncident(ctx, "i1"))

	kv.failOn["incidents"] = true
	require.Error(t, s.Reset(ctx))

	// users/patients 已写入并切换；incidents 写入失败，保持原状
	assert.Equal(t, seedPatients(), s.Patients())
	assert.Empty(t, s.Incidents())

	reloaded := openStore(t, kv.MemoryKV)
	assert.Equal(t, s.Patients(), reloaded.Patients())
	// 空集合在重新加载时会被种子填充
	assert.Equal(t, seedIncidents(), reloaded.Incidents())
}

func TestNotifier(t *testing.T) {
	ctx := context.Background()
	n := &recordingNotifier{err: errors.New("broker down")}
	s := openStore(t, storage.NewMemoryKV(), WithNotifier(n))

	require.NoError(t, s.AddPatient(ctx, domain.Patient{ID: "p2"}))
	require.NoError(t, s.UpdatePatient(ctx, domain.Patient{ID: "missing"}))
	require.NoError(t, s.DeletePatient(ctx, "p2"))
	_, ok, err := s.Login(ctx, "nobody", "x")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, s.Logout(ctx))
	require.NoError(t, s.Reset(ctx))

	assert.Equal(t, []domain.Change{
		{Collection: "patients", Op: domain.OpAdd, ID: "p2"},
		{Collection: "patients", Op: domain.OpDelete, ID: "p2"},
		{Collection: "user", Op: domain.OpLogout},
		{Collection: "*", Op: domain.OpReset},
	}, n.changes)
}

func TestNewIDs(t *testing.T) {
	assert.Regexp(t, `^p[0-9a-f-]{36}$`, NewPatientID())
	assert.Regexp(t, `^i[0-9a-f-]{36}$`, NewIncidentID())
	assert.NotEqual(t, NewIncidentID(), NewIncidentID())
}

func TestModifyIncident(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	n := &recordingNotifier{}
	s := openStore(t, kv, WithNotifier(n))

	got, err := s.ModifyIncident(ctx, "i1", func(in *domain.Incident) error {
		in.Status = domain.StatusCancelled
		in.ID = "hijacked"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "i1", got.ID)
	assert.Equal(t, domain.StatusCancelled, got.Status)
	assert.Equal(t, []domain.Change{{Collection: "incidents", Op: domain.OpUpdate, ID: "i1"}}, n.changes)

	reloaded := openStore(t, kv)
	in, ok := reloaded.Incident("i1")
	require.True(t, ok)
	assert.Equal(t, domain.StatusCancelled, in.Status)

	_, err = s.ModifyIncident(ctx, "nope", func(*domain.Incident) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)

	abort := errors.New("abort")
	_, err = s.ModifyIncident(ctx, "i1", func(in *domain.Incident) error {
		in.Title = "changed"
		return abort
	})
	assert.ErrorIs(t, err, abort)
	in, _ = s.Incident("i1")
	assert.Equal(t, "Toothache", in.Title)
	assert.Len(t, n.changes, 1)
}

func TestModifyIncident_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, storage.NewMemoryKV())

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ModifyIncident(ctx, "i1", func(in *domain.Incident) error {
				in.Files = append(in.Files, domain.IncidentFile{Name: fmt.Sprintf("f%d.txt", i)})
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	in, _ := s.Incident("i1")
	assert.Len(t, in.Files, 2+writers)
}
