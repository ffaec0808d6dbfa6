package integration

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	assignmentrepo "github.com/Ramsey-B/fern/internal/repositories/assignment"
	auditrepo "github.com/Ramsey-B/fern/internal/repositories/audit"
	deliveryrepo "github.com/Ramsey-B/fern/internal/repositories/delivery"
	issuerepo "github.com/Ramsey-B/fern/internal/repositories/issue"
	schedulerepo "github.com/Ramsey-B/fern/internal/repositories/schedule"
	"github.com/Ramsey-B/fern/internal/services/scheduler"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/faults"
	"github.com/Ramsey-B/fern/pkg/models"
)

// pgContext holds shared state for the Postgres-backed tests. The tests run
// against the database named by TEST_DATABASE_DSN with the db/pg migrations
// applied, and skip when it is not set.
type pgContext struct {
	ctx      context.Context
	raw      *sqlx.DB
	db       database.DB
	tenantID string

	schedules   *schedulerepo.Repository
	assignments *assignmentrepo.Repository
	deliveries  *deliveryrepo.Repository
	issues      *issuerepo.Repository
	audits      *auditrepo.Repository
}

func setupPostgres(t *testing.T) *pgContext {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	raw, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	db := database.NewDatabaseInstance(raw, logger)

	return &pgContext{
		ctx:         context.Background(),
		raw:         raw,
		db:          db,
		tenantID:    "test-tenant-" + uuid.New().String()[:8],
		schedules:   schedulerepo.NewRepository(db, logger),
		assignments: assignmentrepo.NewRepository(db, logger),
		deliveries:  deliveryrepo.NewRepository(db, logger),
		issues:      issuerepo.NewRepository(db, logger),
		audits:      auditrepo.NewRepository(db, logger),
	}
}

func (tc *pgContext) createSchedule(t *testing.T, date time.Time, wave int) *models.Schedule {
	t.Helper()
	sched, err := tc.schedules.Create(tc.ctx, &models.Schedule{
		TenantID:         tc.tenantID,
		BatchRef:         "batch-" + uuid.New().String()[:8],
		DistributionDate: date,
		Wave:             wave,
	})
	require.NoError(t, err)
	return sched
}

func (tc *pgContext) createVehicle(t *testing.T) string {
	t.Helper()
	id := uuid.New().String()
	_, err := tc.raw.Exec(
		`INSERT INTO vehicles (id, tenant_id, plate_number, vehicle_type, capacity_portions, is_refrigerated, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, 'van', 200, false, true, NOW(), NOW())`,
		id, tc.tenantID, "34-TEST-"+uuid.New().String()[:4],
	)
	require.NoError(t, err)
	return id
}

func TestResolveIssueIsOneWay(t *testing.T) {
	tc := setupPostgres(t)
	sched := tc.createSchedule(t, time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC), 1)

	issue, err := tc.issues.Create(tc.ctx, &models.Issue{
		TenantID:    tc.tenantID,
		ScheduleID:  sched.ID,
		IssueType:   models.IssueTypeTrafficDelay,
		Severity:    models.IssueSeverityMedium,
		Description: "bridge closed on the northern route",
		ReportedBy:  "driver-1",
	})
	require.NoError(t, err)

	notes := "rerouted via the coastal road"
	ok, err := tc.issues.Resolve(tc.ctx, tc.tenantID, issue.ID, "coordinator-1", &notes)
	require.NoError(t, err)
	require.True(t, ok)

	first, err := tc.issues.Get(tc.ctx, tc.tenantID, issue.ID)
	require.NoError(t, err)
	require.NotNil(t, first.ResolvedAt)
	require.NotNil(t, first.ResolvedBy)
	assert.Equal(t, "coordinator-1", *first.ResolvedBy)

	// A second resolve must not touch the record.
	otherNotes := "someone else resolved it differently"
	ok, err = tc.issues.Resolve(tc.ctx, tc.tenantID, issue.ID, "coordinator-2", &otherNotes)
	require.NoError(t, err)
	assert.False(t, ok)

	second, err := tc.issues.Get(tc.ctx, tc.tenantID, issue.ID)
	require.NoError(t, err)
	require.NotNil(t, second.ResolvedAt)
	require.NotNil(t, second.ResolvedBy)
	assert.Equal(t, "coordinator-1", *second.ResolvedBy)
	assert.True(t, first.ResolvedAt.Equal(*second.ResolvedAt))
	require.NotNil(t, second.ResolutionNotes)
	assert.Equal(t, notes, *second.ResolutionNotes)
}

func TestNoDoubleBooking(t *testing.T) {
	tc := setupPostgres(t)
	date := time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC)
	schedA := tc.createSchedule(t, date, 1)
	schedB := tc.createSchedule(t, date, 1)
	vehicleID := tc.createVehicle(t)

	results := make([]error, 2)
	var wg sync.WaitGroup
	for i, scheduleID := range []string{schedA.ID, schedB.ID} {
		wg.Add(1)
		go func(i int, scheduleID string) {
			defer wg.Done()
			_, err := tc.assignments.Create(tc.ctx, &models.VehicleAssignment{
				TenantID:         tc.tenantID,
				ScheduleID:       scheduleID,
				VehicleID:        vehicleID,
				DriverID:         "driver-1",
				DistributionDate: date,
				Wave:             1,
			})
			results[i] = err
		}(i, scheduleID)
	}
	wg.Wait()

	var successes, rejections int
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		switch faults.Code(err) {
		case faults.CodeVehicleConflict, faults.CodeConcurrentModification:
			rejections++
		default:
			t.Fatalf("unexpected failure: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, rejections)

	// A booking for the cancelled race loser's slot is fine on a different wave.
	schedC := tc.createSchedule(t, date, 2)
	_, err := tc.assignments.Create(tc.ctx, &models.VehicleAssignment{
		TenantID:         tc.tenantID,
		ScheduleID:       schedC.ID,
		VehicleID:        vehicleID,
		DriverID:         "driver-1",
		DistributionDate: date,
		Wave:             2,
	})
	assert.NoError(t, err)
}

func TestDeleteScheduleWithDeliveries(t *testing.T) {
	tc := setupPostgres(t)
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	svc := scheduler.NewService(tc.schedules, tc.assignments, tc.deliveries, tc.issues, tc.audits, nil, nil, logger)

	sched := tc.createSchedule(t, time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC), 1)
	_, err := tc.deliveries.Create(tc.ctx, &models.Delivery{
		TenantID:        tc.tenantID,
		ScheduleID:      sched.ID,
		TargetType:      models.TargetTypeSite,
		TargetName:      "community center",
		PortionsPlanned: 100,
		FoodType:        models.FoodTypeHot,
	})
	require.NoError(t, err)

	err = svc.Delete(tc.ctx, tc.tenantID, sched.ID)
	require.Error(t, err)
	assert.Equal(t, faults.CodeImmutableRecord, faults.Code(err))

	// The schedule is untouched.
	kept, err := tc.schedules.Get(tc.ctx, tc.tenantID, sched.ID)
	require.NoError(t, err)
	assert.Nil(t, kept.DeletedAt)

	// An empty schedule deletes fine.
	empty := tc.createSchedule(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), 1)
	require.NoError(t, svc.Delete(tc.ctx, tc.tenantID, empty.ID))
	_, err = tc.schedules.Get(tc.ctx, tc.tenantID, empty.ID)
	assert.Equal(t, faults.CodeNotFound, faults.Code(err))
}
