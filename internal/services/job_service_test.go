package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amos-netizen/MotoTrack/internal/apperr"
	"github.com/amos-netizen/MotoTrack/internal/models"
)

func TestCreateJobRegistersVehicleOnce(t *testing.T) {
	conn := setupTestDB(t)
	garage := seedGarage(t, conn)
	manager := seedUser(t, conn, models.RoleSiteManager, garage.ID)
	jobs := NewJobService(conn)

	first, err := jobs.Create(context.Background(), identFor(manager), CreateJobInput{
		RegistrationNumber: "KDA-001B",
		OwnerName:          "Sam Owner",
		OwnerContact:       "+254700000002",
		CurrentMileage:     10000,
		OperationsStream:   models.StreamBodyWorks,
		RevenueStream:      models.RevenueWalkIn,
		IssuesReported:     "dented door",
	})
	require.NoError(t, err)
	assert.Equal(t, models.JobReceived, first.Status)
	require.NotNil(t, first.Vehicle)

	// Second visit: same vehicle row, mileage moves forward.
	second, err := jobs.Create(context.Background(), identFor(manager), CreateJobInput{
		RegistrationNumber: "KDA-001B",
		CurrentMileage:     15000,
		OperationsStream:   models.StreamElectricalWorks,
		RevenueStream:      models.RevenueScheduledService,
		IssuesReported:     "dashboard lights dead",
	})
	require.NoError(t, err)
	assert.Equal(t, first.VehicleID, second.VehicleID)

	var vehicleCount int64
	require.NoError(t, conn.Model(&models.Vehicle{}).Count(&vehicleCount).Error)
	assert.EqualValues(t, 1, vehicleCount)

	var vehicle models.Vehicle
	require.NoError(t, conn.First(&vehicle, first.VehicleID).Error)
	assert.Equal(t, 15000, vehicle.CurrentMileage)
}

func TestCreateJobRejectsBadInput(t *testing.T) {
	conn := setupTestDB(t)
	garage := seedGarage(t, conn)
	manager := seedUser(t, conn, models.RoleSiteManager, garage.ID)
	jobs := NewJobService(conn)

	_, err := jobs.Create(context.Background(), identFor(manager), CreateJobInput{
		OperationsStream: "plumbing",
		RevenueStream:    models.RevenueWalkIn,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	// All bad fields are reported together.
	assert.Contains(t, err.Error(), "registration_number")
	assert.Contains(t, err.Error(), "operations_stream")

	var jobCount int64
	require.NoError(t, conn.Model(&models.Job{}).Count(&jobCount).Error)
	assert.EqualValues(t, 0, jobCount)
}

func TestAssignJob(t *testing.T) {
	conn := setupTestDB(t)
	garage := seedGarage(t, conn)
	manager := seedUser(t, conn, models.RoleSiteManager, garage.ID)
	technician := seedUser(t, conn, models.RoleTechnician, garage.ID)
	outsider := seedUser(t, conn, models.RoleBilling, garage.ID)
	jobs := NewJobService(conn)

	job, err := jobs.Create(context.Background(), identFor(manager), CreateJobInput{
		RegistrationNumber: "KDB-002C",
		OwnerName:          "O",
		OwnerContact:       "C",
		OperationsStream:   models.StreamMechanicalWorks,
		RevenueStream:      models.RevenueWalkIn,
		IssuesReported:     "brakes",
	})
	require.NoError(t, err)

	// Only users holding the technician role can be assigned.
	_, err = jobs.Assign(context.Background(), identFor(manager), job.ID, outsider.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	job, err = jobs.Assign(context.Background(), identFor(manager), job.ID, technician.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobAssigned, job.Status)
	require.NotNil(t, job.TechnicianID)
	assert.Equal(t, technician.ID, *job.TechnicianID)
	assert.NotNil(t, job.AssignedAt)
}

func TestTechnicianCannotTouchOthersJob(t *testing.T) {
	fx := newJobFixture(t)
	other := seedUser(t, fx.conn, models.RoleTechnician, fx.garage.ID)

	done := "replaced pads"
	_, err := fx.jobs.Update(context.Background(), identFor(other), fx.job.ID, UpdateJobInput{WorkDone: &done})
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = fx.jobs.Get(context.Background(), identFor(other), fx.job.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestJobsScopedToGarage(t *testing.T) {
	fx := newJobFixture(t)
	otherGarage := models.Garage{Name: "Branch", Address: "2 Depot Ln"}
	require.NoError(t, fx.conn.Create(&otherGarage).Error)
	otherManager := seedUser(t, fx.conn, models.RoleSiteManager, otherGarage.ID)

	_, err := fx.jobs.Get(context.Background(), identFor(otherManager), fx.job.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestReviewAndBillingTransitions(t *testing.T) {
	fx := newJobFixture(t)
	workshop := seedUser(t, fx.conn, models.RoleWorkshopManager, fx.garage.ID)

	// Review before completion is refused.
	_, err := fx.jobs.ManagerReview(context.Background(), identFor(workshop), fx.job.ID, "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	job, err := fx.jobs.Complete(context.Background(), identFor(fx.technician), fx.job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, job.Status)
	assert.NotNil(t, job.CompletedAt)

	job, err = fx.jobs.ManagerReview(context.Background(), identFor(workshop), fx.job.ID, "work verified")
	require.NoError(t, err)
	assert.Equal(t, models.JobManagerReview, job.Status)
	assert.Equal(t, "work verified", job.ManagerNotes)

	job, err = fx.jobs.MoveToBilling(context.Background(), identFor(workshop), fx.job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobBilling, job.Status)
}

func TestCancelIsTerminal(t *testing.T) {
	fx := newJobFixture(t)

	job, err := fx.jobs.Cancel(context.Background(), identFor(fx.manager), fx.job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobCancelled, job.Status)

	_, err = fx.jobs.Cancel(context.Background(), identFor(fx.manager), fx.job.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	status := models.JobInProgress
	_, err = fx.jobs.Update(context.Background(), identFor(fx.technician), fx.job.ID, UpdateJobInput{Status: &status})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestListFiltersAndTechnicianVisibility(t *testing.T) {
	fx := newJobFixture(t)

	// A second, unassigned job in the same garage.
	_, err := fx.jobs.Create(context.Background(), identFor(fx.manager), CreateJobInput{
		RegistrationNumber: "KDC-003D",
		OwnerName:          "O2",
		OwnerContact:       "C2",
		OperationsStream:   models.StreamInteriorWorks,
		RevenueStream:      models.RevenueSpareParts,
		IssuesReported:     "torn seats",
	})
	require.NoError(t, err)

	all, err := fx.jobs.List(context.Background(), identFor(fx.manager), JobFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	interior, err := fx.jobs.List(context.Background(), identFor(fx.manager), JobFilter{OperationsStream: models.StreamInteriorWorks})
	require.NoError(t, err)
	assert.Len(t, interior, 1)

	mine, err := fx.jobs.List(context.Background(), identFor(fx.technician), JobFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, fx.job.ID, mine[0].ID)
}
