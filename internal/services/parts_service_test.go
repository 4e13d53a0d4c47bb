package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amos-netizen/MotoTrack/internal/apperr"
	"github.com/amos-netizen/MotoTrack/internal/models"
)

func TestPartsRequestLifecycle(t *testing.T) {
	fx := newJobFixture(t)
	workshop := seedUser(t, fx.conn, models.RoleWorkshopManager, fx.garage.ID)
	warehouse := seedUser(t, fx.conn, models.RoleWarehouseManager, fx.garage.ID)
	item := seedItem(t, fx.conn, "Brake pads", 10, 10)
	parts := NewPartsService(fx.conn)

	req, err := parts.CreateRequest(context.Background(), identFor(fx.technician), fx.job.ID, CreateRequestInput{
		WarehouseItemID: item.ID,
		Quantity:        2,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, req.Status)

	// Raising the request pauses the job.
	var job models.Job
	require.NoError(t, fx.conn.First(&job, fx.job.ID).Error)
	assert.Equal(t, models.JobAwaitingParts, job.Status)

	req, err = parts.Approve(context.Background(), identFor(workshop), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, req.Status)
	require.NotNil(t, req.ApprovedByID)
	assert.Equal(t, workshop.ID, *req.ApprovedByID)

	req, err = parts.Issue(context.Background(), identFor(warehouse), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestIssued, req.Status)

	// Stock went down by the issued quantity.
	var stocked models.WarehouseItem
	require.NoError(t, fx.conn.First(&stocked, item.ID).Error)
	assert.Equal(t, 8, stocked.QuantityInStock)

	// Issuing the last outstanding request resumes the job.
	require.NoError(t, fx.conn.First(&job, fx.job.ID).Error)
	assert.Equal(t, models.JobInProgress, job.Status)

	req, err = parts.Complete(context.Background(), identFor(fx.technician), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestCompleted, req.Status)
}

func TestCreateRequestGuards(t *testing.T) {
	fx := newJobFixture(t)
	item := seedItem(t, fx.conn, "Oil filter", 3, 5)
	parts := NewPartsService(fx.conn)
	tech := identFor(fx.technician)

	_, err := parts.CreateRequest(context.Background(), tech, fx.job.ID, CreateRequestInput{
		WarehouseItemID: item.ID, Quantity: 0,
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = parts.CreateRequest(context.Background(), tech, fx.job.ID, CreateRequestInput{
		WarehouseItemID: item.ID + 99, Quantity: 1,
	})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	// Requesting more than is on the shelf is refused outright.
	_, err = parts.CreateRequest(context.Background(), tech, fx.job.ID, CreateRequestInput{
		WarehouseItemID: item.ID, Quantity: 4,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// Nothing was recorded and the job did not pause.
	var count int64
	require.NoError(t, fx.conn.Model(&models.SparePartRequest{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
	var job models.Job
	require.NoError(t, fx.conn.First(&job, fx.job.ID).Error)
	assert.Equal(t, models.JobInProgress, job.Status)
}

func TestCreateRequestRefusedAfterCompletion(t *testing.T) {
	fx := newJobFixture(t)
	item := seedItem(t, fx.conn, "Wiper blade", 5, 12)
	parts := NewPartsService(fx.conn)
	tech := identFor(fx.technician)

	_, err := fx.jobs.Complete(context.Background(), tech, fx.job.ID)
	require.NoError(t, err)

	// A completed job cannot reacquire open requests.
	_, err = parts.CreateRequest(context.Background(), tech, fx.job.ID, CreateRequestInput{
		WarehouseItemID: item.ID, Quantity: 1,
	})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	var count int64
	require.NoError(t, fx.conn.Model(&models.SparePartRequest{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestRejectAppendsReason(t *testing.T) {
	fx := newJobFixture(t)
	workshop := seedUser(t, fx.conn, models.RoleWorkshopManager, fx.garage.ID)
	item := seedItem(t, fx.conn, "Headlight", 5, 30)
	parts := NewPartsService(fx.conn)

	req, err := parts.CreateRequest(context.Background(), identFor(fx.technician), fx.job.ID, CreateRequestInput{
		WarehouseItemID: item.ID, Quantity: 1, Notes: "left side",
	})
	require.NoError(t, err)

	req, err = parts.Reject(context.Background(), identFor(workshop), req.ID, "use refurbished unit")
	require.NoError(t, err)
	assert.Equal(t, models.RequestRejected, req.Status)
	assert.Contains(t, req.Notes, "left side")
	assert.Contains(t, req.Notes, "use refurbished unit")

	// Rejection is terminal.
	_, err = parts.Approve(context.Background(), identFor(workshop), req.ID)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// A rejected request no longer blocks completion.
	job, err := fx.jobs.Complete(context.Background(), identFor(fx.technician), fx.job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, job.Status)
}

func TestOpenRequestBlocksCompletion(t *testing.T) {
	fx := newJobFixture(t)
	workshop := seedUser(t, fx.conn, models.RoleWorkshopManager, fx.garage.ID)
	warehouse := seedUser(t, fx.conn, models.RoleWarehouseManager, fx.garage.ID)
	item := seedItem(t, fx.conn, "Clutch plate", 2, 55)
	parts := NewPartsService(fx.conn)

	req, err := parts.CreateRequest(context.Background(), identFor(fx.technician), fx.job.ID, CreateRequestInput{
		WarehouseItemID: item.ID, Quantity: 1,
	})
	require.NoError(t, err)

	_, err = fx.jobs.Complete(context.Background(), identFor(fx.technician), fx.job.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// Approved still counts as outstanding.
	_, err = parts.Approve(context.Background(), identFor(workshop), req.ID)
	require.NoError(t, err)
	_, err = fx.jobs.Complete(context.Background(), identFor(fx.technician), fx.job.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = parts.Issue(context.Background(), identFor(warehouse), req.ID)
	require.NoError(t, err)
	job, err := fx.jobs.Complete(context.Background(), identFor(fx.technician), fx.job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, job.Status)
}

func TestIssueRechecksStock(t *testing.T) {
	fx := newJobFixture(t)
	workshop := seedUser(t, fx.conn, models.RoleWorkshopManager, fx.garage.ID)
	warehouse := seedUser(t, fx.conn, models.RoleWarehouseManager, fx.garage.ID)
	item := seedItem(t, fx.conn, "Alternator", 1, 120)
	parts := NewPartsService(fx.conn)

	req, err := parts.CreateRequest(context.Background(), identFor(fx.technician), fx.job.ID, CreateRequestInput{
		WarehouseItemID: item.ID, Quantity: 1,
	})
	require.NoError(t, err)
	req, err = parts.Approve(context.Background(), identFor(workshop), req.ID)
	require.NoError(t, err)

	// Stock drained between approval and issuance.
	require.NoError(t, fx.conn.Model(&models.WarehouseItem{}).
		Where("id = ?", item.ID).Update("quantity_in_stock", 0).Error)

	_, err = parts.Issue(context.Background(), identFor(warehouse), req.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// The failed issuance left the request approved and the stock untouched.
	var fresh models.SparePartRequest
	require.NoError(t, fx.conn.First(&fresh, req.ID).Error)
	assert.Equal(t, models.RequestApproved, fresh.Status)
}

func TestListPendingPerRole(t *testing.T) {
	fx := newJobFixture(t)
	workshop := seedUser(t, fx.conn, models.RoleWorkshopManager, fx.garage.ID)
	warehouse := seedUser(t, fx.conn, models.RoleWarehouseManager, fx.garage.ID)
	item := seedItem(t, fx.conn, "Wiper blades", 20, 4)
	parts := NewPartsService(fx.conn)

	a, err := parts.CreateRequest(context.Background(), identFor(fx.technician), fx.job.ID, CreateRequestInput{
		WarehouseItemID: item.ID, Quantity: 1,
	})
	require.NoError(t, err)
	b, err := parts.CreateRequest(context.Background(), identFor(fx.technician), fx.job.ID, CreateRequestInput{
		WarehouseItemID: item.ID, Quantity: 2,
	})
	require.NoError(t, err)
	_, err = parts.Approve(context.Background(), identFor(workshop), b.ID)
	require.NoError(t, err)

	forWorkshop, err := parts.ListPending(context.Background(), identFor(workshop))
	require.NoError(t, err)
	require.Len(t, forWorkshop, 1)
	assert.Equal(t, a.ID, forWorkshop[0].ID)

	forWarehouse, err := parts.ListPending(context.Background(), identFor(warehouse))
	require.NoError(t, err)
	require.Len(t, forWarehouse, 1)
	assert.Equal(t, b.ID, forWarehouse[0].ID)

	forTech, err := parts.ListPending(context.Background(), identFor(fx.technician))
	require.NoError(t, err)
	assert.Len(t, forTech, 2)
}
