package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amos-netizen/MotoTrack/internal/apperr"
	"github.com/amos-netizen/MotoTrack/internal/models"
)

// billingFixture walks one job all the way to billing with a completed
// labor task and a completed part request.
type billingFixture struct {
	*jobFixture
	workshop models.User
	clerk    models.User
	item     models.WarehouseItem
	billing  *BillingService
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()
	fx := newJobFixture(t)
	workshop := seedUser(t, fx.conn, models.RoleWorkshopManager, fx.garage.ID)
	warehouse := seedUser(t, fx.conn, models.RoleWarehouseManager, fx.garage.ID)
	clerk := seedUser(t, fx.conn, models.RoleBilling, fx.garage.ID)
	item := seedItem(t, fx.conn, "Spark plug", 10, 10)

	tasks := NewTaskService(fx.conn)
	action, err := tasks.CreateAction(context.Background(), TaskActionInput{
		OperationsStream: models.StreamMechanicalWorks,
		Name:             "Engine tune-up",
		DefaultLaborCost: 50,
	})
	require.NoError(t, err)
	link, err := tasks.AddToJob(context.Background(), identFor(fx.technician), fx.job.ID, AddJobTaskInput{
		TaskActionID: action.ID,
	})
	require.NoError(t, err)
	_, err = tasks.CompleteOnJob(context.Background(), identFor(fx.technician), fx.job.ID, link.ID)
	require.NoError(t, err)

	parts := NewPartsService(fx.conn)
	req, err := parts.CreateRequest(context.Background(), identFor(fx.technician), fx.job.ID, CreateRequestInput{
		WarehouseItemID: item.ID, Quantity: 2,
	})
	require.NoError(t, err)
	_, err = parts.Approve(context.Background(), identFor(workshop), req.ID)
	require.NoError(t, err)
	_, err = parts.Issue(context.Background(), identFor(warehouse), req.ID)
	require.NoError(t, err)
	_, err = parts.Complete(context.Background(), identFor(fx.technician), req.ID)
	require.NoError(t, err)

	_, err = fx.jobs.Complete(context.Background(), identFor(fx.technician), fx.job.ID)
	require.NoError(t, err)
	_, err = fx.jobs.ManagerReview(context.Background(), identFor(workshop), fx.job.ID, "ok")
	require.NoError(t, err)
	_, err = fx.jobs.MoveToBilling(context.Background(), identFor(workshop), fx.job.ID)
	require.NoError(t, err)

	return &billingFixture{
		jobFixture: fx,
		workshop:   workshop,
		clerk:      clerk,
		item:       item,
		billing:    NewBillingService(fx.conn),
	}
}

func TestAutoInvoiceTotals(t *testing.T) {
	fx := newBillingFixture(t)

	// Labor 50 plus 2 x 10 parts = 70 subtotal; 10% tax brings it to 77.
	inv, err := fx.billing.AutoInvoice(context.Background(), identFor(fx.clerk), fx.job.ID, 10)
	require.NoError(t, err)
	assert.InDelta(t, 70.0, inv.Subtotal, 0.001)
	assert.InDelta(t, 7.0, inv.Tax, 0.001)
	assert.InDelta(t, 77.0, inv.Total, 0.001)
	require.Len(t, inv.Items, 2)
	assert.True(t, strings.HasPrefix(inv.InvoiceNumber, "INV-"))
	assert.Len(t, inv.InvoiceNumber, len("INV-20060102-XXXXXX"))

	var job models.Job
	require.NoError(t, fx.conn.First(&job, fx.job.ID).Error)
	assert.Equal(t, models.JobInvoiced, job.Status)
	require.NotNil(t, job.InvoiceID)
	assert.Equal(t, inv.ID, *job.InvoiceID)
}

func TestOneInvoicePerJob(t *testing.T) {
	fx := newBillingFixture(t)
	clerk := identFor(fx.clerk)

	_, err := fx.billing.AutoInvoice(context.Background(), clerk, fx.job.ID, 10)
	require.NoError(t, err)

	// A second attempt conflicts regardless of mode.
	_, err = fx.billing.AutoInvoice(context.Background(), clerk, fx.job.ID, 10)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = fx.billing.CreateInvoice(context.Background(), clerk, fx.job.ID, CreateInvoiceInput{
		Items: []InvoiceItemInput{{Description: "Labor", Quantity: 1, UnitPrice: 10, ItemType: models.ItemTypeLabor}},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestManualInvoiceValidation(t *testing.T) {
	fx := newBillingFixture(t)
	clerk := identFor(fx.clerk)

	_, err := fx.billing.CreateInvoice(context.Background(), clerk, fx.job.ID, CreateInvoiceInput{})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = fx.billing.CreateInvoice(context.Background(), clerk, fx.job.ID, CreateInvoiceInput{
		Items: []InvoiceItemInput{{Description: "Labor", Quantity: 1, UnitPrice: 10, ItemType: "consulting"}},
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	missing := uint(9999)
	_, err = fx.billing.CreateInvoice(context.Background(), clerk, fx.job.ID, CreateInvoiceInput{
		Items: []InvoiceItemInput{{WarehouseItemID: &missing, Description: "Part", Quantity: 1, UnitPrice: 10, ItemType: models.ItemTypePart}},
	})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	// Guard violations left the job un-invoiced.
	var job models.Job
	require.NoError(t, fx.conn.First(&job, fx.job.ID).Error)
	assert.Equal(t, models.JobBilling, job.Status)
	assert.Nil(t, job.InvoiceID)
}

func TestInvoiceRequiresBillingStatus(t *testing.T) {
	fx := newJobFixture(t)
	clerk := seedUser(t, fx.conn, models.RoleBilling, fx.garage.ID)
	billing := NewBillingService(fx.conn)

	_, err := billing.AutoInvoice(context.Background(), identFor(clerk), fx.job.ID, 10)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestAutoInvoiceNothingToBill(t *testing.T) {
	fx := newJobFixture(t)
	workshop := seedUser(t, fx.conn, models.RoleWorkshopManager, fx.garage.ID)
	clerk := seedUser(t, fx.conn, models.RoleBilling, fx.garage.ID)

	_, err := fx.jobs.Complete(context.Background(), identFor(fx.technician), fx.job.ID)
	require.NoError(t, err)
	_, err = fx.jobs.ManagerReview(context.Background(), identFor(workshop), fx.job.ID, "")
	require.NoError(t, err)
	_, err = fx.jobs.MoveToBilling(context.Background(), identFor(workshop), fx.job.ID)
	require.NoError(t, err)

	billing := NewBillingService(fx.conn)
	_, err = billing.AutoInvoice(context.Background(), identFor(clerk), fx.job.ID, 10)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestMarkPaid(t *testing.T) {
	fx := newBillingFixture(t)
	clerk := identFor(fx.clerk)

	inv, err := fx.billing.AutoInvoice(context.Background(), clerk, fx.job.ID, 0)
	require.NoError(t, err)
	assert.False(t, inv.Paid)

	paid, err := fx.billing.MarkPaid(context.Background(), clerk, inv.ID)
	require.NoError(t, err)
	assert.True(t, paid.Paid)
	require.NotNil(t, paid.PaidAt)
	firstPaidAt := *paid.PaidAt

	// Marking again is a no-op, not an error.
	time.Sleep(5 * time.Millisecond)
	again, err := fx.billing.MarkPaid(context.Background(), clerk, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, again.PaidAt)
	assert.Equal(t, firstPaidAt.Unix(), again.PaidAt.Unix())
}
