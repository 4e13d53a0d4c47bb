package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/amos-netizen/MotoTrack/internal/auth"
	appdb "github.com/amos-netizen/MotoTrack/internal/db"
	"github.com/amos-netizen/MotoTrack/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(appdb.AllModels...))
	return conn
}

func seedGarage(t *testing.T, conn *gorm.DB) models.Garage {
	t.Helper()
	g := models.Garage{Name: "Main-" + strings.ReplaceAll(t.Name(), "/", "_"), Address: "1 Workshop Rd"}
	require.NoError(t, conn.Create(&g).Error)
	return g
}

var userSeq int

func seedUser(t *testing.T, conn *gorm.DB, role string, garageID uint) models.User {
	t.Helper()
	userSeq++
	u := models.User{
		Email:    fmt.Sprintf("user%d@test.local", userSeq),
		Password: "x",
		Role:     role,
		GarageID: garageID,
		FullName: role + " user",
	}
	require.NoError(t, conn.Create(&u).Error)
	return u
}

func identFor(u models.User) auth.Identity {
	return auth.Identity{UserID: u.ID, Role: u.Role, GarageID: u.GarageID}
}

func seedItem(t *testing.T, conn *gorm.DB, name string, stock int, price float64) models.WarehouseItem {
	t.Helper()
	item := models.WarehouseItem{
		Name:            name,
		QuantityInStock: stock,
		UnitPrice:       price,
		ReorderLevel:    1,
		IsActive:        true,
	}
	require.NoError(t, conn.Create(&item).Error)
	return item
}

// jobFixture is the common starting point: a garage, a site manager, a
// technician and a job already assigned and in progress.
type jobFixture struct {
	conn       *gorm.DB
	garage     models.Garage
	manager    models.User
	technician models.User
	job        *models.Job
	jobs       *JobService
}

func newJobFixture(t *testing.T) *jobFixture {
	t.Helper()
	conn := setupTestDB(t)
	garage := seedGarage(t, conn)
	manager := seedUser(t, conn, models.RoleSiteManager, garage.ID)
	technician := seedUser(t, conn, models.RoleTechnician, garage.ID)
	jobs := NewJobService(conn)

	job, err := jobs.Create(context.Background(), identFor(manager), CreateJobInput{
		RegistrationNumber: "KCB-123A",
		OwnerName:          "Jane Owner",
		OwnerContact:       "+254700000001",
		CurrentMileage:     42000,
		OperationsStream:   models.StreamMechanicalWorks,
		RevenueStream:      models.RevenueWalkIn,
		IssuesReported:     "engine knock",
	})
	require.NoError(t, err)

	job, err = jobs.Assign(context.Background(), identFor(manager), job.ID, technician.ID)
	require.NoError(t, err)

	inProgress := models.JobInProgress
	job, err = jobs.Update(context.Background(), identFor(technician), job.ID, UpdateJobInput{Status: &inProgress})
	require.NoError(t, err)

	return &jobFixture{
		conn:       conn,
		garage:     garage,
		manager:    manager,
		technician: technician,
		job:        job,
		jobs:       jobs,
	}
}
