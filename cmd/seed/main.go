// Seeds the local database with the clinic's demo accounts and, when a
// directory endpoint is configured, a Schedule with a week of free
// slots for every provider.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"clinic-booking-api/internal/auth"
	"clinic-booking-api/internal/config"
	"clinic-booking-api/internal/directory"
	"clinic-booking-api/internal/logging"
	"clinic-booking-api/internal/model"
	"clinic-booking-api/internal/store"
)

type seedUser struct {
	email     string
	role      model.Role
	remoteRef string
}

var seedUsers = []seedUser{
	{email: "alexander.owens@biomedical.org", role: model.RoleProvider, remoteRef: "822316"},
	{email: "sophia.ingram@biomedical.org", role: model.RoleProvider, remoteRef: "822317"},
	{email: "taylor.mckenzie@biomedical.org", role: model.RoleProvider, remoteRef: "822318"},
	{email: "elisa.bennett@biomedical.org", role: model.RoleProvider, remoteRef: "822319"},

	{email: "maria.schneider@example.com", role: model.RolePatient, remoteRef: "822300"},
	{email: "james.holden@example.com", role: model.RolePatient, remoteRef: "822301"},
	{email: "amelia.clarke@example.com", role: model.RolePatient, remoteRef: "822302"},
	{email: "lucas.moreau@example.com", role: model.RolePatient, remoteRef: "822303"},
	{email: "nina.kovacs@example.com", role: model.RolePatient, remoteRef: "822305"},
	{email: "oliver.brandt@example.com", role: model.RolePatient, remoteRef: "822306"},
	{email: "chloe.dubois@example.com", role: model.RolePatient, remoteRef: "822307"},
	{email: "daniel.petrov@example.com", role: model.RolePatient, remoteRef: "822308"},
}

var slotTimes = []directory.SlotTime{
	{Hour: 9},
	{Hour: 10},
	{Hour: 14},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connecting to database failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	st := store.New(pool)

	var dir directory.Client
	if cfg.DirectoryBaseURL != "" {
		dir, err = directory.NewHTTPClient(directory.Config{
			BaseURL: cfg.DirectoryBaseURL,
			Timeout: cfg.DirectoryTimeout,
		})
		if err != nil {
			logger.Error("creating directory client failed", "error", err)
			os.Exit(1)
		}
	} else {
		dir = directory.NewMock()
		logger.Info("no directory endpoint configured, seeding against mock directory")
	}

	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "changeme1"
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		logger.Error("hashing seed password failed", "error", err)
		os.Exit(1)
	}

	for _, su := range seedUsers {
		if _, err := st.UserByEmail(ctx, su.email); err == nil {
			logger.Info("user already exists, skipping", "email", su.email)
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			logger.Error("looking up user failed", "email", su.email, "error", err)
			os.Exit(1)
		}

		ref := su.remoteRef
		u := &model.User{
			ID:           uuid.New().String(),
			Email:        su.email,
			PasswordHash: hash,
			Role:         su.role,
		}
		if su.role == model.RolePatient {
			u.PatientRef = &ref
		} else {
			u.PractitionerRef = &ref
		}
		if err := st.CreateUser(ctx, u); err != nil {
			logger.Error("creating user failed", "email", su.email, "error", err)
			os.Exit(1)
		}
		logger.Info("user created", "email", su.email, "role", su.role)

		if su.role == model.RoleProvider {
			seedSchedule(ctx, st, dir, u, logger)
		}
	}

	logger.Info("seed complete")
}

// seedSchedule creates the provider's directory Schedule and a week of
// free slots. Directory failure leaves the provider without a schedule
// reference, which the API treats as "no slots".
func seedSchedule(ctx context.Context, st *store.Store, dir directory.Client, u *model.User, logger *logging.Logger) {
	schedRef, err := dir.CreateSchedule(ctx, *u.PractitionerRef)
	if err != nil {
		logger.Warn("creating schedule failed, provider will have no slots",
			"email", u.Email, "error", err)
		return
	}

	start := time.Now().AddDate(0, 0, 1)
	if _, err := dir.CreateSlots(ctx, schedRef, start, 7, slotTimes); err != nil {
		logger.Warn("creating slots failed", "email", u.Email, "schedule_ref", schedRef, "error", err)
	}

	if err := st.AttachScheduleRef(ctx, u.ID, schedRef); err != nil {
		logger.Warn("attaching schedule reference failed", "email", u.Email, "error", err)
		return
	}
	logger.Info("schedule created", "email", u.Email, "schedule_ref", schedRef)
}
