package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/scheduling/internal/db"
	"github.com/clinicops/scheduling/internal/schedule"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	practitioners, err := seedPractitioners(context.Background(), pool, 100)
	if err != nil {
		log.Fatalf("seed practitioners: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 9000); err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedCalendars(context.Background(), pool, practitioners); err != nil {
		log.Fatalf("seed calendars: %v", err)
	}

	log.Println("seed complete")
}

func seedPractitioners(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d practitioners", count)

	specialties := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}

	clinics := make([]uuid.UUID, 8)
	for i := range clinics {
		clinics[i] = uuid.New()
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]
		clinic := clinics[gofakeit.Number(0, len(clinics)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO practitioners (id, name, specialty, clinic_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
		`, id, name, spec, clinic)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("practitioners seeded")
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			name := gofakeit.Name()
			email := gofakeit.Email()

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, email, created_at, updated_at)
				VALUES ($1, $2, $3, now(), now())
			`, id, name, email)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return nil
}

func seedCalendars(ctx context.Context, pool *pgxpool.Pool, practitioners []uuid.UUID) error {
	log.Printf("seeding %d calendars", len(practitioners))

	store := schedule.NewPgCalendarStore(pool)

	for _, id := range practitioners {
		cal := &schedule.Calendar{
			PractitionerID: id,
			WorkingDays:    weekdayHours("09:00", "17:00"),
			Breaks:         lunchBreaks("12:00", "13:00"),
			SlotDuration:   []int{15, 20, 30, 30, 60}[gofakeit.Number(0, 4)],
		}

		// Some practitioners are off for a stretch next month.
		if gofakeit.Number(0, 4) == 0 {
			start := schedule.Today().AddDays(gofakeit.Number(20, 40))
			cal.Vacations = []schedule.Vacation{{
				Start:  start,
				End:    start.AddDays(gofakeit.Number(2, 13)),
				Reason: "annual leave",
			}}
		}

		if err := store.PutCalendar(ctx, cal); err != nil {
			return err
		}
	}

	log.Println("calendars seeded")
	return nil
}

func weekdayHours(start, end string) map[schedule.Weekday]schedule.WorkingDay {
	from := mustTime(start)
	to := mustTime(end)

	days := make(map[schedule.Weekday]schedule.WorkingDay, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		working := d != time.Saturday && d != time.Sunday
		wd := schedule.WorkingDay{Working: working}
		if working {
			wd.Start = from
			wd.End = to
		}
		days[schedule.Weekday(d)] = wd
	}
	return days
}

func lunchBreaks(start, end string) []schedule.Break {
	var breaks []schedule.Break
	for d := time.Monday; d <= time.Friday; d++ {
		breaks = append(breaks, schedule.Break{
			Day:    schedule.Weekday(d),
			Start:  mustTime(start),
			End:    mustTime(end),
			Reason: "lunch",
		})
	}
	return breaks
}

func mustTime(s string) schedule.TimeOfDay {
	t, err := schedule.ParseTimeOfDay(s)
	if err != nil {
		log.Fatalf("bad time literal %q: %v", s, err)
	}
	return t
}
