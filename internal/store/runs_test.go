package store_test

import (
	"context"
	"database/sql"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tupyy/artifact-collector/internal/models"
	"github.com/tupyy/artifact-collector/internal/store"
	"github.com/tupyy/artifact-collector/internal/store/migrations"
)

var _ = Describe("RunStore", func() {
	var (
		ctx context.Context
		s   *store.Store
		db  *sql.DB
		now time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

		var err error
		db, err = store.NewDB(":memory:")
		Expect(err).NotTo(HaveOccurred())

		err = migrations.Run(ctx, db)
		Expect(err).NotTo(HaveOccurred())

		s = store.NewStore(db)
	})

	AfterEach(func() {
		if db != nil {
			_ = db.Close()
		}
	})

	It("should run migrations only once", func() {
		Expect(migrations.Run(ctx, db)).To(Succeed())
	})

	Describe("Create and Get", func() {
		It("should return a running run without units", func() {
			err := s.Runs().Create(ctx, &models.Run{ID: "run-1", State: models.RunStateRunning, CreatedAt: now})
			Expect(err).NotTo(HaveOccurred())

			run, err := s.Runs().Get(ctx, "run-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(run.ID).To(Equal("run-1"))
			Expect(run.State).To(Equal(models.RunStateRunning))
			Expect(run.CreatedAt.Equal(now)).To(BeTrue())
			Expect(run.FinishedAt.IsZero()).To(BeTrue())
			Expect(run.Units).To(BeEmpty())
			Expect(run.Results).To(BeEmpty())
		})

		It("should return ErrNotFound for unknown runs", func() {
			_, err := s.Runs().Get(ctx, "missing")
			Expect(err).To(MatchError(store.ErrNotFound))
		})

		It("should reject duplicated ids", func() {
			Expect(s.Runs().Create(ctx, &models.Run{ID: "run-1", State: models.RunStateRunning, CreatedAt: now})).To(Succeed())
			Expect(s.Runs().Create(ctx, &models.Run{ID: "run-1", State: models.RunStateRunning, CreatedAt: now})).NotTo(Succeed())
		})
	})

	Describe("Finish", func() {
		BeforeEach(func() {
			Expect(s.Runs().Create(ctx, &models.Run{ID: "run-1", State: models.RunStateRunning, CreatedAt: now})).To(Succeed())
		})

		It("should save the state and the results in order", func() {
			results := []models.CollectedPath{
				{Path: "/tmp/b", Label: "web01.example.com"},
				{Path: "/tmp/a", Label: "evidence"},
			}
			err := s.Runs().Finish(ctx, "run-1", models.RunStatePartial, now.Add(time.Minute), results)
			Expect(err).NotTo(HaveOccurred())

			run, err := s.Runs().Get(ctx, "run-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(run.State).To(Equal(models.RunStatePartial))
			Expect(run.FinishedAt.Equal(now.Add(time.Minute))).To(BeTrue())
			Expect(run.Results).To(Equal(results))
		})

		It("should replace results when finished twice", func() {
			Expect(s.Runs().Finish(ctx, "run-1", models.RunStateCompleted, now, []models.CollectedPath{{Path: "/a", Label: "a"}})).To(Succeed())
			Expect(s.Runs().Finish(ctx, "run-1", models.RunStateCompleted, now, []models.CollectedPath{{Path: "/b", Label: "b"}})).To(Succeed())

			run, err := s.Runs().Get(ctx, "run-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(run.Results).To(Equal([]models.CollectedPath{{Path: "/b", Label: "b"}}))
		})

		It("should return ErrNotFound for unknown runs", func() {
			err := s.Runs().Finish(ctx, "missing", models.RunStateCompleted, now, nil)
			Expect(err).To(MatchError(store.ErrNotFound))
		})
	})

	Describe("List", func() {
		It("should list runs newest first", func() {
			Expect(s.Runs().Create(ctx, &models.Run{ID: "old", State: models.RunStateCompleted, CreatedAt: now})).To(Succeed())
			Expect(s.Runs().Create(ctx, &models.Run{ID: "new", State: models.RunStateRunning, CreatedAt: now.Add(time.Hour)})).To(Succeed())

			runs, err := s.Runs().List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(runs).To(HaveLen(2))
			Expect(runs[0].ID).To(Equal("new"))
			Expect(runs[1].ID).To(Equal("old"))
		})
	})
})

var _ = Describe("UnitStore", func() {
	var (
		ctx context.Context
		s   *store.Store
		db  *sql.DB
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		db, err = store.NewDB(":memory:")
		Expect(err).NotTo(HaveOccurred())
		Expect(migrations.Run(ctx, db)).To(Succeed())

		s = store.NewStore(db)
		Expect(s.Runs().Create(ctx, &models.Run{ID: "run-1", State: models.RunStateRunning, CreatedAt: time.Now()})).To(Succeed())
	})

	AfterEach(func() {
		if db != nil {
			_ = db.Close()
		}
	})

	It("should insert then update a unit", func() {
		status := models.UnitStatus{
			Index:  0,
			Target: models.NewHostTarget("web01"),
			State:  models.UnitStatePending,
		}
		Expect(s.Units().Upsert(ctx, "run-1", status)).To(Succeed())

		status.State = models.UnitStateFailed
		status.Error = `could not get client id for "web01"`
		Expect(s.Units().Upsert(ctx, "run-1", status)).To(Succeed())

		units, err := s.Units().List(ctx, "run-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(units).To(HaveLen(1))
		Expect(units[0].Target).To(Equal(models.NewHostTarget("web01")))
		Expect(units[0].State).To(Equal(models.UnitStateFailed))
		Expect(units[0].Error).To(ContainSubstring("web01"))
	})

	It("should list units by index and show them on the run", func() {
		Expect(s.Units().Upsert(ctx, "run-1", models.UnitStatus{Index: 1, Target: models.NewLocalPathTarget("/evidence", "case"), State: models.UnitStateCompleted, Label: "case"})).To(Succeed())
		Expect(s.Units().Upsert(ctx, "run-1", models.UnitStatus{Index: 0, Target: models.NewHuntTarget("H:1"), State: models.UnitStateRunning})).To(Succeed())

		run, err := s.Runs().Get(ctx, "run-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(run.Units).To(HaveLen(2))
		Expect(run.Units[0].Target.Kind).To(Equal(models.TargetKindHunt))
		Expect(run.Units[1].Target.Label).To(Equal("case"))
		Expect(run.Units[1].Label).To(Equal("case"))
	})
})
