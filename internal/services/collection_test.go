package services_test

import (
	"context"
	"database/sql"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tupyy/artifact-collector/internal/config"
	"github.com/tupyy/artifact-collector/internal/models"
	"github.com/tupyy/artifact-collector/internal/services"
	"github.com/tupyy/artifact-collector/internal/store"
	"github.com/tupyy/artifact-collector/internal/store/migrations"
	"github.com/tupyy/artifact-collector/pkg/scheduler"
)

var _ = Describe("CollectionService", func() {
	var (
		ctx   context.Context
		fake  *fakeGrr
		sched *scheduler.Scheduler
		db    *sql.DB
		st    *store.Store
		srv   *services.CollectionService
	)

	BeforeEach(func() {
		ctx = context.Background()
		fake = newFakeGrr()
		sched = scheduler.NewScheduler(2)

		var err error
		db, err = store.NewDB(":memory:")
		Expect(err).NotTo(HaveOccurred())
		Expect(migrations.Run(ctx, db)).To(Succeed())
		st = store.NewStore(db)

		cfg := config.Collection{
			OutputFolder:     GinkgoT().TempDir(),
			ApprovalInterval: 5 * time.Millisecond,
			FlowInterval:     5 * time.Millisecond,
		}
		srv = services.NewCollectionService(sched, st, fake.Client(), cfg, config.DefaultArtifacts())
	})

	AfterEach(func() {
		sched.Close()
		fake.Close()
		if db != nil {
			_ = db.Close()
		}
	})

	Describe("Run", func() {
		It("should record a completed run", func() {
			local := GinkgoT().TempDir()

			run, result, err := srv.Run(ctx, models.CollectionRequest{Paths: []string{local}})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Len()).To(Equal(1))

			Expect(run.State).To(Equal(models.RunStateCompleted))
			Expect(run.FinishedAt.IsZero()).To(BeFalse())
			Expect(run.Results).To(Equal(result.Paths()))
			Expect(run.Units).To(HaveLen(1))
			Expect(run.Units[0].State).To(Equal(models.UnitStateCompleted))
			Expect(run.Units[0].Target.Kind).To(Equal(models.TargetKindLocalPath))
		})

		It("should record a partial run with the unit error", func() {
			local := GinkgoT().TempDir()

			run, result, err := srv.Run(ctx, models.CollectionRequest{Hosts: []string{"unknown"}, Paths: []string{local}})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Errors).To(HaveLen(1))

			Expect(run.State).To(Equal(models.RunStatePartial))
			Expect(run.Units[0].State).To(Equal(models.UnitStateFailed))
			Expect(run.Units[0].Error).To(ContainSubstring("could not get client id"))
		})

		It("should record a failed run when every unit failed", func() {
			run, _, err := srv.Run(ctx, models.CollectionRequest{Hosts: []string{"unknown"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(run.State).To(Equal(models.RunStateFailed))
			Expect(run.Results).To(BeEmpty())
		})

		It("should not record anything when there is nothing to collect", func() {
			_, _, err := srv.Run(ctx, models.CollectionRequest{})
			Expect(err).To(MatchError(services.ErrNoTargets))

			runs, err := srv.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(runs).To(BeEmpty())
		})
	})

	Describe("Start", func() {
		It("should run the collection in the background", func() {
			local := GinkgoT().TempDir()

			run, err := srv.Start(ctx, models.CollectionRequest{Paths: []string{local}})
			Expect(err).NotTo(HaveOccurred())
			Expect(run.ID).NotTo(BeEmpty())
			Expect(run.State).To(Equal(models.RunStateRunning))

			Eventually(func() models.RunState {
				r, err := srv.Get(ctx, run.ID)
				Expect(err).NotTo(HaveOccurred())
				return r.State
			}).Should(Equal(models.RunStateCompleted))

			runs, err := srv.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(runs).To(HaveLen(1))
		})

		It("should cancel a run waiting for an approval", func() {
			fake.AddClient(clientA, "web01.example.com", "Linux", time.Now())
			fake.Restrict(clientA)

			run, err := srv.Start(ctx, models.CollectionRequest{Hosts: []string{clientA}, Approvers: []string{"alice"}})
			Expect(err).NotTo(HaveOccurred())

			Eventually(fake.Approvals).Should(HaveLen(1))
			Expect(srv.Stop(ctx, run.ID)).To(Succeed())

			Eventually(func() models.RunState {
				r, err := srv.Get(ctx, run.ID)
				Expect(err).NotTo(HaveOccurred())
				return r.State
			}).Should(Equal(models.RunStateFailed))

			r, err := srv.Get(ctx, run.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Units[0].Error).To(ContainSubstring("context canceled"))

			Eventually(func() error { return srv.Stop(ctx, run.ID) }).Should(MatchError(services.ErrRunNotRunning))
		})

		It("should reject empty requests", func() {
			_, err := srv.Start(ctx, models.CollectionRequest{})
			Expect(err).To(MatchError(services.ErrNoTargets))
		})
	})

	It("should return ErrRunNotFound for unknown runs", func() {
		_, err := srv.Get(ctx, "missing")
		Expect(err).To(MatchError(services.ErrRunNotFound))

		Expect(srv.Stop(ctx, "missing")).To(MatchError(services.ErrRunNotFound))
	})
})
