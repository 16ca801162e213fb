package config_test

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ecordell/optgen/helpers"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tupyy/artifact-collector/internal/config"
	"github.com/tupyy/artifact-collector/internal/models"
)

var _ = Describe("Configuration", func() {
	It("should apply defaults", func() {
		cfg := config.NewConfigurationWithOptionsAndDefaults()

		Expect(cfg.Server.HTTPPort).To(Equal(8080))
		Expect(cfg.Server.ServerMode).To(Equal("dev"))
		Expect(cfg.Collection.ApprovalInterval).To(Equal(10 * time.Second))
		Expect(cfg.Collection.FlowInterval).To(Equal(10 * time.Second))
		Expect(cfg.Grr.RetryMax).To(Equal(4))
	})

	It("should let options override defaults", func() {
		cfg := config.NewConfigurationWithOptionsAndDefaults(
			config.WithLogLevel("debug"),
			config.WithGrr(config.Grr{URL: "https://grr.example.com", Username: "admin", Password: "secret"}),
		)

		Expect(cfg.LogLevel).To(Equal("debug"))
		Expect(cfg.Grr.URL).To(Equal("https://grr.example.com"))
	})

	It("should not leak the password in the debug map", func() {
		cfg := config.NewConfigurationWithOptionsAndDefaults(
			config.WithGrr(config.Grr{URL: "https://grr.example.com", Username: "admin", Password: "secret"}),
		)

		flat := helpers.Flatten(cfg.Grr.DebugMap())
		Expect(flat).To(HaveKey("Username"))
		Expect(flat["Password"]).NotTo(Equal("secret"))
	})
})

var _ = Describe("ArtifactDefaults", func() {
	It("should know the three platforms", func() {
		defaults := config.DefaultArtifacts()

		Expect(defaults.For(models.PlatformLinux)).To(ContainElement("LinuxAuthLogs"))
		Expect(defaults.For(models.PlatformDarwin)).To(ContainElement("OSXQuarantineEvents"))
		Expect(defaults.For(models.PlatformWindows)).To(ContainElement("EventLogs"))
		Expect(defaults.For(models.PlatformUnknown)).To(BeNil())
	})

	It("should return a copy", func() {
		defaults := config.DefaultArtifacts()
		list := defaults.For(models.PlatformLinux)
		list[0] = "Changed"

		Expect(defaults.For(models.PlatformLinux)[0]).To(Equal("LinuxAuditLogs"))
	})

	Context("from a yaml file", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		It("should return the built-in defaults when no file is given", func() {
			defaults, err := config.LoadArtifactDefaults("")
			Expect(err).NotTo(HaveOccurred())
			Expect(defaults).To(Equal(config.DefaultArtifacts()))
		})

		It("should override only the platforms present in the file", func() {
			path := filepath.Join(dir, "artifacts.yaml")
			Expect(os.WriteFile(path, []byte("artifacts:\n  linux: [LinuxWtmp]\n  macos:\n    - OSXBashHistory\n"), 0o600)).To(Succeed())

			defaults, err := config.LoadArtifactDefaults(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(defaults.For(models.PlatformLinux)).To(Equal([]string{"LinuxWtmp"}))
			Expect(defaults.For(models.PlatformDarwin)).To(Equal([]string{"OSXBashHistory"}))
			Expect(defaults.For(models.PlatformWindows)).To(Equal(config.DefaultArtifacts().For(models.PlatformWindows)))
		})

		It("should reject unknown platforms", func() {
			path := filepath.Join(dir, "artifacts.yaml")
			Expect(os.WriteFile(path, []byte("artifacts:\n  plan9: [Foo]\n"), 0o600)).To(Succeed())

			_, err := config.LoadArtifactDefaults(path)
			Expect(err).To(MatchError(ContainSubstring("unknown platform")))
		})

		It("should fail on a missing file", func() {
			_, err := config.LoadArtifactDefaults(filepath.Join(dir, "missing.yaml"))
			Expect(err).To(HaveOccurred())
		})
	})
})
