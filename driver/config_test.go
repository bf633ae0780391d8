package driver_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/eesim/driver"
)

var _ = Describe("Config", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "driver-config-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	writeFile := func(name, content string) string {
		path := filepath.Join(tempDir, name)
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
		return path
	}

	Describe("DefaultConfig", func() {
		It("should create a valid config that halts on every fault", func() {
			config := driver.DefaultConfig()

			Expect(config.Validate()).To(Succeed())
			Expect(config.HaltOnTrap).To(BeTrue())
			Expect(config.HaltOnBreak).To(BeTrue())
			Expect(config.HaltOnOverflow).To(BeTrue())
			Expect(config.EntryPoint).To(BeNil())
			Expect(config.Cache.Enabled).To(BeTrue())
		})
	})

	Describe("LoadConfig", func() {
		It("should load JSON", func() {
			path := writeFile("run.json", `{
				"entry_point": 8192,
				"max_instructions": 1000,
				"halt_on_trap": false,
				"log_level": "debug",
				"cache": {"enabled": true, "size": 1024, "associativity": 4, "block_size": 32}
			}`)

			config, err := driver.LoadConfig(path)

			Expect(err).NotTo(HaveOccurred())
			Expect(*config.EntryPoint).To(Equal(uint32(0x2000)))
			Expect(config.MaxInstructions).To(Equal(uint64(1000)))
			Expect(config.HaltOnTrap).To(BeFalse())
			Expect(config.Cache.Associativity).To(Equal(4))
		})

		It("should load YAML", func() {
			path := writeFile("run.yaml", `
entry_point: 0x2000
max_instructions: 500
halt_on_break: false
log_level: trace
`)

			config, err := driver.LoadConfig(path)

			Expect(err).NotTo(HaveOccurred())
			Expect(*config.EntryPoint).To(Equal(uint32(0x2000)))
			Expect(config.MaxInstructions).To(Equal(uint64(500)))
			Expect(config.HaltOnBreak).To(BeFalse())

			level, err := config.Level()
			Expect(err).NotTo(HaveOccurred())
			Expect(level).To(Equal(logrus.TraceLevel))
		})

		It("should keep defaults for missing fields", func() {
			path := writeFile("partial.yml", "max_instructions: 7\n")

			config, err := driver.LoadConfig(path)

			Expect(err).NotTo(HaveOccurred())
			Expect(config.HaltOnOverflow).To(BeTrue())
			Expect(config.Cache).To(Equal(driver.DefaultConfig().Cache))
		})

		It("should reject an unknown log level", func() {
			path := writeFile("bad.json", `{"log_level": "loud"}`)

			_, err := driver.LoadConfig(path)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("log_level"))
		})

		It("should reject a bad cache geometry", func() {
			path := writeFile("bad.yaml", "cache:\n  enabled: true\n  size: 100\n")

			_, err := driver.LoadConfig(path)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("cache"))
		})

		It("should report malformed files", func() {
			path := writeFile("broken.json", `{`)

			_, err := driver.LoadConfig(path)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed to parse"))
		})

		It("should report a missing file", func() {
			_, err := driver.LoadConfig(filepath.Join(tempDir, "missing.json"))

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed to read"))
		})
	})

	DescribeTable("SaveConfig round trip",
		func(name string) {
			entry := uint32(0x80001000)
			config := driver.DefaultConfig()
			config.EntryPoint = &entry
			config.MaxInstructions = 42
			config.HaltOnTrap = false

			path := filepath.Join(tempDir, name)
			Expect(config.SaveConfig(path)).To(Succeed())

			loaded, err := driver.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(config))
		},
		Entry("json", "saved.json"),
		Entry("yaml", "saved.yaml"),
	)
})
