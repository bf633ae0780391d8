package loader_test

import (
	"debug/elf"
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/eesim/fetch"
	"github.com/sarchlab/eesim/loader"
)

const (
	machineMIPS   = uint16(elf.EM_MIPS)
	machineX86_64 = uint16(elf.EM_X86_64)

	flagsRX = uint32(elf.PF_R | elf.PF_X)
	flagsRW = uint32(elf.PF_R | elf.PF_W)
)

// testSegment describes one PT_LOAD entry of a generated ELF file.
type testSegment struct {
	vaddr   uint64
	flags   uint32
	data    []byte
	memSize uint64
}

// code is "jr $ra; nop".
var code = []byte{
	0x08, 0x00, 0xe0, 0x03, // jr $ra
	0x00, 0x00, 0x00, 0x00, // nop
}

var _ = Describe("ELF Loader", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "elf-loader-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	Describe("Load", func() {
		Context("with a valid 32-bit MIPS ELF binary", func() {
			var elfPath string

			BeforeEach(func() {
				elfPath = filepath.Join(tempDir, "test.elf")
				writeELF32(elfPath, binary.LittleEndian, machineMIPS, 0x100004,
					testSegment{vaddr: 0x100000, flags: flagsRX, data: code})
			})

			It("should extract the correct entry point", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.EntryPoint).To(Equal(uint32(0x100004)))
			})

			It("should load segment contents and permissions", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.Segments).To(HaveLen(1))

				seg := prog.Segments[0]
				Expect(seg.VirtAddr).To(Equal(uint32(0x100000)))
				Expect(seg.Data).To(Equal(code))
				Expect(seg.Flags & loader.SegmentFlagExecute).NotTo(BeZero())
				Expect(seg.Flags & loader.SegmentFlagWrite).To(BeZero())
			})

			It("should set up the initial stack pointer", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.InitialSP).To(Equal(uint32(loader.DefaultStackTop)))
			})
		})

		Context("with a 64-bit MIPS ELF binary", func() {
			It("should accept sign-extended 32-bit addresses", func() {
				elfPath := filepath.Join(tempDir, "kseg0.elf")
				writeELF64(elfPath, machineMIPS, 0xFFFFFFFF80001000,
					testSegment{vaddr: 0xFFFFFFFF80001000, flags: flagsRX, data: code})

				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.EntryPoint).To(Equal(uint32(0x80001000)))
				Expect(prog.Segments[0].VirtAddr).To(Equal(uint32(0x80001000)))
			})

			It("should reject addresses beyond 32 bits", func() {
				elfPath := filepath.Join(tempDir, "wide.elf")
				writeELF64(elfPath, machineMIPS, 0x100000000,
					testSegment{vaddr: 0x100000000, flags: flagsRX, data: code})

				_, err := loader.Load(elfPath)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("32-bit address space"))
			})
		})

		Context("with multiple PT_LOAD segments", func() {
			It("should load code, data, and BSS", func() {
				elfPath := filepath.Join(tempDir, "multi.elf")
				dataBytes := []byte{0x01, 0x02, 0x03, 0x04}
				writeELF32(elfPath, binary.LittleEndian, machineMIPS, 0x100000,
					testSegment{vaddr: 0x100000, flags: flagsRX, data: code},
					testSegment{vaddr: 0x200000, flags: flagsRW, data: dataBytes, memSize: 1024},
					testSegment{vaddr: 0x300000, flags: flagsRW, memSize: 4096},
				)

				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.Segments).To(HaveLen(3))

				data := prog.Segments[1]
				Expect(data.Data).To(Equal(dataBytes))
				Expect(data.MemSize).To(Equal(uint64(1024)))
				Expect(data.Flags & loader.SegmentFlagWrite).NotTo(BeZero())

				bss := prog.Segments[2]
				Expect(bss.Data).To(BeEmpty())
				Expect(bss.MemSize).To(Equal(uint64(4096)))
			})
		})

		Context("with an entry point outside executable code", func() {
			It("should reject a file with no loadable segments", func() {
				elfPath := filepath.Join(tempDir, "no-load.elf")
				writeELF32(elfPath, binary.LittleEndian, machineMIPS, 0x100000)

				_, err := loader.Load(elfPath)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("not in an executable segment"))
			})

			It("should reject an entry point in a data segment", func() {
				elfPath := filepath.Join(tempDir, "data-entry.elf")
				writeELF32(elfPath, binary.LittleEndian, machineMIPS, 0x200000,
					testSegment{vaddr: 0x100000, flags: flagsRX, data: code},
					testSegment{vaddr: 0x200000, flags: flagsRW, data: code},
				)

				_, err := loader.Load(elfPath)
				Expect(err).To(HaveOccurred())
			})

			It("should reject an entry point past the end of the code", func() {
				elfPath := filepath.Join(tempDir, "past-end.elf")
				writeELF32(elfPath, binary.LittleEndian, machineMIPS, 0x100008,
					testSegment{vaddr: 0x100000, flags: flagsRX, data: code})

				_, err := loader.Load(elfPath)
				Expect(err).To(HaveOccurred())
			})
		})

		Context("with an invalid file", func() {
			It("should return error for non-existent file", func() {
				_, err := loader.Load("/nonexistent/path/to/file.elf")
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("failed to open"))
			})

			It("should return error for non-ELF file", func() {
				notElfPath := filepath.Join(tempDir, "not-elf.bin")
				Expect(os.WriteFile(notElfPath, []byte("not an elf file"), 0644)).To(Succeed())

				_, err := loader.Load(notElfPath)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("ELF"))
			})

			It("should return error for empty file", func() {
				emptyPath := filepath.Join(tempDir, "empty.elf")
				Expect(os.WriteFile(emptyPath, []byte{}, 0644)).To(Succeed())

				_, err := loader.Load(emptyPath)
				Expect(err).To(HaveOccurred())
			})
		})

		Context("with a foreign ELF", func() {
			It("should reject an x86-64 ELF", func() {
				elfPath := filepath.Join(tempDir, "x86.elf")
				writeELF64(elfPath, machineX86_64, 0)

				_, err := loader.Load(elfPath)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("not a MIPS"))
			})

			It("should reject a big-endian MIPS ELF", func() {
				elfPath := filepath.Join(tempDir, "be.elf")
				writeELF32(elfPath, binary.BigEndian, machineMIPS, 0x100000)

				_, err := loader.Load(elfPath)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("little-endian"))
			})
		})
	})

	Describe("LoadRaw", func() {
		It("should place the image at the base address", func() {
			rawPath := filepath.Join(tempDir, "image.bin")
			Expect(os.WriteFile(rawPath, code, 0644)).To(Succeed())

			prog, err := loader.LoadRaw(rawPath, 0x1000)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.EntryPoint).To(Equal(uint32(0x1000)))
			Expect(prog.Segments).To(HaveLen(1))
			Expect(prog.Segments[0].Data).To(Equal(code))
		})

		It("should reject an image that wraps the address space", func() {
			rawPath := filepath.Join(tempDir, "image.bin")
			Expect(os.WriteFile(rawPath, code, 0644)).To(Succeed())

			_, err := loader.LoadRaw(rawPath, 0xFFFFFFFC)
			Expect(err).To(HaveOccurred())
		})

		It("should report a missing file", func() {
			_, err := loader.LoadRaw(filepath.Join(tempDir, "missing.bin"), 0)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed to read"))
		})
	})

	Describe("Program.IsExecutable", func() {
		It("should consult segment flags and bounds", func() {
			prog := &loader.Program{Segments: []loader.Segment{
				{VirtAddr: 0x1000, MemSize: 0x10, Flags: loader.SegmentFlagRead | loader.SegmentFlagExecute},
				{VirtAddr: 0x2000, MemSize: 0x10, Flags: loader.SegmentFlagRead | loader.SegmentFlagWrite},
			}}

			Expect(prog.IsExecutable(0x1000)).To(BeTrue())
			Expect(prog.IsExecutable(0x100C)).To(BeTrue())
			Expect(prog.IsExecutable(0x1010)).To(BeFalse())
			Expect(prog.IsExecutable(0x0FFC)).To(BeFalse())
			Expect(prog.IsExecutable(0x2000)).To(BeFalse())
		})
	})

	Describe("Program.LoadInto", func() {
		It("should copy segments into memory and zero BSS", func() {
			elfPath := filepath.Join(tempDir, "test.elf")
			writeELF32(elfPath, binary.LittleEndian, machineMIPS, 0x100000,
				testSegment{vaddr: 0x100000, flags: flagsRX, data: code, memSize: 16})

			prog, err := loader.Load(elfPath)
			Expect(err).NotTo(HaveOccurred())

			memory := fetch.NewMemory()
			memory.Write32(0x10000C, 0xFFFFFFFF)
			prog.LoadInto(memory)

			Expect(memory.Read32(0x100000)).To(Equal(uint32(0x03E00008)))
			Expect(memory.Read32(0x10000C)).To(BeZero())
		})
	})
})

// writeELF32 writes an ELF32 executable with the given PT_LOAD segments.
func writeELF32(path string, order binary.ByteOrder, machine uint16, entry uint32, segs ...testSegment) {
	const ehsize, phentsize = 52, 32

	header := make([]byte, ehsize)
	copy(header[0:4], []byte{0x7f, 'E', 'L', 'F'})
	header[4] = 1 // ELFCLASS32
	header[5] = 1 // little endian
	if order == binary.BigEndian {
		header[5] = 2
	}
	header[6] = 1 // version
	order.PutUint16(header[16:18], 2)
	order.PutUint16(header[18:20], machine)
	order.PutUint32(header[20:24], 1)
	order.PutUint32(header[24:28], entry)
	order.PutUint32(header[28:32], ehsize)
	order.PutUint16(header[40:42], ehsize)
	order.PutUint16(header[42:44], phentsize)
	order.PutUint16(header[44:46], uint16(len(segs)))

	offset := uint32(ehsize + phentsize*len(segs))
	var progHeaders, payload []byte
	for _, seg := range segs {
		memSize := seg.memSize
		if memSize == 0 {
			memSize = uint64(len(seg.data))
		}

		ph := make([]byte, phentsize)
		order.PutUint32(ph[0:4], uint32(elf.PT_LOAD))
		order.PutUint32(ph[4:8], offset)
		order.PutUint32(ph[8:12], uint32(seg.vaddr))
		order.PutUint32(ph[12:16], uint32(seg.vaddr))
		order.PutUint32(ph[16:20], uint32(len(seg.data)))
		order.PutUint32(ph[20:24], uint32(memSize))
		order.PutUint32(ph[24:28], seg.flags)
		order.PutUint32(ph[28:32], 0x1000)

		progHeaders = append(progHeaders, ph...)
		payload = append(payload, seg.data...)
		offset += uint32(len(seg.data))
	}

	writeFile(path, header, progHeaders, payload)
}

// writeELF64 writes a little-endian ELF64 executable with the given PT_LOAD
// segments.
func writeELF64(path string, machine uint16, entry uint64, segs ...testSegment) {
	const ehsize, phentsize = 64, 56
	le := binary.LittleEndian

	header := make([]byte, ehsize)
	copy(header[0:4], []byte{0x7f, 'E', 'L', 'F'})
	header[4] = 2 // ELFCLASS64
	header[5] = 1 // little endian
	header[6] = 1 // version
	le.PutUint16(header[16:18], 2)
	le.PutUint16(header[18:20], machine)
	le.PutUint32(header[20:24], 1)
	le.PutUint64(header[24:32], entry)
	le.PutUint64(header[32:40], ehsize)
	le.PutUint16(header[52:54], ehsize)
	le.PutUint16(header[54:56], phentsize)
	le.PutUint16(header[56:58], uint16(len(segs)))

	offset := uint64(ehsize + phentsize*len(segs))
	var progHeaders, payload []byte
	for _, seg := range segs {
		memSize := seg.memSize
		if memSize == 0 {
			memSize = uint64(len(seg.data))
		}

		ph := make([]byte, phentsize)
		le.PutUint32(ph[0:4], uint32(elf.PT_LOAD))
		le.PutUint32(ph[4:8], seg.flags)
		le.PutUint64(ph[8:16], offset)
		le.PutUint64(ph[16:24], seg.vaddr)
		le.PutUint64(ph[24:32], seg.vaddr)
		le.PutUint64(ph[32:40], uint64(len(seg.data)))
		le.PutUint64(ph[40:48], memSize)
		le.PutUint64(ph[48:56], 0x1000)

		progHeaders = append(progHeaders, ph...)
		payload = append(payload, seg.data...)
		offset += uint64(len(seg.data))
	}

	writeFile(path, header, progHeaders, payload)
}

func writeFile(path string, parts ...[]byte) {
	file, err := os.Create(path)
	Expect(err).NotTo(HaveOccurred())
	defer func() { _ = file.Close() }()

	for _, part := range parts {
		_, err = file.Write(part)
		Expect(err).NotTo(HaveOccurred())
	}
}
