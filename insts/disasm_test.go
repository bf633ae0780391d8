package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/eesim/insts"
)

var _ = Describe("Disassemble", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	disasm := func(word uint32) string {
		return insts.Disassemble(decoder.Decode(word))
	}

	It("should render three-register operations as rd, rs, rt", func() {
		Expect(disasm(0x00851021)).To(Equal("addu $v0, $a0, $a1"))
	})

	It("should render the zero word as nop", func() {
		Expect(disasm(0)).To(Equal("nop"))
	})

	It("should render fixed shifts with the immediate amount", func() {
		Expect(disasm(0x00094100)).To(Equal("sll $t0, $t1, 4"))
	})

	It("should render variable shifts as rd, rt, rs", func() {
		word := insts.EncodeSpecial(10, 9, 8, 0, insts.FunctSRLV)
		Expect(disasm(word)).To(Equal("srlv $t0, $t1, $t2"))
	})

	It("should render jumps", func() {
		Expect(disasm(0x03E00008)).To(Equal("jr $ra"))
		Expect(disasm(insts.EncodeSpecial(25, 0, 31, 0, insts.FunctJALR))).
			To(Equal("jalr $ra, $t9"))
	})

	It("should render HI/LO transfers and traps", func() {
		Expect(disasm(insts.EncodeSpecial(0, 0, 2, 0, insts.FunctMFLO))).To(Equal("mflo $v0"))
		Expect(disasm(insts.EncodeSpecial(4, 5, 0, 0, insts.FunctTEQ))).To(Equal("teq $a0, $a1"))
		Expect(disasm(insts.EncodeSpecial(4, 5, 0, 0, insts.FunctDIV))).To(Equal("div $a0, $a1"))
	})

	It("should render exception codes", func() {
		Expect(disasm(0x0000000C)).To(Equal("syscall"))
		Expect(disasm(0x0000000D | 7<<6)).To(Equal("break 0x7"))
	})

	It("should render unrecognized words as data", func() {
		Expect(disasm(0x00000001)).To(Equal(".word 0x00000001 # funct 0x01"))
		Expect(disasm(0x24020001)).To(Equal(".word 0x24020001 # opcode 0x09"))
	})

	It("should name operations", func() {
		Expect(insts.OpDSRA32.String()).To(Equal("dsra32"))
		Expect(insts.OpUnknown.String()).To(Equal("unknown"))
	})
})
