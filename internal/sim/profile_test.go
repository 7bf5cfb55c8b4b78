package sim

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/ratectl/internal/ratecontrol"
)

var _ = Describe("Profiles", func() {
	amp := ratecontrol.Vector3{1, -0.5, 0.3}

	Describe("Step", func() {
		It("is zero before At and holds the amplitude after", func() {
			s := Step{Amplitude: amp, At: 0.5}
			Expect(s.Setpoint(0.49)).To(Equal(ratecontrol.Vector3{}))
			Expect(s.Setpoint(0.5)).To(Equal(amp))
			Expect(s.Setpoint(10)).To(Equal(amp))
		})
	})

	Describe("Doublet", func() {
		It("flips sign at half period and ends at zero", func() {
			d := Doublet{Amplitude: amp, Period: 2}
			Expect(d.Setpoint(0.5)).To(Equal(amp))
			Expect(d.Setpoint(1.5)).To(Equal(ratecontrol.Vector3{-1, 0.5, -0.3}))
			Expect(d.Setpoint(2.5)).To(Equal(ratecontrol.Vector3{}))
		})
	})

	Describe("Sine", func() {
		It("peaks at a quarter period", func() {
			s := Sine{Amplitude: amp, Period: 2}
			sp := s.Setpoint(0.5)
			for i := range sp {
				Expect(sp[i]).To(BeNumerically("~", amp[i], 1e-12))
			}
		})
	})

	DescribeTable("NewProfile",
		func(name string, period float64, ok bool) {
			p, err := NewProfile(name, amp, period)
			if ok {
				Expect(err).NotTo(HaveOccurred())
				Expect(p).NotTo(BeNil())
			} else {
				Expect(err).To(HaveOccurred())
			}
		},
		Entry("default is step", "", 0.0, true),
		Entry("doublet", "doublet", 1.0, true),
		Entry("doublet without period", "doublet", 0.0, false),
		Entry("sine without period", "sine", -1.0, false),
		Entry("unknown", "chirp", 1.0, false),
	)
})

var _ = Describe("Channel schedules", func() {
	It("switches the selected law at the handover time", func() {
		mode := ratecontrol.NewChannelModeSource()
		sched := SwitchChannel(2)

		mode.Set(sched(1.99))
		Expect(mode.Law()).To(Equal(ratecontrol.LawPID))

		mode.Set(sched(2))
		Expect(mode.Law()).To(Equal(ratecontrol.LawMFC))
	})

	It("holds a constant value", func() {
		Expect(ConstantChannel(0.3)(100)).To(Equal(0.3))
	})
})

var _ = Describe("Allocator", func() {
	a := Allocator{Limit: ratecontrol.Vector3{0.5, 0.5, 0.2}}

	It("passes commands inside the limits", func() {
		u, pos, neg := a.Allocate(ratecontrol.Vector3{0.1, -0.2, 0.1})
		Expect([]float64(u)).To(Equal([]float64{0.1, -0.2, 0.1}))
		Expect(pos).To(Equal(ratecontrol.Bool3{}))
		Expect(neg).To(Equal(ratecontrol.Bool3{}))
	})

	It("clips and flags saturated axes", func() {
		u, pos, neg := a.Allocate(ratecontrol.Vector3{0.9, -0.9, 0.2})
		Expect([]float64(u)).To(Equal([]float64{0.5, -0.5, 0.2}))
		Expect(pos).To(Equal(ratecontrol.Bool3{true, false, true}))
		Expect(neg).To(Equal(ratecontrol.Bool3{false, true, false}))
	})

	It("passes NaN through without flagging it", func() {
		u, pos, neg := a.Allocate(ratecontrol.Vector3{math.NaN(), 0.9, 0})
		Expect(math.IsNaN(u[0])).To(BeTrue())
		Expect(u[1]).To(Equal(0.5))
		Expect(pos).To(Equal(ratecontrol.Bool3{false, true, false}))
		Expect(neg).To(Equal(ratecontrol.Bool3{}))
	})
})
