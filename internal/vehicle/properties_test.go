package vehicle_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fordyn/internal/vehicle"
)

func drivingSeries(n int) map[string][]float64 {
	s := make(map[string][]float64, len(vehicle.SignalNames))
	for _, name := range vehicle.SignalNames {
		s[name] = make([]float64, n)
	}
	for k := 0; k < n; k++ {
		t := float64(k)
		s["vx"][k] = 12 + 4*math.Sin(0.05*t)
		s["vy"][k] = 0.3 * math.Sin(0.03*t)
		s["r"][k] = 0.15 * math.Cos(0.04*t)
		s["delta"][k] = 0.2 * math.Sin(0.02*t)
		s["throttle"][k] = 0.5 + 0.5*math.Sin(0.01*t)
		s["brake"][k] = 0.5 + 0.5*math.Cos(0.015*t)
	}
	return s
}

var _ = Describe("Model", func() {
	var cfg vehicle.Config

	BeforeEach(func() {
		cfg = vehicle.DefaultConfig()
	})

	Describe("Build", func() {
		It("sizes tap windows from the sample time", func() {
			m, err := vehicle.Build(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Fir("ax_throttle").Taps()).To(Equal(10))
			Expect(m.Fir("ax_delta").Taps()).To(Equal(10))
			Expect(m.Fir("ax_vx").Taps()).To(Equal(20))
			Expect(m.RequiredHistory()).To(Equal(20))
		})

		It("rejects inverted friction bounds", func() {
			cfg.MuMax = cfg.MuMin
			_, err := vehicle.Build(cfg)
			Expect(err).To(HaveOccurred())
		})

		It("rejects windows that do not divide the sample time", func() {
			cfg.TwState = 0.015
			_, err := vehicle.Build(cfg)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("grip estimate", func() {
		It("stays strictly inside the friction bounds", func() {
			m, err := vehicle.Build(cfg)
			Expect(err).NotTo(HaveOccurred())
			m.InitWeights(1)

			out, err := m.Predict(drivingSeries(200))
			Expect(err).NotTo(HaveOccurred())
			for _, mu := range out[vehicle.OutMu] {
				Expect(mu).To(BeNumerically(">", cfg.MuMin))
				Expect(mu).To(BeNumerically("<", cfg.MuMax))
			}
		})
	})

	Describe("friction ellipse", func() {
		It("keeps the combined demand inside the circle", func() {
			m, err := vehicle.Build(cfg)
			Expect(err).NotTo(HaveOccurred())

			// Plant weights large enough to saturate on every sample.
			for _, name := range []string{"ax_throttle", "ay_delta"} {
				w := m.Fir(name).W
				for j := range w {
					w[j] = 4
				}
			}
			series := drivingSeries(200)
			for k := range series["throttle"] {
				series["throttle"][k] = 1
				series["delta"][k] = 1
			}

			out, err := m.Predict(series)
			Expect(err).NotTo(HaveOccurred())
			for i := range out[vehicle.OutAx] {
				norm := math.Hypot(out[vehicle.OutAx][i], out[vehicle.OutAy][i])
				limit := out[vehicle.OutMu][i] * cfg.G
				Expect(norm).To(BeNumerically("<=", limit*(1+1e-6)))
			}
		})
	})

	Describe("inference", func() {
		It("is bit-identical across repeated runs", func() {
			m, err := vehicle.Build(cfg)
			Expect(err).NotTo(HaveOccurred())
			m.InitWeights(42)

			series := drivingSeries(150)
			first, err := m.Predict(series)
			Expect(err).NotTo(HaveOccurred())
			second, err := m.Predict(series)
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(Equal(first))
		})

		It("rejects histories shorter than the largest window", func() {
			m, err := vehicle.Build(cfg)
			Expect(err).NotTo(HaveOccurred())
			_, err = m.Predict(drivingSeries(m.RequiredHistory() - 1))
			Expect(err).To(HaveOccurred())
		})
	})
})
