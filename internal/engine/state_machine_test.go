package engine_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fricsim/internal/engine"
	"github.com/san-kum/fricsim/internal/force"
	"github.com/san-kum/fricsim/internal/surface"
)

const dt = 0.01

func continuous(mass, target, applied float64) engine.Params {
	return engine.Params{
		Mass:           mass,
		TargetDistance: target,
		AppliedForce:   applied,
		Schedule:       force.Schedule{Mode: force.Continuous},
	}
}

var _ = Describe("tick state machine", func() {
	var (
		reg  *surface.Registry
		wood surface.Profile
	)

	BeforeEach(func() {
		reg = surface.NewRegistry()
		var err error
		wood, err = reg.Get(surface.Wood)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("a stationary body", func() {
		It("stays put under a push exactly at the static ceiling", func() {
			ceiling := wood.Static * 10 * engine.Gravity
			b := &engine.Body{Surface: surface.Wood}
			for i := 0; i < 500; i++ {
				engine.Advance(b, wood, continuous(10, 500, ceiling), dt)
			}
			Expect(b.Status).To(Equal(engine.Stationary))
			Expect(b.Position).To(BeZero())
			Expect(b.Elapsed).To(BeZero())
		})

		It("balances an insufficient push with equal static friction", func() {
			b := &engine.Body{Surface: surface.Wood}
			engine.Advance(b, wood, continuous(10, 500, 30), dt)
			Expect(b.Status).To(Equal(engine.Stationary))
			Expect(b.Friction).To(Equal(30.0))
			Expect(b.Applied).To(Equal(30.0))
		})

		It("reports zero friction under a zero push", func() {
			b := &engine.Body{Surface: surface.Wood}
			engine.Advance(b, wood, continuous(10, 500, 0), dt)
			Expect(b.Friction).To(BeZero())
			Expect(b.Applied).To(BeZero())
		})

		It("breaks away and integrates within the same tick", func() {
			b := &engine.Body{Surface: surface.Wood}
			engine.Advance(b, wood, continuous(10, 500, 150), dt)
			Expect(b.Status).To(Equal(engine.Moving))
			Expect(b.Acceleration).To(BeNumerically("~", 12.057, 1e-9))
			Expect(b.Velocity).To(BeNumerically("~", 12.057*dt, 1e-9))
			Expect(b.Position).To(BeNumerically(">", 0))
			Expect(b.Elapsed).To(Equal(dt))
		})
	})

	Describe("a moving body", func() {
		It("never shows a negative velocity at a tick boundary", func() {
			p := engine.Params{
				Mass:           10,
				TargetDistance: 500,
				AppliedForce:   150,
				Schedule:       force.Schedule{Mode: force.Impulse},
			}
			b := &engine.Body{Surface: surface.Wood}
			for i := 0; i < 50_000 && b.Status != engine.Arrived; i++ {
				engine.Advance(b, wood, p, dt)
				Expect(b.Velocity).To(BeNumerically(">=", 0))
			}
			Expect(b.Status).To(Equal(engine.Arrived))
		})

		It("halts terminally when friction outlasts an impulse push", func() {
			p := engine.Params{
				Mass:           10,
				TargetDistance: 500,
				AppliedForce:   150,
				Schedule:       force.Schedule{Mode: force.Impulse},
			}
			b := &engine.Body{Surface: surface.Wood}
			for i := 0; i < 50_000 && b.Status != engine.Arrived; i++ {
				engine.Advance(b, wood, p, dt)
			}
			Expect(b.Status).To(Equal(engine.Arrived))
			Expect(b.Position).To(BeNumerically("<", 500))
			Expect(b.Position).To(BeNumerically(">", 0))
			Expect(b.Velocity).To(BeZero())
			// The push was live for the 0.5 s window; coasting time after
			// cutoff still accrues, so total elapsed exceeds the window.
			Expect(b.Elapsed).To(BeNumerically(">", force.ImpulseWindow))
		})

		It("clamps arrival to the exact target distance", func() {
			b := &engine.Body{Surface: surface.Wood}
			p := continuous(10, 50, 150)
			for i := 0; i < 50_000 && b.Status != engine.Arrived; i++ {
				engine.Advance(b, wood, p, dt)
				Expect(b.Position).To(BeNumerically("<=", 50))
			}
			Expect(b.Status).To(Equal(engine.Arrived))
			Expect(b.Position).To(Equal(50.0))
		})
	})

	Describe("an arrived body", func() {
		It("ignores every further tick", func() {
			b := &engine.Body{
				Surface:  surface.Wood,
				Status:   engine.Arrived,
				Position: 500,
				Velocity: 42,
				Elapsed:  7,
			}
			before := *b
			for i := 0; i < 100; i++ {
				engine.Advance(b, wood, continuous(10, 500, 150), dt)
			}
			Expect(*b).To(Equal(before))
		})
	})

	Describe("the whole field", func() {
		It("completes exactly when every body has arrived", func() {
			e := engine.New(reg, continuous(10, 2, 150))
			Expect(e.IsComplete()).To(BeFalse())
			for i := 0; i < 50_000 && !e.IsComplete(); i++ {
				e.TickAll(dt)
			}
			Expect(e.IsComplete()).To(BeTrue())
			for _, b := range e.Bodies() {
				Expect(b.Status).To(Equal(engine.Arrived))
			}
		})

		It("advances bodies identically regardless of order", func() {
			profiles := reg.All()
			p := continuous(10, 100, 150)

			forward := make([]engine.Body, len(profiles))
			backward := make([]engine.Body, len(profiles))
			for i, prof := range profiles {
				forward[i] = engine.Body{Surface: prof.Kind}
				backward[i] = engine.Body{Surface: prof.Kind}
			}

			for tick := 0; tick < 200; tick++ {
				for i := range profiles {
					engine.Advance(&forward[i], profiles[i], p, dt)
				}
				for i := len(profiles) - 1; i >= 0; i-- {
					engine.Advance(&backward[i], profiles[i], p, dt)
				}
			}
			Expect(forward).To(Equal(backward))
		})
	})
})
