package smoketest

import (
	"fmt"
	"math/rand"
	"net/http"
	"time"

	chttp "github.com/aukilabs/collide/http"
	"github.com/aukilabs/collide/spatial"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

// Result is the outcome of a smoke test scenario.
type Result struct {
	Name     string        `json:"name"`
	Passed   bool          `json:"passed"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Results is the outcome of a smoke test run.
type Results struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Passed    bool          `json:"passed"`
	Scenarios []Result      `json:"scenarios"`
}

type scenario struct {
	name string
	run  func() error
}

var scenarios = []scenario{
	{name: "moving_circle_changes_pairs", run: movingCircleChangesPairs},
	{name: "too_many_levels", run: tooManyLevels},
	{name: "straddling_box_stays_at_root", run: straddlingBoxStaysAtRoot},
	{name: "pruning_keeps_pairs", run: pruningKeepsPairs},
}

// Run executes every scenario on a fresh collision index.
func Run() Results {
	res := Results{
		StartedAt: time.Now(),
		Passed:    true,
		Scenarios: make([]Result, 0, len(scenarios)),
	}

	for _, s := range scenarios {
		start := time.Now()
		err := runScenario(s)

		r := Result{
			Name:     s.name,
			Passed:   err == nil,
			Duration: time.Since(start),
		}
		if err != nil {
			r.Error = err.Error()
			res.Passed = false
		}
		res.Scenarios = append(res.Scenarios, r)
	}

	res.Duration = time.Since(res.StartedAt)
	return res
}

func runScenario(s scenario) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("scenario panicked: %v", r)
		}
	}()

	if err := s.run(); err != nil {
		return errors.New("scenario failed").
			WithTag("scenario", s.name).
			Wrap(err)
	}
	return nil
}

// HandleSmokeTest runs the smoke test and responds with its results. The
// status is 500 when a scenario failed.
func HandleSmokeTest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := Run()

		status := http.StatusOK
		if !res.Passed {
			status = http.StatusInternalServerError

			for _, s := range res.Scenarios {
				if !s.Passed {
					logs.WithTag("scenario", s.Name).
						Warn(errors.New("smoke test scenario failed").
							WithTag("error", s.Error))
				}
			}
		}

		logs.WithTag("passed", res.Passed).
			WithTag("duration", res.Duration).
			Info("smoke test ran")

		chttp.WriteJSON(w, status, res)
	}
}

type probe struct {
	id    int
	shape spatial.Shape
	node  spatial.NodeRef
}

func (p *probe) Bounds() spatial.Bounds {
	return p.shape.Bounds()
}

func (p *probe) Shape() spatial.Shape {
	return p.shape
}

func (p *probe) Node() spatial.NodeRef {
	return p.node
}

func (p *probe) SetNode(r spatial.NodeRef) {
	p.node = r
}

func circle(id int, x, y, r float64) *probe {
	return &probe{
		id:    id,
		shape: spatial.NewCircle(spatial.Point{X: x, Y: y}, r),
	}
}

type pair [2]int

func pairs(events []spatial.CollisionEvent) (map[pair]int, error) {
	m := make(map[pair]int, len(events))
	for _, e := range events {
		a, b := e.A.(*probe).id, e.B.(*probe).id
		if a == b {
			return nil, errors.New("sprite collides with itself").WithTag("sprite", a)
		}
		if a > b {
			a, b = b, a
		}
		m[pair{a, b}]++
	}
	return m, nil
}

func expectPairs(idx *spatial.Index, expected ...pair) error {
	events, err := idx.Process()
	if err != nil {
		return err
	}

	got, err := pairs(events)
	if err != nil {
		return err
	}

	if len(events) != len(expected) {
		return errors.New("unexpected number of collisions").
			WithTag("expected", len(expected)).
			WithTag("got", len(events))
	}
	for _, p := range expected {
		if got[p] != 1 {
			return errors.New("missing collision").
				WithTag("pair", fmt.Sprint(p))
		}
	}
	return idx.Verify()
}

func movingCircleChangesPairs() error {
	var idx spatial.Index
	if err := idx.Init(2, spatial.Region{Width: 100, Height: 100}, spatial.WithName("smoketest")); err != nil {
		return err
	}

	c1 := circle(1, 10, 10, 5)
	c2 := circle(2, 12, 12, 5)
	c3 := circle(3, 90, 90, 5)

	for _, c := range []*probe{c1, c2} {
		if _, err := idx.Add(c); err != nil {
			return err
		}
	}
	if err := expectPairs(&idx, pair{1, 2}); err != nil {
		return err
	}

	if _, err := idx.Add(c3); err != nil {
		return err
	}
	if err := expectPairs(&idx, pair{1, 2}); err != nil {
		return err
	}

	c1.shape = spatial.NewCircle(spatial.Point{X: 90, Y: 91}, 5)
	if err := idx.UpdatePosition(c1); err != nil {
		return err
	}
	return expectPairs(&idx, pair{1, 3})
}

func tooManyLevels() error {
	var idx spatial.Index

	err := idx.Init(spatial.MaxLevels+1, spatial.Region{Width: 100, Height: 100})
	if err == nil {
		return errors.New("init succeeded").WithTag("levels", spatial.MaxLevels+1)
	}
	if !errors.IsType(err, spatial.ErrTypeConfiguration) {
		return errors.New("unexpected error type").Wrap(err)
	}
	if idx.IsInitialized() {
		return errors.New("index is initialized after a failed init")
	}
	return nil
}

func straddlingBoxStaysAtRoot() error {
	for levels := 0; levels <= spatial.MaxLevels; levels++ {
		var idx spatial.Index
		if err := idx.Init(levels, spatial.Region{Width: 100, Height: 100}); err != nil {
			return err
		}

		p := &probe{shape: spatial.NewRect(spatial.Bounds{Left: 45, Top: 45, Right: 55, Bottom: 55})}
		if _, err := idx.Add(p); err != nil {
			return err
		}

		if p.Node().ID != idx.Tree().Root().ID() {
			return errors.New("straddling box is not at the root").
				WithTag("levels", levels).
				WithTag("node_id", p.Node().ID)
		}
	}
	return nil
}

func pruningKeepsPairs() error {
	rnd := rand.New(rand.NewSource(7))

	scene := make([]*probe, 200)
	for i := range scene {
		scene[i] = circle(i, rnd.Float64()*100, rnd.Float64()*100, 0.5+rnd.Float64()*3)
	}

	process := func(pruning bool) (map[pair]int, error) {
		var idx spatial.Index
		err := idx.Init(4, spatial.Region{Width: 100, Height: 100}, spatial.WithSubtreePruning(pruning))
		if err != nil {
			return nil, err
		}

		for _, p := range scene {
			p.node = spatial.NodeRef{}
			if _, err := idx.Add(p); err != nil {
				return nil, err
			}
		}

		events, err := idx.Process()
		if err != nil {
			return nil, err
		}
		return pairs(events)
	}

	pruned, err := process(true)
	if err != nil {
		return err
	}
	full, err := process(false)
	if err != nil {
		return err
	}

	if len(pruned) != len(full) {
		return errors.New("pruning changed the number of collisions").
			WithTag("pruned", len(pruned)).
			WithTag("full", len(full))
	}
	for p, n := range full {
		if n != 1 || pruned[p] != 1 {
			return errors.New("pruning changed a collision").
				WithTag("pair", fmt.Sprint(p))
		}
	}
	return nil
}
