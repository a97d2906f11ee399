package gotdoa

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// StepRecord is the outcome of one simulation step.
type StepRecord struct {
	Step              int
	Time              float64
	Target            Pose2D
	Trackers          [2]Pose2D
	Controls          [2][ControlSize]float64
	RangeDifference   float64
	LocalizationError float64
	// Solutions is the number of hyperbola points, zero when the geometry was ill-formed.
	Solutions int
}

// Fields returns the record as a flat slice, in the order of CSVHeaders.
func (r StepRecord) Fields() []float64 {
	f := []float64{float64(r.Step), r.Time, r.Target.X, r.Target.Y, r.Target.Heading}
	for i, p := range r.Trackers {
		f = append(f, p.X, p.Y, p.Heading, r.Controls[i][0], r.Controls[i][1])
	}
	return append(f, r.RangeDifference, r.LocalizationError, float64(r.Solutions))
}

// Simulation drives the target, solves the control problems of both trackers
// and localizes the target from their range difference at each step.
type Simulation struct {
	cfg       *SimulationConfig
	runID     uuid.UUID
	target    *Target
	trackers  [2]*Tracker
	problems  [2]*Problem
	states    [2]*mat.VecDense
	guesses   [2][]float64
	solver    Solver
	tdoa      *HyperbolicSolver
	noise     MeasurementNoise
	cloud     *SolutionCloud
	truth     *GroundTruth
	records   []StepRecord
	exporters []Exporter
	step      int
}

// NewSimulation returns a new simulation. A nil solver uses a PenaltySolver
// configured from cfg.
func NewSimulation(cfg *SimulationConfig, solver Solver) (*Simulation, error) {
	if cfg == nil {
		cfg = DefaultSimulationConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if solver == nil {
		ps, err := NewPenaltySolver(cfg.Solver)
		if err != nil {
			return nil, err
		}
		solver = ps
	}
	curve, err := NewCurve(cfg.ControlPoints(), cfg.SplineDegree)
	if err != nil {
		return nil, err
	}
	target, err := NewTargetOnCurve(curve, cfg.TargetVelocity)
	if err != nil {
		return nil, err
	}
	tdoa, err := NewHyperbolicSolver(cfg.HyperbolaParameterMax, cfg.HyperbolaSamples)
	if err != nil {
		return nil, err
	}
	s := &Simulation{cfg: cfg, runID: uuid.New(), target: target, solver: solver, tdoa: tdoa, truth: NewGroundTruth()}

	Ws := mat.NewDiagDense(StateSize, cfg.StateWeights[:])
	Wc := mat.NewDiagDense(ControlSize, cfg.ControlWeights[:])
	start := curve.PositionAt(0)
	for i, tc := range cfg.Trackers {
		tr, err := NewTracker(tc.Label, cfg.Horizon)
		if err != nil {
			return nil, err
		}
		obj, err := tr.BuildObjective(Ws, Wc)
		if err != nil {
			return nil, err
		}
		cons, err := tr.BuildEqualityConstraints(cfg.TimeStep)
		if err != nil {
			return nil, err
		}
		lower, upper, err := tr.BuildBounds(cfg.LinearVelocity[:], cfg.AngularVelocity[:])
		if err != nil {
			return nil, err
		}
		if s.problems[i], err = NewProblem(obj, cons, lower, upper); err != nil {
			return nil, err
		}
		s.trackers[i] = tr
		s.states[i] = orbitStart(start, tc).Vector()
	}

	if cfg.RangeNoiseStdDev == 0 && cfg.PositionNoiseStdDev == 0 {
		s.noise = Noiseless{}
	} else {
		var P mat.Symmetric
		if σ := cfg.PositionNoiseStdDev; σ > 0 {
			P = mat.NewSymDense(2, []float64{σ * σ, 0, 0, σ * σ})
		}
		if s.noise, err = NewAWGN(cfg.RangeNoiseStdDev, P, cfg.Seed); err != nil {
			return nil, err
		}
	}

	rangeX, rangeY := s.histogramRanges()
	if s.cloud, err = NewSolutionCloud(rangeX, rangeY, cfg.HistogramBin, cfg.TraceLength); err != nil {
		return nil, err
	}
	return s, nil
}

// orbitStart returns the pose of a tracker on its orbit around the anchor at t=0.
func orbitStart(anchor Point2D, tc TrackerConfig) Pose2D {
	heading := tc.Phase + math.Pi/2
	if tc.AngularVelocity < 0 {
		heading = tc.Phase - math.Pi/2
	}
	return Pose2D{
		X:       anchor.X + tc.Radius*math.Cos(tc.Phase),
		Y:       anchor.Y + tc.Radius*math.Sin(tc.Phase),
		Heading: WrapAngle(heading),
	}
}

// histogramRanges returns the bounding box of the target path padded by the
// largest orbit, aligned on the histogram bins.
func (s *Simulation) histogramRanges() (rangeX, rangeY [2]float64) {
	path := s.target.TrajectorySamples(s.cfg.TrajectorySamples)
	xs, ys := make([]float64, len(path)), make([]float64, len(path))
	for i, p := range path {
		xs[i], ys[i] = p.X, p.Y
	}
	pad := math.Max(s.cfg.Trackers[0].Radius, s.cfg.Trackers[1].Radius) + 10
	bin := s.cfg.HistogramBin
	align := func(lo, hi float64) [2]float64 {
		return [2]float64{math.Floor((lo-pad)/bin) * bin, math.Ceil((hi+pad)/bin) * bin}
	}
	return align(floats.Min(xs), floats.Max(xs)), align(floats.Min(ys), floats.Max(ys))
}

// SetNoise replaces the measurement noise.
func (s *Simulation) SetNoise(n MeasurementNoise) {
	s.noise = n
}

// AddExporter registers an exporter written at every step.
func (s *Simulation) AddExporter(e Exporter) {
	s.exporters = append(s.exporters, e)
}

// RunID returns the identifier of this run.
func (s *Simulation) RunID() uuid.UUID {
	return s.runID
}

// Config returns the configuration of the simulation.
func (s *Simulation) Config() *SimulationConfig {
	return s.cfg
}

// Target returns the simulated target.
func (s *Simulation) Target() *Target {
	return s.target
}

// Trackers returns both trackers.
func (s *Simulation) Trackers() [2]*Tracker {
	return s.trackers
}

// Cloud returns the accumulated hyperbolic solutions.
func (s *Simulation) Cloud() *SolutionCloud {
	return s.cloud
}

// Records returns the records of all the steps so far.
func (s *Simulation) Records() []StepRecord {
	return append([]StepRecord(nil), s.records...)
}

// Errors returns the localization error of each step, NaN when no solution was found.
func (s *Simulation) Errors() []float64 {
	errs := make([]float64, len(s.records))
	for i, r := range s.records {
		errs[i] = r.LocalizationError
	}
	return errs
}

// Step runs one time step of the simulation.
func (s *Simulation) Step() (StepRecord, error) {
	N, Δt := s.cfg.Horizon, s.cfg.TimeStep
	t := float64(s.step) * Δt
	pose, _ := s.target.Telemetry()

	targetRef, _, err := SliceTrajectory(s.target.Curve(), s.target.Parameter(), N+1, s.target.Velocity(), Δt)
	if err != nil {
		return StepRecord{}, fmt.Errorf("step %d: target reference: %w", s.step, err)
	}
	anchors, err := ReferenceStates(targetRef, N+1)
	if err != nil {
		return StepRecord{}, err
	}

	var params [2]Parameters
	var x0 [2][]float64
	for i, tc := range s.cfg.Trackers {
		ref, err := CircularReference(anchors, tc.AngularVelocity, tc.Phase, t, tc.Radius, Δt)
		if err != nil {
			return StepRecord{}, fmt.Errorf("step %d: %s reference: %w", s.step, tc.Label, err)
		}
		UnwrapHeadings(ref, s.states[i].AtVec(2))
		params[i] = Parameters{Initial: mat.VecDenseCopyOf(s.states[i]), Reference: ref}
		if s.guesses[i] == nil {
			x0[i] = s.trackers[i].InitialGuess(params[i])
		} else {
			x0[i] = s.trackers[i].ShiftGuess(s.guesses[i])
		}
	}

	var (
		wg        sync.WaitGroup
		solutions [2]*Solution
		errs      [2]error
	)
	for i := range s.trackers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			solutions[i], errs[i] = s.solver.Solve(s.problems[i], params[i], x0[i])
		}(i)
	}
	wg.Wait()
	if err := errors.Join(errs[0], errs[1]); err != nil {
		return StepRecord{}, fmt.Errorf("step %d: %w", s.step, err)
	}

	rec := StepRecord{Step: s.step, Time: t, Target: pose}
	var (
		positions [2]Point2D
		measured  [2]Point2D
		next      [2]*mat.VecDense
	)
	for i, tr := range s.trackers {
		x := solutions[i].X
		if len(x) != tr.DecisionSize() {
			return StepRecord{}, fmt.Errorf("step %d: %w: %s solution has %d elements, expected %d", s.step, ErrInvalidInput, tr.Label(), len(x), tr.DecisionSize())
		}
		current := PoseFromVector(s.states[i])
		positions[i] = current.Position()
		measured[i] = positions[i].Add(s.noise.Position(s.step, i))
		rec.Trackers[i] = current
		u := tr.PredictedControl(x, 0)
		rec.Controls[i] = [ControlSize]float64{u.AtVec(0), u.AtVec(1)}
		next[i] = tr.Kinematics().Predict(s.states[i], u, Δt)
	}

	target := pose.Position()
	rec.RangeDifference = RangeDifference(target, positions[0], positions[1]) + s.noise.RangeDifference(s.step)
	solution, err := s.tdoa.SolveRangeDifference(rec.RangeDifference, measured[0], measured[1])
	switch {
	case errors.Is(err, ErrIllFormedGeometry):
		Logf("[simulation] step %d: no hyperbolic solution: %v", s.step, err)
	case err != nil:
		return StepRecord{}, fmt.Errorf("step %d: %w", s.step, err)
	}
	rec.Solutions = len(solution)
	if s.truth.Len() != s.step {
		return StepRecord{}, fmt.Errorf("step %d: %w: ground truth holds %d positions", s.step, ErrInvalidInput, s.truth.Len())
	}
	rec.LocalizationError = LocalizationError(target, solution)
	u, err := s.target.next(Δt)
	if err != nil {
		return StepRecord{}, fmt.Errorf("step %d: %w", s.step, err)
	}

	// Nothing is modified until the record is exported, so a failed step can be retried.
	for _, e := range s.exporters {
		if err := e.Write(rec); err != nil {
			return StepRecord{}, fmt.Errorf("step %d: export: %w", s.step, err)
		}
	}

	for i, tr := range s.trackers {
		if err := tr.RecordSolution(solutions[i].X); err != nil {
			return StepRecord{}, err
		}
		s.guesses[i] = solutions[i].X
		s.states[i] = next[i]
	}
	s.cloud.Add(target, positions[0], positions[1], solution)
	s.truth.Record(target)
	s.records = append(s.records, rec)
	s.target.u = u
	s.step++
	return rec, nil
}

// Run runs the remaining steps of the simulation, stopping early if the
// context is cancelled.
func (s *Simulation) Run(ctx context.Context) error {
	for s.step < s.cfg.Steps {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		rec, err := s.Step()
		if err != nil {
			return err
		}
		if rec.Step%10 == 0 {
			Logf("[simulation] step %d of %d: target=%s error=%.3f m", rec.Step, s.cfg.Steps, rec.Target, rec.LocalizationError)
		}
	}
	return nil
}

// Report summarizes a simulation run.
type Report struct {
	RunID uuid.UUID
	Steps int
	// Localized is the number of steps with a hyperbolic solution.
	Localized   int
	MeanError   float64
	StdDevError float64
	MaxError    float64
	Points      int
}

func (r Report) String() string {
	return fmt.Sprintf("run %s: %d steps, %d localized, error %.3f ± %.3f m (max %.3f m), %d points",
		r.RunID, r.Steps, r.Localized, r.MeanError, r.StdDevError, r.MaxError, r.Points)
}

// Report returns the localization statistics of the steps run so far.
func (s *Simulation) Report() Report {
	rep := Report{RunID: s.runID, Steps: len(s.records), Points: s.cloud.Len()}
	var errs []float64
	for _, e := range s.Errors() {
		if !math.IsNaN(e) {
			errs = append(errs, e)
		}
	}
	rep.Localized = len(errs)
	if len(errs) == 0 {
		rep.MeanError, rep.StdDevError, rep.MaxError = math.NaN(), math.NaN(), math.NaN()
		return rep
	}
	rep.MeanError, rep.StdDevError = stat.MeanStdDev(errs, nil)
	if len(errs) == 1 {
		rep.StdDevError = 0
	}
	rep.MaxError = floats.Max(errs)
	return rep
}
