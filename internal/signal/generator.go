package signal

import (
	"fmt"
	"math"
	"time"

	"github.com/sniperterm/futuresengine/internal/model"
)

// Config is the subset of the ambient configuration the generator consults.
// Kept narrow and copied by value so a Generator is safe to share across
// goroutines and to reconfigure between cycles without touching callers.
type Config struct {
	MinScore       float64
	StrongScore    float64
	ExtremeScore   float64
	MinConfidence  float64
	MinIndicators  int
	DeadZone       float64
	MinConfluence  float64 // fraction in [0,1]
	RequireTrend   bool
}

// DefaultConfig mirrors spec §6's signal env defaults.
func DefaultConfig() Config {
	return Config{
		MinScore:      40,
		StrongScore:   65,
		ExtremeScore:  85,
		MinConfidence: 55,
		MinIndicators: 2,
		DeadZone:      20,
		MinConfluence: 0.55,
		RequireTrend:  false,
	}
}

// Generator is the composite-scoring SignalGenerator.
type Generator struct {
	cfg Config
}

func NewGenerator(cfg Config) *Generator {
	return &Generator{cfg: cfg}
}

// Input bundles everything Generate needs for one instrument/timeframe
// evaluation (spec §4.4).
type Input struct {
	Instrument    string
	Timeframe     string
	Primary       model.IndicatorBundle
	Other         map[string]model.IndicatorBundle // timeframe -> bundle, LTF and HTF mixed
	LTFTimeframes []string
	HTFTimeframes []string
	Micro         *model.MicrostructureSnapshot
	Regime        model.Regime
	PriorScore    float64
	Now           time.Time
}

// Generate folds one Input into a fully populated CompositeSignal.
func (g *Generator) Generate(in Input) model.CompositeSignal {
	events := in.Primary.AllEvents()

	perIndicator := map[string]float64{}
	for _, e := range events {
		cap := weightCap(e.Indicator)
		perIndicator[e.Indicator] += e.Contribution(cap)
	}
	score := 0.0
	for ind, sum := range perIndicator {
		cap := weightCap(ind)
		score += clamp(sum, -cap, cap)
	}

	microContribution := 0.0
	if in.Micro != nil {
		microContribution = clamp(in.Micro.DepthImbalance*MicrostructureCap, -MicrostructureCap, MicrostructureCap)
	}
	score = clamp(score+microContribution, -TotalCap, TotalCap)

	agreeing, opposing := countAgreeOppose(events, score)

	cs := model.CompositeSignal{
		Instrument:     in.Instrument,
		Timeframe:      in.Timeframe,
		Score:          score,
		TotalCap:       TotalCap,
		Breakdown:      perIndicator,
		Microstructure: microContribution,
		Events:         events,
		Agreeing:       agreeing,
		Opposing:       opposing,
		Regime:         in.Regime,
		Timestamp:      in.Now,
		Authorized:     true,
	}
	cs.Side = sideFromScore(score, g.cfg.DeadZone)
	cs.Class = classify(score, g.cfg)

	convergence, scoreFactor := g.convergence(cs.Side, in)
	cs.Convergence = convergence.grade
	cs.AlignedTimeframes = convergence.aligned
	directedPoints := convergence.points
	if cs.Side == model.SideShort {
		directedPoints = -directedPoints
	}
	cs.Score = clamp(cs.Score*scoreFactor+directedPoints, -TotalCap, TotalCap)

	cs.Confidence = g.confidence(cs, in)
	cs = g.applyRegimeBias(cs)
	cs.FeatureKey = string(model.NewFeatureKey(dominantArchetype(events), cs.Regime))

	g.applyGates(&cs, in)
	return cs
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sideFromScore(score, deadZone float64) model.Side {
	switch {
	case score > deadZone:
		return model.SideLong
	case score < -deadZone:
		return model.SideShort
	default:
		return model.SideNone
	}
}

func classify(score float64, cfg Config) model.Classification {
	abs := math.Abs(score)
	switch {
	case abs < cfg.DeadZone:
		return model.ClassNone
	case abs >= cfg.ExtremeScore:
		return model.ClassExtreme
	case abs >= cfg.StrongScore:
		return model.ClassStrong
	case abs >= cfg.MinScore:
		return model.ClassModerate
	default:
		return model.ClassWeak
	}
}

func countAgreeOppose(events []model.SignalEvent, score float64) (agreeing, opposing int) {
	side := 1.0
	if score < 0 {
		side = -1
	}
	if score == 0 {
		return 0, 0
	}
	for _, e := range events {
		s := e.Direction.Sign()
		if s == 0 {
			continue
		}
		if s == side {
			agreeing++
		} else {
			opposing++
		}
	}
	return
}

// confidence implements spec §4.4's additive/subtractive confidence model,
// clamped to [0,100].
func (g *Generator) confidence(cs model.CompositeSignal, in Input) float64 {
	conf := 50.0

	fired := cs.Agreeing + cs.Opposing
	if fired > 0 {
		conf += 30 * (float64(cs.Agreeing) / float64(fired))
	}

	conf += 20 * clamp(math.Abs(cs.Score)/cs.TotalCap, 0, 1)

	const expectedIndicators = 11
	conf += 20 * clamp(float64(fired)/expectedIndicators, 0, 1)

	if in.Primary.ADX14.Value < 20 {
		conf -= 10 // choppy market: weak trend strength
	}
	atrPct := in.Primary.ATRPercent
	if !math.IsNaN(atrPct) {
		switch {
		case atrPct > 5:
			conf -= 15
		case atrPct > 3:
			conf -= 8
		}
	}
	conf -= float64(cs.Opposing) * 3

	return clamp(conf, 0, 100)
}

type convergenceResult struct {
	grade   model.ConvergenceGrade
	aligned int
	points  float64 // additive bonus/penalty total, pre-multiplication
}

// Additive convergence tiers (spec §4.4: "an additive bonus (per-LTF,
// per-HTF tiered), a conflict penalty"). HTF agreement carries more weight
// than LTF agreement since it confirms the higher-timeframe trend context;
// conflicts are penalized symmetrically regardless of which timeframe class
// raised them.
const (
	ltfAlignedBonus     = 2.0
	htfAlignedBonus     = 4.0
	conflictPenalty     = 3.0
	pendingExtremeBonus = 1.5

	rsiOverbought = 70.0
	rsiOversold   = 30.0
	rsiApproach   = 5.0 // within this many points of the extreme counts as "pending"
)

// convergence labels each other-timeframe bundle aligned/neutral/conflicting
// relative to the primary side, derives a quality grade plus a multiplicative
// score factor, and separately accumulates the additive per-LTF/per-HTF bonus,
// conflict penalty, and HTF pending-extreme bonus named by spec §4.4.
func (g *Generator) convergence(side model.Side, in Input) (convergenceResult, float64) {
	if side == model.SideNone || len(in.Other) == 0 {
		return convergenceResult{grade: model.GradeNone}, 1.0
	}
	htf := toSet(in.HTFTimeframes)
	ltf := toSet(in.LTFTimeframes)

	aligned, conflicting, total := 0, 0, 0
	points := 0.0
	for tf, bundle := range in.Other {
		total++
		events := bundle.AllEvents()
		netSign := 0.0
		for _, e := range events {
			netSign += e.Direction.Sign()
		}
		isAligned := (side == model.SideLong && netSign > 0) || (side == model.SideShort && netSign < 0)
		isConflicting := (side == model.SideLong && netSign < 0) || (side == model.SideShort && netSign > 0)
		switch {
		case isAligned:
			aligned++
			if htf[tf] {
				points += htfAlignedBonus
			} else if ltf[tf] {
				points += ltfAlignedBonus
			}
		case isConflicting:
			conflicting++
			points -= conflictPenalty
		}

		if htf[tf] && !isAligned {
			if pendingExtreme(bundle, side) {
				points += pendingExtremeBonus
			}
		}
	}

	var grade model.ConvergenceGrade
	var factor float64
	switch {
	case aligned == total && conflicting == 0:
		grade, factor = model.GradeA, 1.4
	case conflicting == 0 && aligned >= total-1:
		grade, factor = model.GradeB, 1.2
	case aligned*2 >= total:
		grade, factor = model.GradeC, 1.0
	default:
		grade, factor = model.GradeD, 0.7
	}
	return convergenceResult{grade: grade, aligned: aligned, points: points}, factor
}

func toSet(tfs []string) map[string]bool {
	m := make(map[string]bool, len(tfs))
	for _, tf := range tfs {
		m[tf] = true
	}
	return m
}

// pendingExtreme reports whether an HTF bundle's RSI is approaching (but has
// not yet crossed) its overbought/oversold extreme in the direction that
// would confirm side, per spec §4.4's smaller HTF pending-extreme bonus.
func pendingExtreme(bundle model.IndicatorBundle, side model.Side) bool {
	v := bundle.RSI14.Value
	switch side {
	case model.SideLong:
		return v >= rsiOversold && v < rsiOversold+rsiApproach
	case model.SideShort:
		return v <= rsiOverbought && v > rsiOverbought-rsiApproach
	default:
		return false
	}
}

// applyRegimeBias nudges the score in favor of regime-aligned sides and
// against opposing ones, damping weak signals in ranging/unknown regimes.
func (g *Generator) applyRegimeBias(cs model.CompositeSignal) model.CompositeSignal {
	bias := 1.0
	switch cs.Regime {
	case model.RegimeTrendingLong:
		if cs.Side == model.SideLong {
			bias = 1 + 0.002*cs.Confidence
		} else if cs.Side == model.SideShort {
			bias = 1 - 0.002*cs.Confidence
		}
	case model.RegimeTrendingShort:
		if cs.Side == model.SideShort {
			bias = 1 + 0.002*cs.Confidence
		} else if cs.Side == model.SideLong {
			bias = 1 - 0.002*cs.Confidence
		}
	case model.RegimeRanging, model.RegimeUnknown:
		if math.Abs(cs.Score) < cs.TotalCap*0.5 {
			bias = 0.8
		}
	}
	cs.Score = clamp(cs.Score*bias, -cs.TotalCap, cs.TotalCap)
	return cs
}

func dominantArchetype(events []model.SignalEvent) string {
	if len(events) == 0 {
		return "none"
	}
	best := events[0]
	for _, e := range events[1:] {
		if math.Abs(e.Contribution(weightCap(e.Indicator))) > math.Abs(best.Contribution(weightCap(best.Indicator))) {
			best = e
		}
	}
	return fmt.Sprintf("%s_%d", best.Indicator, best.Type)
}

// applyGates runs the composable entry-gate sequence from spec §4.4 in
// order, appending a block-reason for every gate that fails.
func (g *Generator) applyGates(cs *model.CompositeSignal, in Input) {
	if cs.Class == model.ClassNone {
		cs.Block("dead_zone")
	}
	if math.Abs(cs.Score) < g.cfg.MinScore {
		cs.Block("min_score")
	}
	if in.PriorScore != 0 {
		crossedUp := math.Abs(in.PriorScore) < g.cfg.MinScore && math.Abs(cs.Score) >= g.cfg.MinScore
		sameSide := (in.PriorScore > 0) == (cs.Score > 0)
		if !crossedUp && !sameSide && math.Abs(cs.Score) >= g.cfg.MinScore {
			cs.Block("threshold_cross")
		}
	}
	if cs.Confidence < g.cfg.MinConfidence {
		cs.Block("min_confidence")
	}
	if cs.Agreeing < g.cfg.MinIndicators {
		cs.Block("min_agreeing_indicators")
	}
	fired := cs.Agreeing + cs.Opposing
	if fired > 0 && float64(cs.Agreeing)/float64(fired) < g.cfg.MinConfluence {
		cs.Block("min_confluence")
	}
	if g.cfg.RequireTrend {
		trendAligned := (cs.Side == model.SideLong && cs.Regime == model.RegimeTrendingLong) ||
			(cs.Side == model.SideShort && cs.Regime == model.RegimeTrendingShort)
		if !trendAligned {
			cs.Block("trend_alignment")
		}
	}
}
