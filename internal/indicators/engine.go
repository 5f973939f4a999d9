package indicators

import (
	"math"

	"github.com/sniperterm/futuresengine/internal/model"
)

// Periods bundles the configurable lookback periods for every indicator in
// the bundle; defaults match spec §3's fixed periods.
type Periods struct {
	RSI            int
	StochRSIRSI    int
	StochRSIStoch  int
	StochRSIK      int
	StochRSID      int
	WilliamsR      int
	StochK         int
	StochD         int
	KDJRSV         int
	KDJK           int
	KDJD           int
	MACDFast       int
	MACDSlow       int
	MACDSignal     int
	BBPeriod       int
	BBSigma        float64
	EMAFast        int
	EMAMid         int
	EMASlow        int
	AOFast         int
	AOSlow         int
	CMF            int
	ADX            int
	ATR            int
	DivergenceLookback int
}

// DefaultPeriods returns the fixed periods named in spec §3.
func DefaultPeriods() Periods {
	return Periods{
		RSI: 14,
		StochRSIRSI: 21, StochRSIStoch: 9, StochRSIK: 3, StochRSID: 3,
		WilliamsR: 14,
		StochK:    14, StochD: 3,
		KDJRSV: 9, KDJK: 3, KDJD: 3,
		MACDFast: 12, MACDSlow: 26, MACDSignal: 9,
		BBPeriod: 20, BBSigma: 2,
		EMAFast: 5, EMAMid: 13, EMASlow: 34,
		AOFast: 5, AOSlow: 34,
		CMF: 20,
		ADX: 14,
		ATR: 14,
		DivergenceLookback: 40,
	}
}

// Compute is the IndicatorEngine entry point: a pure function of a tail
// window of candles to a fixed-shape IndicatorBundle (spec §4.3). When the
// tail is shorter than an indicator needs, that indicator emits a neutral
// scalar and no events rather than aborting the bundle.
func Compute(tail []model.Candle, p Periods) model.IndicatorBundle {
	n := len(tail)
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i, c := range tail {
		closes[i] = c.CloseFloat()
		h, _ := c.High.Float64()
		l, _ := c.Low.Float64()
		v, _ := c.Volume.Float64()
		highs[i] = h
		lows[i] = l
		volumes[i] = v
	}

	var b model.IndicatorBundle

	rsi := RSISeries(closes, p.RSI)
	b.RSI14 = buildRSI(closes, rsi, p.DivergenceLookback)

	srK, srD := StochRSI(closes, p.StochRSIRSI, p.StochRSIStoch, p.StochRSIK, p.StochRSID)
	b.StochRSI = buildStochRSI(srK, srD)

	wr := WilliamsR(highs, lows, closes, p.WilliamsR)
	b.WilliamsR = buildWilliamsR(wr)

	stK, stD := StochasticKD(highs, lows, closes, p.StochK, p.StochD)
	b.Stochastic = buildStochastic(stK, stD)

	kk, kd, kj := KDJ(highs, lows, closes, p.KDJRSV, p.KDJK, p.KDJD)
	b.KDJ = buildKDJ(kk, kd, kj)

	mLine, mSig, mHist := MACDSeries(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	b.MACD = buildMACD(mLine, mSig, mHist)

	up, mid, lo, pb, bw := BollingerBands(closes, p.BBPeriod, p.BBSigma)
	b.Bollinger = buildBollinger(closes, up, mid, lo, pb, bw)

	b.EMA9 = EMALast(closes, 9)
	b.EMA21 = EMALast(closes, 21)
	b.EMA50 = EMALast(closes, 50)
	b.EMA200 = EMALast(closes, 200)
	b.EMATriplet = buildEMATriplet(closes, p)

	ao := AwesomeOscillator(highs, lows, p.AOFast, p.AOSlow)
	b.AO = buildAO(ao)

	obv := OBVSeries(closes, volumes)
	b.OBV = buildOBV(obv)

	cmf := CMFSeries(highs, lows, closes, volumes, p.CMF)
	b.CMF20 = buildCMF(cmf)

	adx := ADXSeries(highs, lows, closes, p.ADX)
	b.ADX14 = buildADX(adx)

	atr := ATRSeries(highs, lows, closes, p.ATR)
	b.ATR14 = last(atr)
	if n > 0 && closes[n-1] != 0 && !math.IsNaN(b.ATR14) {
		b.ATRPercent = (b.ATR14 / closes[n-1]) * 100
	} else {
		b.ATRPercent = math.NaN()
	}

	return b
}

func neutral(v float64) float64 {
	if math.IsNaN(v) {
		return 50
	}
	return v
}
