package model

// ScalarSeries is a lightweight named scalar result with its fired events,
// the common shape every indicator in the bundle reduces to.
type ScalarSeries struct {
	Value  float64
	Events []SignalEvent
}

// Bollinger carries the Bollinger Band(20, 2-sigma) scalar outputs.
type Bollinger struct {
	Upper     float64
	Middle    float64
	Lower     float64
	PercentB  float64
	Bandwidth float64
	Events    []SignalEvent
}

// MACD carries the MACD(12,26,9) scalar outputs.
type MACD struct {
	Line      float64
	Signal    float64
	Histogram float64
	Events    []SignalEvent
}

// KDJ carries the KDJ(9,3,3) scalar outputs.
type KDJ struct {
	K, D, J float64
	Events  []SignalEvent
}

// StochRSI carries the StochRSI(21,9,3,3) scalar outputs.
type StochRSI struct {
	K, D  float64
	Events []SignalEvent
}

// Stochastic carries the Stochastic(14,3) scalar outputs.
type Stochastic struct {
	K, D   float64
	Events []SignalEvent
}

// EMATriplet carries a configurable fast/mid/slow EMA triplet in addition
// to the fixed IndicatorBundle.EMA9/EMA21/EMA50/EMA200 fields.
type EMATriplet struct {
	Fast, Mid, Slow float64
	Events          []SignalEvent
}

// OBV carries On-Balance-Volume plus its WMA(20)/SMA(20) smoothing lines.
type OBV struct {
	Value  float64
	WMA20  float64
	SMA20  float64
	Events []SignalEvent
}

// IndicatorBundle is the fixed-shape output of the IndicatorEngine for one
// tail window. It is a pure value: its lifetime equals the call that
// produced it.
type IndicatorBundle struct {
	RSI14      ScalarSeries
	StochRSI   StochRSI
	WilliamsR  ScalarSeries
	Stochastic Stochastic
	KDJ        KDJ
	MACD       MACD
	Bollinger  Bollinger
	EMA9       float64
	EMA21      float64
	EMA50      float64
	EMA200     float64
	EMATriplet EMATriplet
	AO         ScalarSeries
	OBV        OBV
	CMF20      ScalarSeries
	ADX14      ScalarSeries
	ATR14      float64
	ATRPercent float64
}

// AllEvents flattens every SignalEvent fired across the bundle, the input
// to SignalGenerator's scoring pass.
func (b IndicatorBundle) AllEvents() []SignalEvent {
	var out []SignalEvent
	out = append(out, b.RSI14.Events...)
	out = append(out, b.StochRSI.Events...)
	out = append(out, b.WilliamsR.Events...)
	out = append(out, b.Stochastic.Events...)
	out = append(out, b.KDJ.Events...)
	out = append(out, b.MACD.Events...)
	out = append(out, b.Bollinger.Events...)
	out = append(out, b.EMATriplet.Events...)
	out = append(out, b.AO.Events...)
	out = append(out, b.OBV.Events...)
	out = append(out, b.CMF20.Events...)
	out = append(out, b.ADX14.Events...)
	return out
}
