package domain

import (
	"math"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func binaryMarket(yes, no float64) Market {
	return Market{
		Outcomes: []Outcome{
			{Name: OutcomeYes, Price: yes},
			{Name: OutcomeNo, Price: no},
		},
	}
}

// --- BinarySpread ---

func TestBinarySpread_Balanced(t *testing.T) {
	assert.InDelta(t, 0.0, BinarySpread(binaryMarket(0.55, 0.45)), 1e-9)
}

func TestBinarySpread_Overround(t *testing.T) {
	assert.InDelta(t, 0.04, BinarySpread(binaryMarket(0.52, 0.52)), 1e-9)
}

func TestBinarySpread_Underround(t *testing.T) {
	assert.InDelta(t, 0.03, BinarySpread(binaryMarket(0.50, 0.47)), 1e-9)
}

func TestBinarySpread_NonBinaryLabels(t *testing.T) {
	m := Market{Outcomes: []Outcome{{Name: "Lakers", Price: 0.5}, {Name: "Celtics", Price: 0.5}}}
	assert.Equal(t, 1.0, BinarySpread(m))
}

func TestBinarySpread_LabelsAreCaseSensitive(t *testing.T) {
	m := Market{Outcomes: []Outcome{{Name: "Yes", Price: 0.5}, {Name: "No", Price: 0.5}}}
	assert.Equal(t, 1.0, BinarySpread(m))
}

// --- sub-scores ---

func TestVolumeScore_Buckets(t *testing.T) {
	assert.Equal(t, 30.0, VolumeScore(150000))
	assert.Equal(t, 25.0, VolumeScore(50000))
	assert.Equal(t, 20.0, VolumeScore(30000))
	assert.Equal(t, 15.0, VolumeScore(10000))
	assert.Equal(t, 10.0, VolumeScore(5000))
	assert.Equal(t, 5.0, VolumeScore(1))
	assert.Equal(t, 0.0, VolumeScore(0))
}

func TestLiquidityScore_Buckets(t *testing.T) {
	assert.Equal(t, 25.0, LiquidityScore(20000))
	assert.Equal(t, 20.0, LiquidityScore(15000))
	assert.Equal(t, 15.0, LiquidityScore(5000))
	assert.Equal(t, 10.0, LiquidityScore(1000))
	assert.Equal(t, 5.0, LiquidityScore(999))
	assert.Equal(t, 0.0, LiquidityScore(0))
}

func TestSpreadScore_Buckets(t *testing.T) {
	assert.Equal(t, 25.0, SpreadScore(0))
	assert.Equal(t, 20.0, SpreadScore(0.015))
	assert.Equal(t, 15.0, SpreadScore(0.03))
	assert.Equal(t, 10.0, SpreadScore(0.05))
	assert.Equal(t, 5.0, SpreadScore(0.08))
	assert.Equal(t, 0.0, SpreadScore(1))
}

func TestUrgencyScore_Buckets(t *testing.T) {
	assert.Equal(t, 20.0, UrgencyScore(0.5))
	assert.Equal(t, 20.0, UrgencyScore(-2))
	assert.Equal(t, 15.0, UrgencyScore(2.5))
	assert.Equal(t, 10.0, UrgencyScore(6))
	assert.Equal(t, 5.0, UrgencyScore(23))
	assert.Equal(t, 0.0, UrgencyScore(48))
	assert.Equal(t, 0.0, UrgencyScore(math.Inf(1)))
}

// --- BettingScore ---

func TestBettingScore_PerfectMarket(t *testing.T) {
	assert.Equal(t, 100.0, BettingScore(150000, 20000, 0, 0.5))
}

func TestBettingScore_NeverExceedsMaximum(t *testing.T) {
	for _, v := range []float64{0, 1, 5000, 1e9} {
		for _, h := range []float64{-1, 0.1, 100, math.Inf(1)} {
			s := BettingScore(v, v, 0, h)
			assert.LessOrEqual(t, s, 100.0)
			assert.GreaterOrEqual(t, s, 0.0)
		}
	}
}

func TestBettingScore_MaximaSumToHundred(t *testing.T) {
	assert.Equal(t, 100.0, MaxVolumeScore+MaxLiquidityScore+MaxSpreadScore+MaxUrgencyScore)
}

// --- Market helpers ---

func TestHoursToClose_NoEndDate(t *testing.T) {
	assert.True(t, math.IsInf(Market{}.HoursToClose(time.Now()), 1))
}

func TestHoursToClose_Future(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := Market{EndDate: now.Add(90 * time.Minute)}
	assert.InDelta(t, 1.5, m.HoursToClose(now), 1e-9)
}

func TestResolved(t *testing.T) {
	assert.True(t, Market{Active: false}.Resolved())
	assert.True(t, Market{Active: true, Closed: true}.Resolved())
	assert.False(t, Market{Active: true}.Resolved())
}

func TestTruncateQuestion(t *testing.T) {
	assert.Equal(t, "Will it rain?", TruncateQuestion("Will it rain?", "m1", 40))
	assert.Equal(t, "Will it r...", TruncateQuestion("Will it rain tomorrow?", "m1", 12))
	assert.Equal(t, "m1", TruncateQuestion("", "m1", 40))
}

func TestTruncateQuestion_MultiByte(t *testing.T) {
	q := TruncateQuestion("¿Ganará el Atlético la Champions esta temporada? 🏆🏆", "m1", 12)
	assert.True(t, utf8.ValidString(q))
	assert.Equal(t, 12, utf8.RuneCountInString(q))
	assert.Equal(t, "¿Ganará e...", q)

	id := TruncateQuestion("", "ñññññññññññññññññññññññññ", 40)
	assert.True(t, utf8.ValidString(id))
	assert.Equal(t, strings.Repeat("ñ", 20)+"...", id)
}
