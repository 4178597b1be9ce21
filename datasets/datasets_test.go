package datasets

import "math/rand"
import "testing"

import "github.com/stretchr/testify/assert"

func TestSplitAndBalance(t *testing.T) {
	d := Dataset{1: true, 2: true, 3: true, 4: false}
	sd := SplitDataset(d)
	assert.Len(t, sd[1], 3)
	assert.Len(t, sd[0], 1)

	sd = BalanceDataset(sd, rand.New(rand.NewSource(1)))
	assert.Len(t, sd[0], 3)
	assert.Len(t, sd[1], 3)
	for k := range sd[0] {
		_, both := sd[1][k]
		assert.False(t, both, "feature %d on both sides", k)
	}
}

func TestConstant(t *testing.T) {
	c, v := Dataset{}.Constant()
	assert.True(t, c)
	assert.False(t, v)

	c, v = Dataset{5: true, 6: true}.Constant()
	assert.True(t, c)
	assert.True(t, v)

	c, _ = Dataset{5: true, 6: false}.Constant()
	assert.False(t, c)
}

func TestTallyCorrectOverridesImprove(t *testing.T) {
	var tally Tally
	tally.Init()
	tally.AddToImprove(10, -1)
	tally.AddToImprove(11, 1)
	tally.AddToCorrect(10, 1, true)
	tally.AddToCorrect(10, 1, false)
	tally.AddToCorrect(12, 1, false)
	tally.AddToCorrect(12, -1, false)

	assert.True(t, tally.GetImprovementPossible())
	assert.Equal(t, Dataset{10: true, 11: true}, tally.Dataset(1))
}

func TestTallyMappingMajority(t *testing.T) {
	var tally Tally
	tally.Init()
	tally.AddToMapping(3, 2)
	tally.AddToMapping(3, 2)
	tally.AddToMapping(3, 1)
	tally.AddToMapping(4, 1)
	tally.AddToMapping(4, 3)

	d := tally.Dataset(2)
	// feature 3 -> class 2 (binary 10)
	assert.False(t, d[3])
	assert.True(t, d[3|1<<16])
	// feature 4 ties between 1 and 3, the smaller one wins
	assert.True(t, d[4])
	assert.False(t, d[4|1<<16])
	assert.Equal(t, 2, tally.Len())
}
