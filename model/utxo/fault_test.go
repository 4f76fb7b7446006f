package utxo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/UdjinM6/dash-sub001/errcode"
	"github.com/UdjinM6/dash-sub001/model/outpoint"
)

func TestCrashSimulator(t *testing.T) {
	never := NewCrashSimulator(0, 1)
	for i := 0; i < 100; i++ {
		assert.NoError(t, never.Hook(PhaseCoins, i))
	}
	assert.Equal(t, int64(100), never.Commits())
	assert.Equal(t, int64(0), never.Crashes())

	always := NewCrashSimulator(1, 1)
	assert.NoError(t, always.Hook(PhaseMark, 1))
	assert.NoError(t, always.Hook(PhaseCommit, 3))
	err := always.Hook(PhaseCoins, 2)
	assert.True(t, errcode.IsErrorCode(err, errcode.ErrorSimulatedCrash))
	assert.Equal(t, int64(1), always.Crashes())

	sometimes := NewCrashSimulator(4, 7)
	crashes := 0
	for i := 0; i < 1000; i++ {
		if sometimes.Hook(PhaseCoins, i) != nil {
			crashes++
		}
	}
	assert.Equal(t, int64(crashes), sometimes.Crashes())
	assert.True(t, crashes > 100 && crashes < 400, "%d crashes", crashes)
}

func TestCrashAfter(t *testing.T) {
	hook := CrashAfter(3)
	assert.NoError(t, hook(PhaseMark, 1))
	assert.NoError(t, hook(PhaseCoins, 2))
	assert.Error(t, hook(PhaseCoins, 3))
	assert.NoError(t, hook(PhaseCommit, 4))
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "mark", PhaseMark.String())
	assert.Equal(t, "coins", PhaseCoins.String())
	assert.Equal(t, "commit", PhaseCommit.String())
	assert.Equal(t, "unknown", Phase(9).String())
}

func TestCrashSimulatorDrivesApply(t *testing.T) {
	coinsDB, gate := newMemCoinsDB(t)
	coinsDB.SetBatchSize(1)
	sim := NewCrashSimulator(1, 1)
	coinsDB.SetFaultHook(sim.Hook)

	muts := CoinsMap{}
	for i := uint32(0); i < 3; i++ {
		muts[*outpoint.NewOutPoint(hashTx, i)] = testCoin(1)
	}
	err := apply(t, coinsDB, gate, muts, hashT1)
	assert.True(t, errcode.IsErrorCode(err, errcode.ErrorSimulatedCrash))
	assert.Equal(t, int64(2), sim.Commits())
}
