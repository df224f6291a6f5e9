package logic

import (
	"context"
	"testing"

	"github.com/blues/propdao/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveEventIdempotent(t *testing.T) {
	events := NewChainEventLogic(newTestDB(t))
	event := func(block, index int64) *model.ChainEventModel {
		return &model.ChainEventModel{
			ContractRole:    "dao",
			ContractAddress: "0xdao",
			EventName:       "VoteCast",
			TxHash:          "0x01",
			LogIndex:        index,
			BlockNum:        block,
			Data:            `{"support":true}`,
		}
	}

	saved, err := events.SaveEvent(context.Background(), event(10, 0))
	require.NoError(t, err)
	assert.True(t, saved)

	saved, err = events.SaveEvent(context.Background(), event(10, 0))
	require.NoError(t, err)
	assert.False(t, saved)

	saved, err = events.SaveEvent(context.Background(), event(12, 1))
	require.NoError(t, err)
	assert.True(t, saved)

	last, err := events.LastIndexedBlock(context.Background(), "0xdao")
	require.NoError(t, err)
	assert.Equal(t, uint64(12), last)

	last, err = events.LastIndexedBlock(context.Background(), "0xother")
	require.NoError(t, err)
	assert.Zero(t, last)

	list, total, err := events.ListEvents(context.Background(), "dao", "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, int64(12), list[0].BlockNum)

	_, err = events.SaveEvent(context.Background(), &model.ChainEventModel{EventName: "x"})
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}
