package messages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/core/ports/driving"
)

func TestMode_String(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{ModeBoard, "board"},
		{ModeInput, "input"},
		{ModeHelp, "help"},
		{Mode(99), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.mode.String())
		})
	}
}

func TestMode_ZeroValueIsBoard(t *testing.T) {
	var m Mode
	assert.Equal(t, ModeBoard, m)
}

func TestSyncCompleted(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		msg := SyncCompleted{Applied: 2, Written: 1}
		assert.Equal(t, 2, msg.Applied)
		assert.Equal(t, 1, msg.Written)
		assert.NoError(t, msg.Err)
	})

	t.Run("partial failure keeps counts", func(t *testing.T) {
		err := errors.New("write failed")
		msg := SyncCompleted{Applied: 3, Err: err}
		assert.Equal(t, 3, msg.Applied)
		assert.ErrorIs(t, msg.Err, err)
	})
}

func TestStatusRefreshed(t *testing.T) {
	status := &driving.EngineStatus{Availability: domain.AvailabilityAvailable, Known: 4, Unsaved: 1}
	msg := StatusRefreshed{Status: status}

	assert.Equal(t, 4, msg.Status.Known)
	assert.True(t, msg.Status.Availability.IsAvailable())
}

func TestUpdateApplied(t *testing.T) {
	msg := UpdateApplied{Update: domain.Update{ID: "u1"}}
	assert.Equal(t, "u1", msg.Update.ID)
}
