package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUpdate_AssignsUniqueIDs(t *testing.T) {
	a := NewUpdate()
	b := NewUpdate()

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestNewUpdate_KeepsActionOrder(t *testing.T) {
	first := Action{Kind: "add"}
	second := Action{Kind: "remove"}

	u := NewUpdate(first, second)

	require.Len(t, u.Actions, 2)
	assert.Equal(t, ActionKind("add"), u.Actions[0].Kind)
	assert.Equal(t, ActionKind("remove"), u.Actions[1].Kind)
}

func TestUpdate_Validate(t *testing.T) {
	assert.NoError(t, Update{ID: "u1"}.Validate())
	assert.ErrorIs(t, Update{}.Validate(), ErrInvalidInput)
}

func TestNewAction_EncodesPayload(t *testing.T) {
	action, err := NewAction("rename", map[string]string{"name": "One"})
	require.NoError(t, err)

	assert.Equal(t, ActionKind("rename"), action.Kind)
	assert.JSONEq(t, `{"name":"One"}`, string(action.Data))
}

func TestNewAction_NilPayload(t *testing.T) {
	action, err := NewAction("clear", nil)
	require.NoError(t, err)
	assert.Nil(t, action.Data)
}

func TestNewAction_UnencodablePayload(t *testing.T) {
	_, err := NewAction("bad", make(chan int))
	assert.Error(t, err)
}

func TestAction_Decode(t *testing.T) {
	action := Action{Kind: "rename", Data: json.RawMessage(`{"name":"Two"}`)}

	var payload struct {
		Name string `json:"name"`
	}
	require.NoError(t, action.Decode(&payload))
	assert.Equal(t, "Two", payload.Name)
}

func TestAction_DecodeEmptyData(t *testing.T) {
	var payload struct{ Name string }
	assert.NoError(t, Action{Kind: "x"}.Decode(&payload))
	assert.Empty(t, payload.Name)
}

func TestAction_DecodeInvalid(t *testing.T) {
	action := Action{Kind: "rename", Data: json.RawMessage(`"text"`)}
	var payload struct{ Name string }
	assert.Error(t, action.Decode(&payload))
}

func TestActionKind_String(t *testing.T) {
	assert.Equal(t, "add", ActionKind("add").String())
}
