package solana

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ybbus/jsonrpc"
)

func decodeRaw(t *testing.T, s string) interface{} {
	d := json.NewDecoder(bytes.NewBufferString(s))
	var raw interface{}
	require.NoError(t, d.Decode(&raw))
	return raw
}

func TestParseTransactionError(t *testing.T) {
	e, err := ParseTransactionError(decodeRaw(t, `{"InstructionError":[1,{"Custom":6001}]}`))
	require.NoError(t, err)

	assert.Equal(t, TransactionErrorInstructionError, e.ErrorKey())
	require.NotNil(t, e.InstructionError())
	assert.Equal(t, 1, e.InstructionError().Index)
	assert.Equal(t, InstructionErrorCustom, e.InstructionError().ErrorKey())
	require.NotNil(t, e.InstructionError().CustomError())
	assert.Equal(t, CustomError(6001), *e.InstructionError().CustomError())
	assert.False(t, e.IsBlockhashNotFound())

	e, err = ParseTransactionError(decodeRaw(t, `{"InstructionError":[0,"AccountAlreadyInitialized"]}`))
	require.NoError(t, err)
	assert.Equal(t, InstructionErrorAccountAlreadyInitialized, e.InstructionError().ErrorKey())

	e, err = ParseTransactionError(decodeRaw(t, `"BlockhashNotFound"`))
	require.NoError(t, err)
	assert.Equal(t, TransactionErrorBlockhashNotFound, e.ErrorKey())
	assert.Nil(t, e.InstructionError())
	assert.True(t, e.IsBlockhashNotFound())

	e, err = ParseTransactionError(nil)
	assert.NoError(t, err)
	assert.Nil(t, e)
}

func TestParseRPCError(t *testing.T) {
	rpcErr := &jsonrpc.RPCError{
		Code:    -32002,
		Message: "Transaction simulation failed",
		Data: map[string]interface{}{
			"err": decodeRaw(t, `{"InstructionError":[1,"InvalidInstructionData"]}`),
		},
	}

	e, err := ParseRPCError(rpcErr)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, InstructionErrorInvalidInstructionData, e.InstructionError().ErrorKey())

	_, err = ParseRPCError(&jsonrpc.RPCError{Code: -32002, Data: "nope"})
	assert.Error(t, err)
}

func TestNewTransactionError(t *testing.T) {
	e := NewTransactionError(TransactionErrorBlockhashNotFound)
	assert.Equal(t, decodeRaw(t, `"BlockhashNotFound"`), e.raw)

	e, err := TransactionErrorFromInstructionError(NewInstructionError(0, InstructionErrorInvalidArgument))
	require.NoError(t, err)
	assert.Equal(t, decodeRaw(t, `{"InstructionError":[0,"InvalidArgument"]}`), e.raw)

	e, err = TransactionErrorFromInstructionError(&InstructionError{
		Index: 2,
		Err:   CustomError(3),
	})
	require.NoError(t, err)
	assert.Equal(t, decodeRaw(t, `{"InstructionError":[2,{"Custom":3}]}`), e.raw)

	s, err := e.JSONString()
	require.NoError(t, err)
	assert.JSONEq(t, `{"InstructionError":[2,{"Custom":3}]}`, s)

	var target *TransactionError
	assert.True(t, errors.As(errors.Wrap(e, "wrapped"), &target))
}

func TestParseJSONNumber(t *testing.T) {
	tc := []interface{}{
		"1",
		1.0,
		json.Number("1"),
	}
	for i, c := range tc {
		v, err := parseJSONNumber(c)
		assert.NoError(t, err)
		assert.Equal(t, 1, v, i)
	}

	_, err := parseJSONNumber(true)
	assert.Error(t, err)
}
