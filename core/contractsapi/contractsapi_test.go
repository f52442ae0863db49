package contractsapi

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestABIs(t *testing.T) {
	assert.Equal(t, crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)")), TransferEventID)

	for _, name := range []string{"balanceOf", "ownerOf", "tokenByIndex"} {
		_, ok := ERC721ABI.Methods[name]
		assert.True(t, ok, name)
	}
	_, ok := TokenOfOwnerByIndexABI.Methods["tokenOfOwnerByIndex"]
	assert.True(t, ok)
	_, ok = ERC20ABI.Methods["decimals"]
	assert.True(t, ok)
}

func TestCreateContractTransactionInput(t *testing.T) {
	contract := common.HexToAddress("0x00000000000000000000000000000000000000c0")
	from := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	to := common.HexToAddress("0x00000000000000000000000000000000000000bb")

	t.Run("transfer", func(t *testing.T) {
		tx, err := CreateContractTransactionInput(ContractTransactionInput{
			ABI:      ERC721ABI,
			Method:   "transferFrom",
			From:     from,
			Contract: contract,
			Args:     []any{from, to, big.NewInt(7)},
		})
		require.NoError(t, err)
		assert.Equal(t, contract.Hex(), tx.To)
		assert.Equal(t, from.Hex(), tx.From)
		assert.Nil(t, tx.Gas)
		assert.Nil(t, tx.Value)

		data, err := hexutil.Decode(tx.Data)
		require.NoError(t, err)
		method, err := ERC721ABI.MethodById(data[:4])
		require.NoError(t, err)
		assert.Equal(t, "transferFrom", method.Name)

		args, err := method.Inputs.Unpack(data[4:])
		require.NoError(t, err)
		assert.Equal(t, to, args[1])
		assert.Equal(t, int64(7), args[2].(*big.Int).Int64())
	})

	t.Run("with value", func(t *testing.T) {
		tx, err := CreateContractTransactionInput(ContractTransactionInput{
			ABI:      ERC721ABI,
			Method:   "approve",
			Contract: contract,
			Value:    big.NewInt(1),
			Args:     []any{to, big.NewInt(1)},
		})
		require.NoError(t, err)
		assert.Empty(t, tx.From)
		require.NotNil(t, tx.Value)
		assert.Equal(t, "1", tx.Value.String())
	})

	t.Run("bad arguments", func(t *testing.T) {
		_, err := CreateContractTransactionInput(ContractTransactionInput{
			ABI:      ERC721ABI,
			Method:   "ownerOf",
			Contract: contract,
			Args:     []any{"not a number"},
		})
		require.Error(t, err)
	})

	t.Run("missing contract", func(t *testing.T) {
		_, err := CreateContractTransactionInput(ContractTransactionInput{ABI: ERC721ABI, Method: "ownerOf"})
		require.Error(t, err)
	})
}

func TestResults(t *testing.T) {
	v, err := BigIntResult([]any{big.NewInt(3)})
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.Int64())

	_, err = BigIntResult([]any{"3"})
	require.Error(t, err)

	addr, err := AddressResult([]any{common.HexToAddress("0x01")})
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x01"), addr)

	_, err = AddressResult(nil)
	require.Error(t, err)
}
