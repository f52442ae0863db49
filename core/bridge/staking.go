package bridge

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/evmbridge/sdk-go/core/contractsapi"
	"github.com/evmbridge/sdk-go/core/types"
)

// GetStakedTokens returns, as JSON, the ids of contractAddress tokens the
// current account has transferred to stakeContractAddress more often than it
// got them back. It returns "null" when the stake-direction query yields nothing.
func (m *Module) GetStakedTokens(ctx context.Context, contractAddress, stakeContractAddress string) (string, error) {
	if _, err := m.configuredWallet(); err != nil {
		return "", err
	}
	contract, err := parseAddress(contractAddress)
	if err != nil {
		return "", err
	}
	stake, err := parseAddress(stakeContractAddress)
	if err != nil {
		return "", err
	}
	acct, err := m.connectedAccount(ctx)
	if err != nil {
		return "", err
	}

	reader, err := m.logReader(ctx, acct)
	if err != nil {
		return "", err
	}

	var stakeLogs, unstakeLogs []gethtypes.Log
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logs, err := reader.FilterLogs(gctx, transferQuery(contract, *acct.Address, stake))
		stakeLogs = logs
		return errors.Wrap(err, "fetch stake logs")
	})
	g.Go(func() error {
		logs, err := reader.FilterLogs(gctx, transferQuery(contract, stake, *acct.Address))
		unstakeLogs = logs
		return errors.Wrap(err, "fetch unstake logs")
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	if stakeLogs == nil {
		return "null", nil
	}

	staked := stakedTokenIDs(transferTokenIDs(stakeLogs), transferTokenIDs(unstakeLogs))
	m.logger.Debug("staked tokens",
		zap.String("contract", contract.Hex()),
		zap.Int("stakeLogs", len(stakeLogs)),
		zap.Int("unstakeLogs", len(unstakeLogs)),
		zap.Int("staked", len(staked)))

	out := make([]*types.BigInt, len(staked))
	for i, id := range staked {
		out[i] = types.NewBigInt(id)
	}
	return marshalString(out)
}

func (m *Module) logReader(ctx context.Context, acct Account) (LogReader, error) {
	if m.publicClients == nil {
		return nil, errors.WithStack(ErrNoReadClient)
	}
	if acct.ChainID == nil {
		return nil, errors.Wrap(ErrChainNotFound, "account has no chain")
	}

	m.mu.RLock()
	chain, ok := m.chains[*acct.ChainID]
	rpcURL := m.rpcOverrides[*acct.ChainID]
	m.mu.RUnlock()

	if !ok {
		var err error
		if chain, err = LookupChain(*acct.ChainID); err != nil {
			return nil, err
		}
	}
	if rpcURL == "" {
		rpcURL = chain.RPCURL
	}

	reader, err := m.publicClients.LogReader(ctx, chain, rpcURL)
	if err != nil {
		return nil, errors.Wrapf(err, "open read client for chain %d", chain.ID)
	}
	return reader, nil
}

// transferQuery selects ERC-721 Transfer(from, to, *) logs of contract from genesis to latest.
func transferQuery(contract, from, to common.Address) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: big.NewInt(0),
		Addresses: []common.Address{contract},
		Topics: [][]common.Hash{
			{contractsapi.TransferEventID},
			{common.BytesToHash(from.Bytes())},
			{common.BytesToHash(to.Bytes())},
		},
	}
}

// transferTokenIDs extracts token ids from logs that have exactly the ERC-721
// Transfer shape. ERC-20 transfers share topic 0 but carry 3 topics and are skipped.
func transferTokenIDs(logs []gethtypes.Log) []*big.Int {
	ids := make([]*big.Int, 0, len(logs))
	for _, l := range logs {
		if l.Removed || len(l.Topics) != 4 || l.Topics[0] != contractsapi.TransferEventID {
			continue
		}
		ids = append(ids, new(big.Int).SetBytes(l.Topics[3].Bytes()))
	}
	return ids
}

// stakedTokenIDs keeps, in first-seen order, the distinct stake ids whose
// stake count is strictly greater than their unstake count.
func stakedTokenIDs(stakes, unstakes []*big.Int) []*big.Int {
	unstakeCount := make(map[string]int, len(unstakes))
	for _, id := range unstakes {
		unstakeCount[id.String()]++
	}

	stakeCount := make(map[string]int, len(stakes))
	distinct := make([]*big.Int, 0, len(stakes))
	for _, id := range stakes {
		key := id.String()
		if stakeCount[key] == 0 {
			distinct = append(distinct, id)
		}
		stakeCount[key]++
	}

	staked := make([]*big.Int, 0, len(distinct))
	for _, id := range distinct {
		key := id.String()
		if stakeCount[key] > unstakeCount[key] {
			staked = append(staked, id)
		}
	}
	return staked
}
