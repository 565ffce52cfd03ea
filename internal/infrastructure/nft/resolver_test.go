package nft

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"portfolio_aggregator/internal/domain/entity"
	"portfolio_aggregator/internal/infrastructure/configloader"
	"portfolio_aggregator/internal/infrastructure/network/client"
)

type fakeAccountReader struct {
	accounts []*client.AccountInfo
	err      error
	requests [][]string
}

func (f *fakeAccountReader) GetMultipleAccounts(_ context.Context, addresses []string) ([]*client.AccountInfo, error) {
	f.requests = append(f.requests, addresses)
	if f.err != nil {
		return nil, f.err
	}
	return f.accounts, nil
}

func testChain() entity.ChainDefinition {
	return entity.ChainDefinition{
		Identifier:        "solana",
		Kind:              entity.ChainKindSolana,
		MetadataProgramID: testMetadataProgramID,
	}
}

func testResolverConfig() configloader.NftResolverConfig {
	return configloader.NftResolverConfig{
		OffchainTimeoutMillis: 2000,
		MaxConcurrentFetches:  4,
		MaxAccountsPerBatch:   100,
		CacheTTLMinutes:       1,
	}
}

func holdingsOf(mints map[string]string) map[string]entity.RawHolding {
	holdings := make(map[string]entity.RawHolding, len(mints))
	for account, mint := range mints {
		holdings[account] = entity.RawHolding{
			AccountAddress: account,
			AssetID:        mint,
			RawAmount:      big.NewInt(1),
		}
	}
	return holdings
}

func TestResolveAllStatuses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"Mad Lad #1","image":"https://img.example/1.png"}`))
	}))
	defer server.Close()

	reader := &fakeAccountReader{
		accounts: []*client.AccountInfo{
			{Owner: testMetadataProgramID, Data: encodeMetadataAccount("Mad Lad #1", "MAD", server.URL, 4)},
			nil,
		},
	}
	resolver := NewResolver(reader, testResolverConfig(), zap.NewNop())

	records, err := resolver.ResolveAll(context.Background(), testChain(), holdingsOf(map[string]string{
		"Account1111": testMintA,
		"Account2222": testMintB,
	}))
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Records come back in account-address order.
	assert.Equal(t, "Account1111", records[0].AccountAddress)
	assert.Equal(t, "Account2222", records[1].AccountAddress)

	require.Equal(t, entity.NftResolved, records[0].Status)
	require.NotNil(t, records[0].OnChain)
	assert.Equal(t, "Mad Lad #1", records[0].OnChain.Name)
	require.NotNil(t, records[0].OffChain)
	assert.Equal(t, "https://img.example/1.png", records[0].OffChain.Image)

	assert.Equal(t, entity.NftNoMetadata, records[1].Status)
	assert.Nil(t, records[1].OnChain)
}

func TestResolveAllOffchainFailureKeepsOnChain(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	reader := &fakeAccountReader{
		accounts: []*client.AccountInfo{
			{Owner: testMetadataProgramID, Data: encodeMetadataAccount("Broken", "BRK", server.URL, 0)},
		},
	}
	resolver := NewResolver(reader, testResolverConfig(), zap.NewNop())

	records, err := resolver.ResolveAll(context.Background(), testChain(),
		holdingsOf(map[string]string{"Account1111": testMintA}))
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, entity.NftFetchFailed, records[0].Status)
	require.NotNil(t, records[0].OnChain)
	assert.Equal(t, "Broken", records[0].OnChain.Name)
	assert.Nil(t, records[0].OffChain)
}

func TestResolveAllUndecodableAccount(t *testing.T) {
	reader := &fakeAccountReader{
		accounts: []*client.AccountInfo{
			{Owner: testMetadataProgramID, Data: []byte{1, 2, 3}},
		},
	}
	resolver := NewResolver(reader, testResolverConfig(), zap.NewNop())

	records, err := resolver.ResolveAll(context.Background(), testChain(),
		holdingsOf(map[string]string{"Account1111": testMintA}))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, entity.NftFetchFailed, records[0].Status)
}

func TestResolveAllAccountReadFailure(t *testing.T) {
	reader := &fakeAccountReader{err: errors.New("node unreachable")}
	resolver := NewResolver(reader, testResolverConfig(), zap.NewNop())

	records, err := resolver.ResolveAll(context.Background(), testChain(), holdingsOf(map[string]string{
		"Account1111": testMintA,
		"Account2222": testMintB,
	}))
	require.NoError(t, err, "read failures must surface per record, not as a call error")
	require.Len(t, records, 2)
	for _, record := range records {
		assert.Equal(t, entity.NftFetchFailed, record.Status)
	}
}

func TestResolveAllCachesOffchainDocuments(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"name":"Cached"}`))
	}))
	defer server.Close()

	data := encodeMetadataAccount("Cached", "CCH", server.URL, 0)
	reader := &fakeAccountReader{
		accounts: []*client.AccountInfo{{Owner: testMetadataProgramID, Data: data}},
	}
	resolver := NewResolver(reader, testResolverConfig(), zap.NewNop())

	holdings := holdingsOf(map[string]string{"Account1111": testMintA})
	for i := 0; i < 2; i++ {
		records, err := resolver.ResolveAll(context.Background(), testChain(), holdings)
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.NotNil(t, records[0].OffChain)
		assert.Equal(t, "Cached", records[0].OffChain.Name)
	}

	assert.Equal(t, int64(1), hits.Load())
}

func TestResolveAllRequiresMetadataProgram(t *testing.T) {
	resolver := NewResolver(&fakeAccountReader{}, testResolverConfig(), zap.NewNop())

	_, err := resolver.ResolveAll(context.Background(), entity.ChainDefinition{Identifier: "ethereum", Kind: entity.ChainKindEVM},
		holdingsOf(map[string]string{"0xabc": "0xdef"}))
	assert.Error(t, err)
}

func TestResolveAllEmptyHoldings(t *testing.T) {
	reader := &fakeAccountReader{}
	resolver := NewResolver(reader, testResolverConfig(), zap.NewNop())

	records, err := resolver.ResolveAll(context.Background(), testChain(), nil)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, reader.requests, "no account read should happen without holdings")
}
