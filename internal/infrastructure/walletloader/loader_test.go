package walletloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

const (
	solanaAddress = "Wallet1111111111111111111111111111111111111"
	evmAddress    = "0x52908400098527886E0F7030069857D2E4169EE7"
)

func writeWalletFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wallets.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGetWalletsMixedFormats(t *testing.T) {
	path := writeWalletFile(t, "# tracked wallets\n"+
		solanaAddress+"\n"+
		"\n"+
		evmAddress+"\n"+
		"short\n")

	loader := NewWalletFileLoader(path, nopLogger{})
	wallets, err := loader.GetWallets()
	require.NoError(t, err)

	require.Len(t, wallets, 2, "comments, blanks and short lines are skipped")
	assert.Equal(t, solanaAddress, wallets[0].Address)
	assert.Equal(t, evmAddress, wallets[1].Address)
}

func TestGetWalletsMissingFile(t *testing.T) {
	loader := NewWalletFileLoader(filepath.Join(t.TempDir(), "missing.txt"), nopLogger{})
	_, err := loader.GetWallets()
	assert.Error(t, err)
}

func TestGetWalletByAddressIsCaseInsensitive(t *testing.T) {
	path := writeWalletFile(t, evmAddress+"\n")
	loader := NewWalletFileLoader(path, nopLogger{})

	wallet, err := loader.GetWalletByAddress("0x52908400098527886e0f7030069857d2e4169ee7")
	require.NoError(t, err)
	assert.Equal(t, evmAddress, wallet.Address)

	_, err = loader.GetWalletByAddress(solanaAddress)
	assert.Error(t, err)
}
