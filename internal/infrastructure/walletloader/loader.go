package walletloader

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"
)

// WalletFileLoader implements the port.WalletProvider interface by loading
// tracked wallets from a plain text file, one address per line.
type WalletFileLoader struct {
	filePath string
	logger   port.Logger
}

// NewWalletFileLoader creates a new WalletFileLoader.
func NewWalletFileLoader(filePath string, logger port.Logger) port.WalletProvider {
	return &WalletFileLoader{
		filePath: filePath,
		logger:   logger,
	}
}

// GetWallets reads wallet addresses from the configured file path. Blank
// lines and lines starting with '#' are skipped. Addresses are not validated
// beyond a length check: the file may mix base58 and 0x-hex identifiers and
// each chain's fetcher interprets them itself.
func (l *WalletFileLoader) GetWallets() ([]entity.Wallet, error) {
	file, err := os.Open(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open wallet file %s: %w", l.filePath, err)
	}
	defer file.Close()

	var wallets []entity.Wallet
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if len(line) < 32 {
			l.logger.Info("Skipping invalid wallet address format",
				"file", l.filePath, "line_number", lineNum, "address", line)
			continue
		}
		wallets = append(wallets, entity.Wallet{Address: line})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning wallet file %s: %w", l.filePath, err)
	}

	l.logger.Info("Wallets loaded successfully from file", "count", len(wallets), "path", l.filePath)
	return wallets, nil
}

// GetWalletByAddress searches for a wallet by its address in the file.
func (l *WalletFileLoader) GetWalletByAddress(address string) (*entity.Wallet, error) {
	wallets, err := l.GetWallets()
	if err != nil {
		return nil, fmt.Errorf("failed to load wallets when searching by address %q: %w", address, err)
	}

	for _, wallet := range wallets {
		if strings.EqualFold(wallet.Address, address) {
			return &wallet, nil
		}
	}
	return nil, fmt.Errorf("wallet with address %s not found in %s", address, l.filePath)
}
