package sphere

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// LoadMarketData reads and validates a JSON market data file.
func LoadMarketData(path string) (*MarketData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read market data: %w", err)
	}
	data := &MarketData{}
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return data, nil
}
