package entity

// AssetMetadata holds the display details of a registered asset.
// PriceFeedID is the external market-data identifier; assets without one are
// never included in price requests.
type AssetMetadata struct {
	AssetID       string `json:"assetId" yaml:"assetId"`
	Symbol        string `json:"symbol" yaml:"symbol"`
	Name          string `json:"name" yaml:"name"`
	LogoURI       string `json:"logoUri,omitempty" yaml:"logoUri,omitempty"`
	DecimalPlaces int32  `json:"decimalPlaces" yaml:"decimalPlaces"`
	PriceFeedID   string `json:"priceFeedId,omitempty" yaml:"priceFeedId,omitempty"`
}
