package models

import "time"

// OHLCVBar is one daily bar of price/volume history.
type OHLCVBar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Quote is the latest normalized quote for an asset.
type Quote struct {
	Price           float64
	MarketCap       float64
	AvgDollarVolume float64
}

// MarketDataSnapshot is the canonical normalized view of whatever the
// upstream provider returned. It is owned exclusively by the request that
// fetched it and never cached across requests.
type MarketDataSnapshot struct {
	Quote         Quote
	PriceHistory  []OHLCVBar // chronological
	IsOTC         bool
	DataAvailable bool
}

// AnomalyFlags records which pattern rules fired during local detection.
type AnomalyFlags struct {
	PriceSpike      bool
	VolumeExplosion bool
	SpikeThenDrop   bool
	OverboughtRSI   bool
	HighVolatility  bool
}

// AnomalyReport is the output of the local anomaly detector.
type AnomalyReport struct {
	HasAnomalies bool
	AnomalyScore float64 // 0..1
	Flags        AnomalyFlags
	Explanations []string
}
