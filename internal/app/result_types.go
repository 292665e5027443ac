package app

import "branch-supply/internal/core"

// OrderResult is returned by single-order operations.
type OrderResult struct {
	Order *core.Order `json:"order"`
}

// OrderListResult is returned by ListOrders.
type OrderListResult struct {
	Orders []core.Order `json:"orders"`
	Total  int          `json:"total"`
	Page   int          `json:"page"`
	Limit  int          `json:"limit"`
}

// BranchAnalyticsResult is returned by BranchAnalytics.
type BranchAnalyticsResult struct {
	Year     int                `json:"year"`
	Month    int                `json:"month"`
	Branches []core.BranchStats `json:"branches"`
}

// ProductInsightsResult is returned by ProductInsights.
type ProductInsightsResult struct {
	Year     int                   `json:"year"`
	Month    int                   `json:"month"`
	Products []core.ProductInsight `json:"products"`
}
