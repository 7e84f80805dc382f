package models

// DashboardStats aggregates the counters shown on the dashboard page.
type DashboardStats struct {
	Files        int  `json:"files"`
	Jobs         int  `json:"jobs"`
	Models       int  `json:"models"`
	APIConnected bool `json:"api_connected"`
}
