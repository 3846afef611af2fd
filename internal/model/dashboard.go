package model

import "github.com/shopspring/decimal"

// MonthCount is a raw (year, month) reservation count.
type MonthCount struct {
	Year  int
	Month int
	Count int64
}

// MonthlyBucket is one bar of the reservation histogram.
type MonthlyBucket struct {
	Year              int    `json:"year"`
	Month             int    `json:"month"`
	MonthName         string `json:"monthName"`
	TotalReservations int64  `json:"totalReservations"`
}

// DashboardStats is the payload of the dashboard endpoint.
type DashboardStats struct {
	TotalReservations   int64           `json:"totalReservations"`
	PendingReservations int64           `json:"pendingReservations"`
	UnpaidInvoices      int64           `json:"unpaidInvoices"`
	MonthlyRevenue      decimal.Decimal `json:"monthlyRevenue"`
	MonthlyReservations []MonthlyBucket `json:"monthlyReservations"`
	LatestReservations  []Reservation   `json:"latestReservations"`
}
