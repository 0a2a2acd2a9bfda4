package usage

// QuotaReader provides read-only access to remote token quota state.
type QuotaReader interface {
	DailyLimit() int64
	MonthlyLimit() int64
	DailyUsed() int64
	MonthlyUsed() int64
}
