package embedding

import "context"

// QuotaChecker guards a metered tier.
type QuotaChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
}
