package recon

import "time"

// Aging buckets. Boundaries are inclusive on the upper edge: a 30-day-old
// entry is still "0 to 30 days", a 31-day-old one is "30 to 60 days".
const (
	BucketFuture      = "Future Date"
	Bucket0To30       = "0 to 30 days"
	Bucket30To60      = "30 to 60 days"
	Bucket60To90      = "60 to 90 days"
	Bucket90Plus      = "90 days & above"
	BucketUnparseable = "Unparseable Date"
)

// Bucket maps an age in days to its aging bucket.
func Bucket(ageDays int) string {
	switch {
	case ageDays < 0:
		return BucketFuture
	case ageDays <= 30:
		return Bucket0To30
	case ageDays <= 60:
		return Bucket30To60
	case ageDays <= 90:
		return Bucket60To90
	default:
		return Bucket90Plus
	}
}

// Age is the whole number of days from entry to the processing date.
func Age(processing, entry time.Time) int {
	return int(processing.Sub(entry).Hours() / 24)
}

// ApplyAging fills the age, bucket and standing additional remark on each
// exception against the processing date. Open exceptions re-age every run,
// so carryover rows migrate buckets as they get older. Rows whose date
// never parsed go to the Unparseable Date bucket rather than silently
// aging from zero.
func ApplyAging(exceptions []Exception, processing time.Time) []Exception {
	for i := range exceptions {
		if exceptions[i].AdditionalRemarks == "" {
			exceptions[i].AdditionalRemarks = PendingFromOperation
		}
		if exceptions[i].Date == nil {
			exceptions[i].AgingDays = 0
			exceptions[i].AgingBucket = BucketUnparseable
			continue
		}
		exceptions[i].AgingDays = Age(processing, *exceptions[i].Date)
		exceptions[i].AgingBucket = Bucket(exceptions[i].AgingDays)
	}
	return exceptions
}
